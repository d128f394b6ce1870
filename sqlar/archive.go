/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package sqlar

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Summary counts the files of a pack or unpack run.
type Summary struct {
	Files   int
	Bytes   int64
	Skipped []string
}

// Entry is one archived file as listed by List.
type Entry struct {
	Name    string
	Mode    os.FileMode
	ModTime time.Time
	Size    int64
	Stored  int64
}

// Compressed reports whether the content is stored compressed.
func (e Entry) Compressed() bool {
	return !e.Mode.IsDir() && e.Size != e.Stored
}

var temporarySuffixes = []string{".partial", ".tmp", "-journal", "-wal", "-shm"}

func temporary(name string) bool {
	for _, suffix := range temporarySuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Pack adds all files below src to the archive. Temporary files are left
// out, files larger than MaxBlobSize are skipped and listed.
func (fs *FS) Pack(ctx context.Context, src afero.Fs) (*Summary, error) {
	summary := &Summary{}
	err := afero.Walk(src, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := normalizeFilename(p)
		if name == "" {
			return nil
		}
		if info.IsDir() {
			return fs.MkdirAll(name, info.Mode().Perm())
		}
		if !info.Mode().IsRegular() || temporary(name) {
			return nil
		}

		n, err := fs.add(ctx, src, p, name, info)
		if errors.Is(err, ErrTooLarge) {
			fs.log.WithField("file", name).Warn("file too large for archive, skipped")
			summary.Skipped = append(summary.Skipped, name)
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "could not pack %s", name)
		}
		summary.Files++
		summary.Bytes += n
		return nil
	})
	if err != nil {
		return summary, err
	}
	fs.log.WithFields(logrus.Fields{"files": summary.Files, "size": humanize.Bytes(uint64(summary.Bytes))}).Info("archive packed")
	return summary, nil
}

func (fs *FS) add(ctx context.Context, src afero.Fs, p, name string, info os.FileInfo) (int64, error) {
	in, err := src.Open(p)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, &ctxReader{ctx: ctx, r: in})
	if err != nil {
		out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	return n, fs.Chtimes(name, info.ModTime(), info.ModTime())
}

// Unpack extracts the archive into dst.
func (fs *FS) Unpack(ctx context.Context, dst afero.Fs) (*Summary, error) {
	summary := &Summary{}
	err := afero.Walk(fs, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := normalizeFilename(p)
		if name == "" {
			return nil
		}
		local := filepath.FromSlash(name)
		if info.IsDir() {
			return dst.MkdirAll(local, 0750)
		}

		n, err := fs.extract(ctx, dst, name, local, info)
		if err != nil {
			return errors.Wrapf(err, "could not unpack %s", name)
		}
		summary.Files++
		summary.Bytes += n
		return nil
	})
	if err != nil {
		return summary, err
	}
	fs.log.WithFields(logrus.Fields{"files": summary.Files, "size": humanize.Bytes(uint64(summary.Bytes))}).Info("archive unpacked")
	return summary, nil
}

func (fs *FS) extract(ctx context.Context, dst afero.Fs, name, local string, info os.FileInfo) (int64, error) {
	if dir := path.Dir(name); dir != "." {
		if err := dst.MkdirAll(filepath.FromSlash(dir), 0750); err != nil {
			return 0, err
		}
	}
	in, err := fs.Open(name)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := dst.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, &ctxReader{ctx: ctx, r: in})
	if err != nil {
		out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	if n != info.Size() {
		return n, errors.Errorf("size mismatch, expected %d bytes, got %d", info.Size(), n)
	}
	return n, dst.Chtimes(local, info.ModTime(), info.ModTime())
}

// List returns all entries ordered by name.
func (fs *FS) List() ([]Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	rows, err := fs.rows("")
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		info := r.info()
		entries = append(entries, Entry{Name: r.name, Mode: info.Mode(), ModTime: info.ModTime(), Size: r.sz, Stored: r.stored})
	}
	return entries, nil
}
