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
	"compress/zlib"
	"io"
	"os"
	"path"
	"time"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/sqlar/spooled"
)

type storedData struct {
	size   int64
	reader io.Reader
}

type item struct {
	fs   *FS
	name string

	// reader item
	info     os.FileInfo
	blob     *sqlite.Blob
	reader   io.Reader
	children []os.FileInfo
	offset   int

	// writer item
	perm   os.FileMode
	raw    *spooled.TemporaryFile
	packed *spooled.TemporaryFile
	zw     *zlib.Writer
	size   int64
	closed bool
}

func newReadItem(fs *FS, r *row, name string, info os.FileInfo, children []os.FileInfo) (*item, error) {
	i := &item{fs: fs, name: name, info: info, children: children}
	if r == nil || r.dir() {
		return i, nil
	}

	var err error
	i.blob, err = fs.cursor.OpenBlob("", "sqlar", "data", r.id, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open content of %s", name)
	}
	i.reader = i.blob
	if r.compressed() {
		if i.reader, err = zlib.NewReader(i.blob); err != nil {
			i.blob.Close()
			return nil, errors.Wrapf(err, "decompress %s", name)
		}
	}
	return i, nil
}

func newWriteItem(fs *FS, name string, perm os.FileMode) *item {
	raw, _ := spooled.New(fs.spoolSize, fs.spoolDir)
	packed, _ := spooled.New(fs.spoolSize, fs.spoolDir)
	return &item{fs: fs, name: name, perm: perm, raw: raw, packed: packed, zw: zlib.NewWriter(packed)}
}

func (i *item) Name() string {
	return i.name
}

func (i *item) Read(p []byte) (n int, err error) {
	if i.reader == nil {
		if i.info != nil && i.info.IsDir() {
			return 0, &os.PathError{Op: "read", Path: i.name, Err: errors.New("is a directory")}
		}
		return 0, &os.PathError{Op: "read", Path: i.name, Err: os.ErrInvalid}
	}
	i.fs.mu.Lock()
	defer i.fs.mu.Unlock()
	return i.reader.Read(p)
}

func (i *item) ReadAt([]byte, int64) (n int, err error) {
	return 0, ErrNotImplemented
}

func (i *item) Seek(int64, int) (int64, error) {
	return 0, ErrNotImplemented
}

func (i *item) Readdir(count int) ([]os.FileInfo, error) {
	if i.info == nil || !i.info.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: i.name, Err: errors.New("not a directory")}
	}
	remaining := i.children[i.offset:]
	if count <= 0 {
		i.offset = len(i.children)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if count > len(remaining) {
		count = len(remaining)
	}
	i.offset += count
	return remaining[:count], nil
}

func (i *item) Readdirnames(n int) ([]string, error) {
	infos, err := i.Readdir(n)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, err
}

func (i *item) Stat() (os.FileInfo, error) {
	if i.info != nil {
		return i.info, nil
	}
	return &Info{name: path.Base(i.name), sz: i.size, mode: i.perm.Perm(), mtime: time.Now()}, nil
}

func (i *item) Write(p []byte) (n int, err error) {
	if i.raw == nil || i.closed {
		return 0, &os.PathError{Op: "write", Path: i.name, Err: os.ErrInvalid}
	}
	if n, err = i.raw.Write(p); err != nil {
		return n, err
	}
	if _, err = i.zw.Write(p); err != nil {
		return 0, err
	}
	i.size += int64(len(p))
	return len(p), nil
}

func (i *item) WriteAt([]byte, int64) (n int, err error) {
	return 0, ErrNotImplemented
}

func (i *item) WriteString(s string) (ret int, err error) {
	return i.Write([]byte(s))
}

func (i *item) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true

	if i.raw == nil {
		i.fs.mu.Lock()
		defer i.fs.mu.Unlock()
		if closer, ok := i.reader.(io.Closer); ok && i.reader != io.Reader(i.blob) {
			if err := closer.Close(); err != nil {
				return err
			}
		}
		if i.blob != nil {
			return i.blob.Close()
		}
		return nil
	}

	defer i.raw.Close()
	defer i.packed.Close()
	if err := i.zw.Close(); err != nil {
		return err
	}

	// sqlar stores content uncompressed when compression does not help
	data := i.packed
	if data.Size() >= i.raw.Size() {
		data = i.raw
	}
	if data.Size() > MaxBlobSize {
		return &os.PathError{Op: "close", Path: i.name, Err: ErrTooLarge}
	}
	if err := data.Rewind(); err != nil {
		return err
	}
	return i.fs.store(i.name, i.perm, i.size, &storedData{size: data.Size(), reader: data})
}

func (i *item) Truncate(int64) error {
	return ErrNotImplemented
}

func (i *item) Sync() error {
	return nil
}
