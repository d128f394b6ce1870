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

package acquisition

import (
	"context"
	"crypto/md5"  // #nosec
	"crypto/sha1" // #nosec
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"path"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidcollector/bridge"
)

const partialSuffix = ".partial"

var pool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, 1024*1024)
		return &buffer
	},
}

// Hashes are the hex encoded digests of a transferred artifact.
type Hashes struct {
	MD5    string `json:"MD5"`
	SHA1   string `json:"SHA-1"`
	SHA256 string `json:"SHA-256"`
}

// Map returns the hashes keyed by their STIX names.
func (h Hashes) Map() map[string]interface{} {
	return map[string]interface{}{"MD5": h.MD5, "SHA-1": h.SHA1, "SHA-256": h.SHA256}
}

// Transferred describes a completed transfer.
type Transferred struct {
	Bytes  int64
	Hashes Hashes
}

// Transfer streams remote sources into files of a filesystem. Every transfer
// writes to a .partial sibling which is renamed only once the stream ended
// successfully.
type Transfer struct {
	Bridge bridge.CommandBridge
	Fs     afero.Fs
	// Privileged runs every transfer command via su.
	Privileged bool
	Log        logrus.FieldLogger
}

// NewTransfer creates a transfer writing to fs.
func NewTransfer(b bridge.CommandBridge, fs afero.Fs, privileged bool) *Transfer {
	return &Transfer{Bridge: b, Fs: fs, Privileged: privileged, Log: logrus.StandardLogger()}
}

func (t *Transfer) wrap(argv []string) []string {
	if t.Privileged {
		return bridge.Privileged(argv)
	}
	return argv
}

// TransferFile streams a single remote file.
func (t *Transfer) TransferFile(ctx context.Context, remoteSource, localDest string) (*Transferred, error) {
	return t.stream(ctx, remoteSource, t.wrap([]string{"cat", remoteSource}), localDest, false)
}

// TransferDirectoryArchive streams a remote directory as an uncompressed tar
// archive. The archive is stored verbatim.
func (t *Transfer) TransferDirectoryArchive(ctx context.Context, remoteDir, localArchivePath string) (*Transferred, error) {
	return t.stream(ctx, remoteDir, t.wrap([]string{"tar", "-cf", "-", "-C", remoteDir, "."}), localArchivePath, false)
}

// TransferBlockDevice images a remote block device with dd. A failed or
// cancelled image is discarded, there is no resume.
func (t *Transfer) TransferBlockDevice(ctx context.Context, remoteBlock, localImage, blockSize string) (*Transferred, error) {
	argv := []string{"dd", "if=" + remoteBlock, "bs=" + blockSize}
	return t.stream(ctx, remoteBlock, t.wrap(argv), localImage, false)
}

// TransferQuery captures the stdout of a command. An empty output is a valid
// capture as long as the command exits with 0.
func (t *Transfer) TransferQuery(ctx context.Context, argv []string, localDest string) (*Transferred, error) {
	return t.stream(ctx, bridge.Join(argv), t.wrap(argv), localDest, true)
}

func (t *Transfer) stream(ctx context.Context, source string, argv []string, dest string, allowEmpty bool) (*Transferred, error) { // nolint:gocyclo
	fail := func(n int64, err error) (*Transferred, error) {
		return nil, &TransferFailure{Source: source, Dest: dest, Bytes: n, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(0, errors.Wrap(ErrCancelled, err.Error()))
	}

	if err := t.Fs.MkdirAll(path.Dir(dest), 0750); err != nil {
		return fail(0, err)
	}

	rc, err := t.Bridge.StreamOut(ctx, argv)
	if err != nil {
		return fail(0, err)
	}

	partial := dest + partialSuffix
	f, err := t.Fs.Create(partial)
	if err != nil {
		rc.Close() // nolint:errcheck
		return fail(0, err)
	}

	hashes := map[string]hash.Hash{"MD5": md5.New(), "SHA-1": sha1.New(), "SHA-256": sha256.New()} // #nosec
	w := io.MultiWriter(f, hashes["MD5"], hashes["SHA-1"], hashes["SHA-256"])

	n, copyErr := Copy(ctx, w, rc)
	closeErr := rc.Close()
	fileErr := f.Close()

	err = copyErr
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = fileErr
	}
	if err == nil && n == 0 && !allowEmpty {
		err = errors.New("empty stream")
	}
	if err != nil {
		if rmErr := t.Fs.Remove(partial); rmErr != nil {
			t.Log.WithError(rmErr).WithField("path", partial).Warn("could not remove partial file")
		}
		if ctx.Err() != nil {
			err = errors.Wrap(ErrCancelled, err.Error())
		}
		return fail(n, err)
	}

	if err := t.Fs.Rename(partial, dest); err != nil {
		return fail(n, err)
	}

	t.Log.WithFields(logrus.Fields{"source": source, "dest": dest, "size": humanize.Bytes(uint64(n))}).Debug("transferred")
	return &Transferred{
		Bytes: n,
		Hashes: Hashes{
			MD5:    fmt.Sprintf("%x", hashes["MD5"].Sum(nil)),
			SHA1:   fmt.Sprintf("%x", hashes["SHA-1"].Sum(nil)),
			SHA256: fmt.Sprintf("%x", hashes["SHA-256"].Sum(nil)),
		},
	}, nil
}

// Copy is an io.Copy that checks for cancellation before every chunk.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buff := pool.Get().(*[]byte)
	defer pool.Put(buff)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, err := src.Read(*buff)
		if n > 0 {
			m, werr := dst.Write((*buff)[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if m < n {
				return written, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
