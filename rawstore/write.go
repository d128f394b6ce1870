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

package rawstore

import (
	"crypto/md5"  // #nosec
	"crypto/sha1" // #nosec
	"crypto/sha256"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/pkg/errors"
)

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// WriteFile writes the file rel with the content produced by write. The
// content goes to a .partial sibling first and replaces rel only if write
// succeeded. The returned File carries size and hashes but is not recorded.
func (store *Store) WriteFile(rel string, write func(w io.Writer) error) (*File, error) {
	if err := store.fs.MkdirAll(path.Dir(rel), 0750); err != nil {
		return nil, errors.Wrapf(err, "create folder for %s", rel)
	}

	partial := rel + ".partial"
	f, err := store.fs.Create(partial)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", partial)
	}

	md5hash, sha1hash, sha256hash := md5.New(), sha1.New(), sha256.New() // #nosec
	counter := &countingWriter{}
	err = write(io.MultiWriter(f, md5hash, sha1hash, sha256hash, counter))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := store.fs.Remove(partial); rmErr != nil {
			store.log.WithError(rmErr).WithField("path", partial).Warn("could not remove partial file")
		}
		return nil, errors.Wrapf(err, "write %s", rel)
	}
	if err := store.fs.Rename(partial, rel); err != nil {
		return nil, errors.Wrapf(err, "rename %s", partial)
	}

	now := FormatTime(time.Now())
	file := NewFile(rel)
	file.Size = float64(counter.n)
	file.Hashes = map[string]interface{}{
		"MD5":     fmt.Sprintf("%x", md5hash.Sum(nil)),
		"SHA-1":   fmt.Sprintf("%x", sha1hash.Sum(nil)),
		"SHA-256": fmt.Sprintf("%x", sha256hash.Sum(nil)),
	}
	file.Ctime = now
	file.Mtime = now
	return file, nil
}
