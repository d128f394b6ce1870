// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package spooled provides a buffer that keeps small contents in memory and
// rolls over to a temporary file once a size limit is exceeded.
package spooled

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrRewound is returned by writes after the content was rewound for reading.
var ErrRewound = errors.New("write after rewind")

// TemporaryFile buffers written data until it is read back after Rewind.
type TemporaryFile struct {
	limit int64
	dir   string
	n     int64
	mem   bytes.Buffer
	file  *os.File
	r     io.Reader
}

// New creates a TemporaryFile that rolls over to a file in dir after limit
// bytes. An empty dir uses the default temporary directory. The returned
// function removes the file.
func New(limit int64, dir string) (*TemporaryFile, func() error) {
	t := &TemporaryFile{limit: limit, dir: dir}
	return t, t.Close
}

// Write appends p, rolling over when the limit is exceeded.
func (t *TemporaryFile) Write(p []byte) (int, error) {
	if t.r != nil {
		return 0, ErrRewound
	}
	if t.file == nil && t.n+int64(len(p)) > t.limit {
		if err := t.Rollover(); err != nil {
			return 0, err
		}
	}

	var n int
	var err error
	if t.file != nil {
		n, err = t.file.Write(p)
	} else {
		n, err = t.mem.Write(p)
	}
	t.n += int64(n)
	return n, err
}

// Rollover moves the buffered data into a temporary file.
func (t *TemporaryFile) Rollover() error {
	if t.file != nil {
		return nil
	}
	f, err := os.CreateTemp(t.dir, "spooled")
	if err != nil {
		return errors.Wrap(err, "could not create tmp file")
	}
	if _, err := t.mem.WriteTo(f); err != nil {
		f.Close()
		os.Remove(f.Name()) // nolint:errcheck
		return errors.Wrap(err, "could not fill tmp file")
	}
	t.file = f
	return nil
}

// RolledOver reports whether the content lives in a temporary file.
func (t *TemporaryFile) RolledOver() bool {
	return t.file != nil
}

// Rewind switches to reading from the start of the written data.
func (t *TemporaryFile) Rewind() error {
	if t.file == nil {
		t.r = bytes.NewReader(t.mem.Bytes())
		return nil
	}
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "could not rewind tmp file")
	}
	t.r = t.file
	return nil
}

// Read reads the data written before Rewind. The first Read rewinds.
func (t *TemporaryFile) Read(p []byte) (int, error) {
	if t.r == nil {
		if err := t.Rewind(); err != nil {
			return 0, err
		}
	}
	return t.r.Read(p)
}

// Close drops the buffer and removes the temporary file.
func (t *TemporaryFile) Close() error {
	t.r = nil
	t.mem.Reset()
	if t.file == nil {
		return nil
	}
	f := t.file
	t.file = nil
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(f.Name())
}

// Size returns the number of bytes written.
func (t *TemporaryFile) Size() int64 {
	return t.n
}
