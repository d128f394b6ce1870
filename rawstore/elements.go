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
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// JSONElement is a single entry in the custody index.
type JSONElement []byte

// Element is an untyped element.
type Element map[string]interface{}

const timeFormat = "2006-01-02T15:04:05.000Z"

// FormatTime formats t the way element timestamps are stored.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// File implements a STIX 2.1 File Object
type File struct {
	ID         string
	Artifact   string
	Type       string
	Hashes     map[string]interface{}
	Size       float64
	Name       string
	Ctime      string
	Mtime      string
	Origin     map[string]interface{}
	ExportPath string
	Errors     []interface{}
}

// NewFile creates a new STIX 2.1 File Object for a file stored at the store
// relative path rel.
func NewFile(rel string) *File {
	return &File{ID: "file--" + uuid.New().String(), Type: "file", Name: relName(rel), ExportPath: rel}
}

// relName returns the file name of a slash separated store path.
func relName(rel string) string {
	return path.Base(path.Clean("/" + rel))
}

// AddError adds an error string to a File and returns this File.
func (i *File) AddError(err string) *File {
	logrus.WithField("file", i.ExportPath).Warn(err)
	i.Errors = append(i.Errors, err)
	return i
}

// Process implements a STIX 2.1 Process Object
type Process struct {
	ID          string
	Artifact    string
	Type        string
	Name        string
	CreatedTime string
	CommandLine string
	StdoutPath  string
	ReturnCode  float64
	Errors      []interface{}
}

// NewProcess creates a new STIX 2.1 Process Object.
func NewProcess() *Process {
	return &Process{ID: "process--" + uuid.New().String(), Type: "process"}
}

// AddError adds an error string to a Process and returns this Process.
func (i *Process) AddError(err string) *Process {
	logrus.WithField("command_line", i.CommandLine).Warn(err)
	i.Errors = append(i.Errors, err)
	return i
}
