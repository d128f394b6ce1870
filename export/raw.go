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

package export

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidcollector/acquisition"
)

// RawArtifacts lists the raw files preserved in the export, relative to the
// raw root.
var RawArtifacts = []string{
	"logical/contacts.txt",
	"logical/calllog.txt",
	"logical/sms.txt",
	"logical/calendar_events.txt",
	"logical/downloads.txt",
	"system/dumpsys_location.txt",
	"system/dumpsys_wifi.txt",
	"system/ip_addr.txt",
	"system/ip_route.txt",
	"system/netcfg.txt",
	"system/logcat_dump.txt",
	"system/bugreport.zip",
}

// ManifestEntry describes one copied file.
type ManifestEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest lists the custody copies of an export.
type Manifest struct {
	Files []ManifestEntry `json:"files"`
}

// CopyRawArtifacts copies the RawArtifacts present in src byte for byte to
// the raw folder and writes the manifest. Absent files are skipped.
func (e *Exporter) CopyRawArtifacts(ctx context.Context, src afero.Fs) (*Manifest, error) {
	manifest := &Manifest{Files: []ManifestEntry{}}
	for _, name := range RawArtifacts {
		entry, err := e.copyRaw(ctx, src, name)
		if err != nil {
			return nil, fail("raw", err)
		}
		if entry != nil {
			manifest.Files = append(manifest.Files, *entry)
		}
	}

	err := writeAtomic(e.dst, path.Join(RawDir, ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	})
	if err != nil {
		return nil, fail("raw", err)
	}
	return manifest, nil
}

func (e *Exporter) copyRaw(ctx context.Context, src afero.Fs, name string) (*ManifestEntry, error) {
	in, err := src.Open(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer in.Close()

	hash := sha256.New()
	text := newUTF8Check()
	var n int64
	err = writeAtomic(e.dst, path.Join(RawDir, name), func(w io.Writer) error {
		var err error
		n, err = acquisition.Copy(ctx, io.MultiWriter(w, hash, text), in)
		return err
	})
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{"file": name, "size": n})
	if strings.HasSuffix(name, ".txt") && !text.valid() {
		log.Warn("copied text file contains invalid UTF-8")
	}
	log.Debug("raw artifact copied")
	return &ManifestEntry{Name: name, Size: n, SHA256: fmt.Sprintf("%x", hash.Sum(nil))}, nil
}

// utf8Check validates a stream chunk by chunk, carrying incomplete runes
// over chunk borders.
type utf8Check struct {
	tail    []byte
	invalid bool
}

func newUTF8Check() *utf8Check { return &utf8Check{} }

func (c *utf8Check) Write(p []byte) (int, error) {
	if c.invalid {
		return len(p), nil
	}
	b := append(c.tail, p...)
	cut := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				cut = i
			}
			break
		}
	}
	if !utf8.Valid(b[:cut]) {
		c.invalid = true
	}
	c.tail = append([]byte{}, b[cut:]...)
	return len(p), nil
}

func (c *utf8Check) valid() bool {
	return !c.invalid && utf8.Valid(c.tail)
}
