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
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// bookkeeping files in the store root that have no element
var unindexedFiles = map[string]bool{
	"/" + ItemDB:              true,
	"/" + ItemDB + "-wal":     true,
	"/" + ItemDB + "-shm":     true,
	"/" + ItemDB + "-journal": true,
	"/" + ReportFile:          true,
}

func newHash(algorithm string) hash.Hash {
	switch algorithm {
	case "MD5":
		return md5.New() // #nosec
	case "SHA1", "SHA-1":
		return sha1.New() // #nosec
	case "SHA-256":
		return sha256.New()
	}
	return nil
}

// custodyCheck collects the flaws of one validation run.
type custodyCheck struct {
	fs       afero.Fs
	flaws    []string
	expected map[string]bool
}

func (c *custodyCheck) flaw(format string, args ...interface{}) {
	c.flaws = append(c.flaws, fmt.Sprintf(format, args...))
}

// Validate checks the store for various flaws: elements that fail schema
// validation, files whose size or hashes do not match their element, files
// without element and elements without file.
func (store *Store) Validate() (flaws []string, err error) {
	elements, err := store.All()
	if err != nil {
		return nil, err
	}

	c := &custodyCheck{fs: store.fs, flaws: []string{}, expected: map[string]bool{}}
	for _, element := range elements {
		if err := c.element(element); err != nil {
			return nil, err
		}
	}

	found, err := c.files()
	if err != nil {
		return nil, err
	}

	var additional, missing []string
	for name := range found {
		if !c.expected[name] {
			additional = append(additional, name)
		}
	}
	for name := range c.expected {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(additional) > 0 {
		sort.Strings(additional)
		c.flaw("additional files: ('%s')", strings.Join(additional, "', '"))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		c.flaw("missing files: ('%s')", strings.Join(missing, "', '"))
	}
	return c.flaws, nil
}

// files returns the slash separated, rooted names of all indexable files.
func (c *custodyCheck) files() (map[string]bool, error) {
	found := map[string]bool{}
	err := afero.Walk(c.fs, "/", func(name string, info os.FileInfo, err error) error {
		if info == nil || info.IsDir() {
			return nil
		}
		name = "/" + strings.TrimPrefix(filepath.ToSlash(name), "/")
		if !unindexedFiles[name] {
			found[name] = true
		}
		return nil
	})
	return found, err
}

func (c *custodyCheck) element(element JSONElement) error {
	schemaFlaws, err := validateSchema(element)
	if err != nil {
		return err
	}
	c.flaws = append(c.flaws, schemaFlaws...)

	var fields map[string]interface{}
	if err := json.Unmarshal(element, &fields); err != nil {
		return err
	}

	var pathFields []string
	for field := range fields {
		if strings.HasSuffix(field, "_path") {
			pathFields = append(pathFields, field)
		}
	}
	sort.Strings(pathFields)

	for _, field := range pathFields {
		rel, ok := fields[field].(string)
		switch {
		case !ok:
			c.flaw("%s is not a string", field)
			continue
		case strings.Contains(rel, ".."):
			c.flaw("'..' in %s", rel)
			continue
		}
		c.expected["/"+strings.TrimPrefix(rel, "/")] = true

		if field != "export_path" {
			continue
		}
		info, err := c.fs.Stat(rel)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if size := gjson.GetBytes(element, "size"); size.Exists() && size.Int() != info.Size() {
			c.flaw("wrong size for %s (is %d, expected %d)", rel, info.Size(), size.Int())
		}
		hashes, _ := fields["hashes"].(map[string]interface{})
		if err := c.hashes(rel, hashes); err != nil {
			return err
		}
	}
	return nil
}

// hashes reads rel once and compares every recorded digest.
func (c *custodyCheck) hashes(rel string, recorded map[string]interface{}) error {
	var algorithms []string
	for algorithm := range recorded {
		algorithms = append(algorithms, algorithm)
	}
	sort.Strings(algorithms)

	digests := map[string]hash.Hash{}
	var writers []io.Writer
	for _, algorithm := range algorithms {
		h := newHash(algorithm)
		if h == nil {
			c.flaw("unsupported hash %s for %s", algorithm, rel)
			continue
		}
		digests[algorithm] = h
		writers = append(writers, h)
	}
	if len(writers) == 0 {
		return nil
	}

	f, err := c.fs.Open(rel)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return err
	}

	for _, algorithm := range algorithms {
		h, ok := digests[algorithm]
		if ok && fmt.Sprintf("%x", h.Sum(nil)) != recorded[algorithm] {
			c.flaw("hashvalue mismatch %s for %s", algorithm, rel)
		}
	}
	return nil
}
