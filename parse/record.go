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

// Package parse reads the semi-structured text dumps of Android content
// providers and decodes the timestamps found in them.
package parse

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/Velocidex/ordereddict"
	"github.com/pkg/errors"
)

// Marker starts every meaningful line of a content query dump.
const Marker = "Row:"

// ErrParse is returned for marker lines without any field.
var ErrParse = errors.New("parse failure")

// a key is a word directly followed by '=' at the start or after whitespace
var keyToken = regexp.MustCompile(`(?:^|\s)(\w+)=`)

// ParseStats counts the lines seen by ParseRecords.
type ParseStats struct {
	Lines    int
	Records  int
	Failures int
}

// ParseLine parses one marker line into an ordered field map. A value ends
// where the next key starts, it may contain whitespace and '='. Values are
// trimmed and trailing ',' and ';' are removed. For repeated keys the last
// value wins.
func ParseLine(line string) (*ordereddict.Dict, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Marker) {
		return nil, errors.Wrap(ErrParse, "missing marker")
	}
	body := line[len(Marker):]

	matches := keyToken.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil, errors.Wrapf(ErrParse, "no fields in %q", line)
	}

	record := ordereddict.NewDict()
	for i, m := range matches {
		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		key := body[m[2]:m[3]]
		value := strings.TrimRight(strings.TrimSpace(body[m[1]:end]), ",;")
		record.Set(key, value)
	}
	return record, nil
}

// ParseRecords parses all marker lines of r. Other lines are ignored, marker
// lines without fields are counted as failures and skipped. The error is
// only set if r could not be read.
func ParseRecords(r io.Reader) ([]*ordereddict.Dict, ParseStats, error) {
	var records []*ordereddict.Dict
	var stats ParseStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, Marker) {
			continue
		}
		stats.Lines++

		record, err := ParseLine(line)
		if err != nil {
			stats.Failures++
			continue
		}
		stats.Records++
		records = append(records, record)
	}
	return records, stats, scanner.Err()
}

// ParseString parses the marker lines of s.
func ParseString(s string) ([]*ordereddict.Dict, ParseStats) {
	records, stats, _ := ParseRecords(strings.NewReader(s))
	return records, stats
}
