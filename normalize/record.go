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

package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/parse"
)

// ErrSchemaGap marks canonical fields none of whose aliases were present.
var ErrSchemaGap = errors.New("schema gap")

// Stats describes the outcome of loading one table.
type Stats struct {
	Table         string         `json:"table"`
	Sources       []string       `json:"sources,omitempty"`
	Rows          int            `json:"rows"`
	Gaps          map[string]int `json:"gaps,omitempty"`
	ParseFailures int            `json:"parse_failures,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
}

func (s *Stats) gap(column string) {
	if s.Gaps == nil {
		s.Gaps = map[string]int{}
	}
	s.Gaps[column]++
}

func (s *Stats) addError(err error) {
	s.Errors = append(s.Errors, err.Error())
}

// Err returns an ErrSchemaGap naming the columns that were missing in at
// least one record, or nil.
func (s Stats) Err() error {
	if len(s.Gaps) == 0 {
		return nil
	}
	var columns []string
	for column := range s.Gaps {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return errors.Wrapf(ErrSchemaGap, "%s: %s", s.Table, strings.Join(columns, ", "))
}

// record gives case-insensitive alias access to the fields of one raw record.
type record struct {
	raw   *ordereddict.Dict
	index map[string]string
	stats *Stats
}

func newRecord(raw *ordereddict.Dict, stats *Stats) *record {
	r := &record{raw: raw, index: map[string]string{}, stats: stats}
	for _, key := range raw.Keys() {
		lower := strings.ToLower(key)
		if _, ok := r.index[lower]; !ok {
			r.index[lower] = key
		}
	}
	return r
}

// lookup returns the value of the first alias present in the record, even
// if that value is empty.
func (r *record) lookup(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		if key, ok := r.index[strings.ToLower(alias)]; ok {
			return r.value(key), true
		}
	}
	return "", false
}

func (r *record) value(key string) string {
	v, ok := r.raw.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// pick returns the field for column or counts a gap.
func (r *record) pick(column string, aliases ...string) string {
	value, ok := r.lookup(aliases...)
	if !ok {
		r.stats.gap(column)
	}
	return value
}

// epoch picks a field holding an embedded epoch value.
func (r *record) epoch(column string, aliases ...string) *time.Time {
	return decodeEpoch(r.pick(column, aliases...))
}

// date picks a field holding either a formatted date or an epoch value.
func (r *record) date(column string, aliases ...string) *time.Time {
	return decodeTime(r.pick(column, aliases...))
}

func (r *record) integer(column string, aliases ...string) *int64 {
	return parseInt(r.pick(column, aliases...))
}

func (r *record) number(column string, aliases ...string) *float64 {
	return parseFloat(r.pick(column, aliases...))
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006:01:02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

var digits = regexp.MustCompile(`\d+`)

func decodeEpoch(raw string) *time.Time {
	t, ok := parse.DecodeTimestamp(raw)
	if !ok {
		return nil
	}
	return &t
}

func decodeTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return decodeEpoch(raw)
}

func parseInt(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		i := int64(f)
		return &i
	}
	return nil
}

func parseFloat(raw string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return &f
}

// digitsOnly keeps the first run of digits, 0 if there is none.
func digitsOnly(raw string) *int64 {
	var i int64
	if run := digits.FindString(raw); run != "" {
		if v, err := strconv.ParseInt(run, 10, 64); err == nil {
			i = v
		}
	}
	return &i
}
