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
	"sort"
	"strconv"
	"time"

	"github.com/fatih/structs"
)

const (
	tagName    = "col"
	dateLayout = "2006-01-02 15:04:05"
)

// Table is a read-only snapshot of a normalized table. Cells are rendered
// strings, timestamps in UTC.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
	stats   Stats
}

// Name returns the table key, e.g. "sms".
func (t *Table) Name() string { return t.name }

// Columns returns the column names in entity field order.
func (t *Table) Columns() []string { return append([]string{}, t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) []string { return append([]string{}, t.rows[i]...) }

// Value returns the cell of row i in column, "" for unknown columns.
func (t *Table) Value(i int, column string) string {
	c, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[i][c]
}

// Stats returns the load statistics of the table.
func (t *Table) Stats() Stats { return t.stats }

// FormatTime renders a timestamp cell.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format(dateLayout + ".000")
	}
	return t.Format(dateLayout)
}

type row struct {
	entity interface{}
}

// columnsOf lists the col tags of an entity in field order.
func columnsOf(entity interface{}) []string {
	var columns []string
	for _, field := range structs.Fields(entity) {
		if tag := field.Tag(tagName); tag != "" {
			columns = append(columns, tag)
		}
	}
	return columns
}

func field(entity interface{}, column string) interface{} {
	for _, f := range structs.Fields(entity) {
		if f.Tag(tagName) == column {
			return f.Value()
		}
	}
	return nil
}

func cell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatTime(*v)
	case *int64:
		if v == nil {
			return ""
		}
		return strconv.FormatInt(*v, 10)
	case *float64:
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// newTable renders rows into the columns of proto. Raw fields without a
// canonical column never reach the table.
func newTable(name string, proto interface{}, rows []row, stats Stats) *Table {
	columns := columnsOf(proto)
	index := map[string]int{}
	for i, column := range columns {
		index[column] = i
	}

	t := &Table{name: name, columns: columns, index: index, stats: stats}
	for _, r := range rows {
		cells := make([]string, len(columns))
		for _, f := range structs.Fields(r.entity) {
			if c, ok := index[f.Tag(tagName)]; ok {
				cells[c] = cell(f.Value())
			}
		}
		t.rows = append(t.rows, cells)
	}
	t.stats.Table = name
	t.stats.Rows = len(t.rows)
	return t
}

// ordering sorts rows in place, keeping ties stable.
type ordering func(rows []row)

// byTime orders by a timestamp column, rows without one last.
func byTime(column string) ordering {
	return func(rows []row) {
		type keyed struct {
			row
			t *time.Time
		}
		keys := make([]keyed, len(rows))
		for i, r := range rows {
			t, _ := field(r.entity, column).(*time.Time)
			keys[i] = keyed{r, t}
		}
		sort.SliceStable(keys, func(i, j int) bool {
			a, b := keys[i].t, keys[j].t
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			}
			return a.Before(*b)
		})
		for i := range keys {
			rows[i] = keys[i].row
		}
	}
}

// byText orders lexicographically by the given string columns.
func byText(columns ...string) ordering {
	return func(rows []row) {
		keys := make([][]string, len(rows))
		for i, r := range rows {
			for _, column := range columns {
				keys[i] = append(keys[i], cell(field(r.entity, column)))
			}
		}
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool {
			a, b := keys[idx[i]], keys[idx[j]]
			for k := range a {
				if a[k] != b[k] {
					return a[k] < b[k]
				}
			}
			return false
		})
		sorted := make([]row, len(rows))
		for i, k := range idx {
			sorted[i] = rows[k]
		}
		copy(rows, sorted)
	}
}
