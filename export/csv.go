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
	"encoding/csv"
	"io"
	"path"
	"sort"
	"strconv"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExportTables writes one BOM-prefixed CSV per table into the legible folder
// and returns the written paths.
func (e *Exporter) ExportTables(tables []Table) ([]string, error) {
	var written []string
	for _, table := range tables {
		paths, err := e.exportTable(table)
		written = append(written, paths...)
		if err != nil {
			return written, fail("csv", err)
		}
	}
	return written, nil
}

type summarizer func(Table) ([]string, [][]string)

func (e *Exporter) exportTable(table Table) ([]string, error) {
	switch table.Name() {
	case "sms":
		return e.writeTable(table, "sms_legible.csv", "sms_resumen_por_numero.csv", smsSummary)
	case "llamadas":
		return e.writeTable(table, "llamadas_legible.csv", "llamadas_resumen_por_numero.csv", callSummary)
	default:
		return e.writeTable(table, table.Name()+".csv", "", nil)
	}
}

func (e *Exporter) writeTable(table Table, name, summaryName string, summarize summarizer) ([]string, error) {
	name = path.Join(LegibleDir, name)
	if err := writeCSV(e.dst, name, table.Columns(), records(table)); err != nil {
		return nil, err
	}
	e.log.WithField("file", name).Debug("table written")
	if summarize == nil {
		return []string{name}, nil
	}

	summaryName = path.Join(LegibleDir, summaryName)
	header, rows := summarize(table)
	if err := writeCSV(e.dst, summaryName, header, rows); err != nil {
		return []string{name}, err
	}
	return []string{name, summaryName}, nil
}

func writeCSV(fs afero.Fs, name string, header []string, rows [][]string) error {
	return writeAtomic(fs, name, func(w io.Writer) error {
		bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		cw := csv.NewWriter(bw)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return bw.Close()
	})
}

func records(table Table) [][]string {
	rows := make([][]string, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		rows = append(rows, table.Row(i))
	}
	return rows
}

func columnIndex(table Table, column string) int {
	for i, c := range table.Columns() {
		if c == column {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func smsSummary(table Table) ([]string, [][]string) {
	number := columnIndex(table, "numero")
	counts := map[string]int{}
	for i := 0; i < table.Len(); i++ {
		counts[cell(table.Row(i), number)]++
	}

	var rows [][]string
	for _, n := range sortedKeys(counts) {
		rows = append(rows, []string{n, strconv.Itoa(counts[n])})
	}
	return []string{"numero", "total_mensajes"}, rows
}

func callSummary(table Table) ([]string, [][]string) {
	number := columnIndex(table, "numero")
	duration := columnIndex(table, "duracion_seg")
	counts := map[string]int{}
	durations := map[string]int64{}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		n := cell(row, number)
		counts[n]++
		if d, err := strconv.ParseInt(cell(row, duration), 10, 64); err == nil {
			durations[n] += d
		}
	}

	var rows [][]string
	for _, n := range sortedKeys(counts) {
		rows = append(rows, []string{n, strconv.Itoa(counts[n]), strconv.FormatInt(durations[n], 10)})
	}
	return []string{"numero", "total_llamadas", "duracion_total_seg"}, rows
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
