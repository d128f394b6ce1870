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
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SummarySheet is the name of the overview sheet.
const SummarySheet = "SUMMARY"

const (
	maxSheetName = 31
	headerRow    = 4
	widthSample  = 200
	maxWidth     = 60
	defaultSheet = "Sheet1"
)

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SheetSummary describes one data sheet of the workbook.
type SheetSummary struct {
	Table       string
	Sheet       string
	Rows        int
	Columns     int
	Description string
}

// ExportWorkbook writes all tables into one workbook, one sheet per table
// plus the SUMMARY sheet. The summaries follow the order of tables.
func (e *Exporter) ExportWorkbook(tables []Table) ([]SheetSummary, error) {
	order := make([]int, len(tables))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tables[order[a]].Name() < tables[order[b]].Name()
	})

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fail("workbook", err)
	}

	names := newSheetNames(SummarySheet)
	summaries := make([]SheetSummary, len(tables))
	for _, i := range order {
		summary, err := e.writeSheet(f, tables[i], names, bold)
		if err != nil {
			return nil, fail("workbook", errors.Wrapf(err, "sheet for %s", tables[i].Name()))
		}
		summaries[i] = summary
	}

	sorted := make([]SheetSummary, 0, len(order))
	for _, i := range order {
		sorted = append(sorted, summaries[i])
	}
	if err := writeSummarySheet(f, sorted, bold); err != nil {
		return nil, fail("workbook", errors.Wrap(err, "summary sheet"))
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, fail("workbook", err)
	}
	f.SetActiveSheet(0)

	if err := writeAtomic(e.dst, WorkbookFile, func(w io.Writer) error {
		return f.Write(w)
	}); err != nil {
		return nil, fail("workbook", err)
	}
	e.log.WithField("sheets", len(tables)+1).Info("workbook written")
	return summaries, nil
}

func (e *Exporter) writeSheet(f *excelize.File, table Table, names *sheetNames, bold int) (SheetSummary, error) {
	name, description := SheetMeta(table.Name())
	sheet := names.unique(name)
	summary := SheetSummary{
		Table:       table.Name(),
		Sheet:       sheet,
		Rows:        table.Len(),
		Columns:     len(table.Columns()),
		Description: description,
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return summary, err
	}
	if e.caseName != "" {
		description = fmt.Sprintf("Caso: %s | %s", e.caseName, description)
	}
	if err := f.SetCellValue(sheet, "A1", description); err != nil {
		return summary, err
	}

	header, rows := table.Columns(), records(table)
	if len(rows) == 0 {
		header, rows = []string{"INFO"}, [][]string{{"Sin registros."}}
	}
	if err := writeGrid(f, sheet, headerRow, header, rows, bold); err != nil {
		return summary, err
	}
	err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: "A" + strconv.Itoa(headerRow+1),
		ActivePane:  "bottomLeft",
	})
	return summary, err
}

func writeSummarySheet(f *excelize.File, summaries []SheetSummary, bold int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	header := []string{"Hoja", "Artefacto", "Filas", "Columnas", "Descripción"}
	var rows [][]string
	for _, s := range summaries {
		rows = append(rows, []string{s.Sheet, s.Table, strconv.Itoa(s.Rows), strconv.Itoa(s.Columns), s.Description})
	}
	if err := writeGrid(f, SummarySheet, 1, header, rows, bold); err != nil {
		return err
	}
	return f.SetPanes(SummarySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// writeGrid writes header and rows starting at row top and sizes the
// columns after the header and the first rows.
func writeGrid(f *excelize.File, sheet string, top int, header []string, rows [][]string, bold int) error {
	for i, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, top+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(header) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, top)
		last, _ := excelize.CoordinatesToCellName(len(header), top)
		if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
			return err
		}
	}

	for col, width := range columnWidths(header, rows) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(header []string, rows [][]string) []float64 {
	widths := make([]float64, len(header))
	for col, name := range header {
		longest := utf8.RuneCountInString(name)
		for i, row := range rows {
			if i == widthSample {
				break
			}
			if n := utf8.RuneCountInString(cell(row, col)); n > longest {
				longest = n
			}
		}
		width := longest + 2
		if width > maxWidth {
			width = maxWidth
		}
		widths[col] = float64(width)
	}
	return widths
}

// sheetNames hands out valid, case-insensitively unique sheet names.
type sheetNames struct {
	taken map[string]bool
}

func newSheetNames(reserved ...string) *sheetNames {
	names := &sheetNames{taken: map[string]bool{}}
	for _, name := range reserved {
		names.taken[strings.ToLower(name)] = true
	}
	return names
}

func (s *sheetNames) unique(name string) string {
	base := SanitizeSheetName(name)
	candidate := base
	for n := 2; s.taken[strings.ToLower(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	s.taken[strings.ToLower(candidate)] = true
	return candidate
}

// SanitizeSheetName replaces the characters a sheet name must not contain
// and truncates it to 31 characters.
func SanitizeSheetName(name string) string {
	name = truncateRunes(sheetNameReplacer.Replace(name), maxSheetName)
	if name == "" {
		return "_"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
