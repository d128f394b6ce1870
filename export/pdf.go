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
	"sort"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFontSize  = 8
	pdfRowHeight = 5
	pdfPadding   = 1
	maxCellRunes = 300
)

// ExportPaginatedReport writes a PDF with one section per table, limited to
// the configured number of rows. The header row repeats on every page.
func (e *Exporter) ExportPaginatedReport(tables []Table) error {
	sorted := append([]Table{}, tables...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()
	for _, table := range sorted {
		r.section(table, e.maxRows)
	}
	if err := pdf.Error(); err != nil {
		return fail("pdf", err)
	}

	if err := writeAtomic(e.dst, ReportFile, pdf.Output); err != nil {
		return fail("pdf", err)
	}
	e.log.WithField("tables", len(tables)).Info("pdf report written")
	return nil
}

type renderer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (r *renderer) bottom() float64 {
	_, height := r.pdf.GetPageSize()
	_, _, _, margin := r.pdf.GetMargins()
	if margin == 0 {
		margin = 10
	}
	return height - margin
}

func (r *renderer) width() float64 {
	width, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	return width - left - right
}

func (r *renderer) section(table Table, maxRows int) {
	name, description := SheetMeta(table.Name())
	header, rows := table.Columns(), records(table)
	if len(rows) == 0 {
		header, rows = []string{"INFO"}, [][]string{{"Sin registros."}}
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	// heading, description and at least the header and one row
	if r.pdf.GetY()+14+2*pdfRowHeight > r.bottom() {
		r.pdf.AddPage()
	}
	r.pdf.SetFont("Helvetica", "B", 12)
	r.pdf.CellFormat(0, 7, r.tr(fmt.Sprintf("Artefacto: %s (%s)", name, table.Name())), "", 1, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 9)
	r.pdf.CellFormat(0, 5, r.tr(description), "", 1, "L", false, 0, "")
	r.pdf.Ln(2)

	width := r.width() / float64(len(header))
	r.header(header, width)
	r.pdf.SetFont("Helvetica", "", pdfFontSize)
	for _, row := range rows {
		if r.pdf.GetY()+pdfRowHeight > r.bottom() {
			r.pdf.AddPage()
			r.header(header, width)
			r.pdf.SetFont("Helvetica", "", pdfFontSize)
		}
		for col := range header {
			r.pdf.CellFormat(width, pdfRowHeight, r.fit(cell(row, col), width), "1", 0, "L", false, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(6)
}

func (r *renderer) header(columns []string, width float64) {
	r.pdf.SetFont("Helvetica", "B", pdfFontSize)
	r.pdf.SetFillColor(211, 211, 211)
	for _, column := range columns {
		r.pdf.CellFormat(width, pdfRowHeight, r.fit(column, width), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
}

// fit translates s and shortens it until it fits into a cell of width w.
func (r *renderer) fit(s string, w float64) string {
	text := []rune(s)
	if len(text) > maxCellRunes {
		text = text[:maxCellRunes]
	}
	for i, c := range text {
		if c == '\n' || c == '\r' || c == '\t' {
			text[i] = ' '
		}
	}
	out := r.tr(string(text))
	limit := w - 2*pdfPadding
	if r.pdf.GetStringWidth(out) <= limit {
		return out
	}
	for len(text) > 0 {
		text = text[:len(text)-1]
		out = r.tr(string(text)) + "..."
		if r.pdf.GetStringWidth(out) <= limit {
			return out
		}
	}
	return ""
}
