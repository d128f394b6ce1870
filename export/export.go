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

// Package export writes the outputs of an examination: custody copies of
// the raw artifacts, one CSV per normalized table, a workbook and a
// paginated PDF report. Every sink is independent, a failing sink never
// touches what the others wrote.
package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Output names below the export folder.
const (
	RawDir       = "raw"
	LegibleDir   = "legible"
	WorkbookFile = "resumen_forense.xlsx"
	ReportFile   = "resumen_forense.pdf"
	ManifestFile = "manifest.json"
	SummaryFile  = "export_report.json"
)

// DefaultMaxRows is the number of rows per table in the PDF report.
const DefaultMaxRows = 200

// ErrExport marks a failed sink.
var ErrExport = errors.New("export failure")

// Failure is the error of a failed sink.
type Failure struct {
	Sink string
	Err  error
}

func (f *Failure) Error() string { return f.Sink + ": " + f.Err.Error() }

// Unwrap returns the cause.
func (f *Failure) Unwrap() error { return f.Err }

// Is matches ErrExport.
func (f *Failure) Is(target error) bool { return target == ErrExport }

func fail(sink string, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Sink: sink, Err: err}
}

// Table is a read-only table with rendered cells.
type Table interface {
	Name() string
	Columns() []string
	Len() int
	Row(i int) []string
}

// SinkStatus is the outcome of one sink.
type SinkStatus string

// Sink states.
const (
	Written SinkStatus = "written"
	Failed  SinkStatus = "failed"
	Skipped SinkStatus = "skipped"
)

// SinkResult describes the outcome of one sink.
type SinkResult struct {
	Sink   string     `json:"sink"`
	Status SinkStatus `json:"status"`
	Paths  []string   `json:"paths,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// TableSummary lists the size of one exported table.
type TableSummary struct {
	Name    string `json:"name"`
	Sheet   string `json:"sheet,omitempty"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// Report is the outcome of an export run.
type Report struct {
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Sinks    []SinkResult   `json:"sinks"`
	Tables   []TableSummary `json:"tables"`
	Manifest *Manifest      `json:"manifest,omitempty"`
}

// Sink returns the result of the named sink or nil.
func (r *Report) Sink(name string) *SinkResult {
	for i := range r.Sinks {
		if r.Sinks[i].Sink == name {
			return &r.Sinks[i]
		}
	}
	return nil
}

// Exporter writes all outputs into one export folder.
type Exporter struct {
	dst      afero.Fs
	log      logrus.FieldLogger
	caseName string
	maxRows  int
	pdf      bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) { e.log = log }
}

// WithCase sets the case name shown in sheet descriptions.
func WithCase(name string) Option {
	return func(e *Exporter) { e.caseName = name }
}

// WithMaxRows sets the number of rows per table in the PDF report.
func WithMaxRows(rows int) Option {
	return func(e *Exporter) {
		if rows > 0 {
			e.maxRows = rows
		}
	}
}

// WithPDF enables or disables the PDF report.
func WithPDF(enabled bool) Option {
	return func(e *Exporter) { e.pdf = enabled }
}

// New creates an Exporter writing into dst, the export folder.
func New(dst afero.Fs, opts ...Option) *Exporter {
	e := &Exporter{dst: dst, log: logrus.StandardLogger(), maxRows: DefaultMaxRows, pdf: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes all sinks and writes the export report. The raw root is read
// through src.
func (e *Exporter) Run(ctx context.Context, src afero.Fs, tables []Table) (*Report, error) {
	report := &Report{Start: time.Now().UTC()}

	manifest, err := e.CopyRawArtifacts(ctx, src)
	report.Manifest = manifest
	var paths []string
	if manifest != nil {
		paths = append(paths, RawDir+"/"+ManifestFile)
	}
	report.Sinks = append(report.Sinks, e.sinkResult("raw", paths, err))
	if ctx.Err() != nil {
		return report, errors.Wrap(ctx.Err(), "export cancelled")
	}

	written, err := e.ExportTables(tables)
	report.Sinks = append(report.Sinks, e.sinkResult("csv", written, err))

	sheets, err := e.ExportWorkbook(tables)
	report.Sinks = append(report.Sinks, e.sinkResult("workbook", []string{WorkbookFile}, err))
	if err != nil {
		sheets = nil
	}

	if e.pdf {
		err = e.ExportPaginatedReport(tables)
		report.Sinks = append(report.Sinks, e.sinkResult("pdf", []string{ReportFile}, err))
	} else {
		e.log.Info("pdf report disabled")
		report.Sinks = append(report.Sinks, SinkResult{Sink: "pdf", Status: Skipped})
	}

	for i, table := range tables {
		summary := TableSummary{Name: table.Name(), Rows: table.Len(), Columns: len(table.Columns())}
		if i < len(sheets) {
			summary.Sheet = sheets[i].Sheet
		}
		report.Tables = append(report.Tables, summary)
	}

	report.End = time.Now().UTC()
	if err := writeAtomic(e.dst, SummaryFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}); err != nil {
		e.log.WithError(err).Warn("could not write export report")
	}
	return report, nil
}

func (e *Exporter) sinkResult(sink string, paths []string, err error) SinkResult {
	if err != nil {
		e.log.WithError(err).WithField("sink", sink).Warn("sink failed")
		return SinkResult{Sink: sink, Status: Failed, Paths: paths, Error: err.Error()}
	}
	e.log.WithField("sink", sink).Info("sink written")
	return SinkResult{Sink: sink, Status: Written, Paths: paths}
}
