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

// Package androidcollector acquires forensic artifacts from Android devices
// over adb and turns them into legible exports.
//
// An acquisition resolves every artifact of the catalog for the configured
// tier against the device, streams it into a raw store and records it in the
// custody index item.db. Derivations then convert WhatsApp and Chrome
// databases to CSV and build an EXIF inventory of the collected media.
//
// The export pipeline parses the raw store into canonical tables and writes
// them as CSV files, a workbook and a PDF report next to byte identical
// custody copies of the raw text artifacts.
//
// # Raw layout
//
// An example raw store:
//
//	case/raw/
//	├── logical
//	│   ├── sms.txt
//	│   └── ...
//	├── system
//	├── apps
//	├── media
//	├── images
//	├── databases
//	├── acquisition_report.json
//	├── media_exif_inventory.csv
//	└── item.db
package androidcollector

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidcollector/acquisition"
	"github.com/forensicanalysis/androidcollector/bridge"
	"github.com/forensicanalysis/androidcollector/catalog"
	"github.com/forensicanalysis/androidcollector/config"
	"github.com/forensicanalysis/androidcollector/derive"
	"github.com/forensicanalysis/androidcollector/export"
	"github.com/forensicanalysis/androidcollector/normalize"
	"github.com/forensicanalysis/androidcollector/rawstore"
)

// ExportDir is the name of the default export folder next to the raw root.
const ExportDir = "export"

type options struct {
	log       logrus.FieldLogger
	events    chan<- acquisition.ProgressEvent
	confirm   acquisition.ConfirmFunc
	exportDir string
	caseName  string
	workers   int
	maxRows   int
	pdf       bool
}

// Option configures RunAcquisition and RunExportPipeline.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithEvents subscribes ch to the progress events of an acquisition.
func WithEvents(ch chan<- acquisition.ProgressEvent) Option {
	return func(o *options) { o.events = ch }
}

// WithConfirm sets the predicate asked before heavyweight captures when the
// configuration requires confirmation.
func WithConfirm(confirm acquisition.ConfirmFunc) Option {
	return func(o *options) { o.confirm = confirm }
}

// WithExportDir sets the export folder.
func WithExportDir(dir string) Option {
	return func(o *options) { o.exportDir = dir }
}

// WithCase sets the case name shown in the export.
func WithCase(name string) Option {
	return func(o *options) { o.caseName = name }
}

// WithWorkers sets the number of parallel table loaders.
func WithWorkers(workers int) Option {
	return func(o *options) { o.workers = workers }
}

// WithMaxRows sets the rows per table of the PDF report.
func WithMaxRows(rows int) Option {
	return func(o *options) { o.maxRows = rows }
}

// WithPDF enables or disables the PDF report.
func WithPDF(enabled bool) Option {
	return func(o *options) { o.pdf = enabled }
}

func newOptions(opts []Option) *options {
	o := &options{log: logrus.StandardLogger(), pdf: true, maxRows: export.DefaultMaxRows}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunAcquisition acquires all artifacts configured in cfg from the device
// behind b into the raw root and runs the derivations. Only a broken
// configuration or store returns an error, failing artifacts are part of
// the report.
func RunAcquisition(ctx context.Context, cfg config.Config, b bridge.CommandBridge, opts ...Option) (*acquisition.Report, error) {
	o := newOptions(opts)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(acquisition.ErrCatalog, err.Error())
	}
	root, err := cfg.RootPath()
	if err != nil {
		return nil, err
	}

	store, err := rawstore.New(root)
	if err != nil {
		return nil, errors.Wrap(err, "could not open raw store")
	}
	defer store.Close()
	store.SetLogger(o.log)

	c, err := catalog.Build(cfg)
	if err != nil {
		return nil, errors.Wrap(acquisition.ErrCatalog, err.Error())
	}
	if cfg.Artifacts.APKs {
		apks, err := catalog.PackageSpecs(ctx, b, true)
		if err != nil {
			o.log.WithError(err).Warn("could not enumerate packages, APKs are not collected")
		} else if c, err = c.Extend(apks...); err != nil {
			return nil, errors.Wrap(acquisition.ErrCatalog, err.Error())
		}
	}

	confirm := acquisition.ConfirmFunc(acquisition.ConfirmAll)
	if cfg.ConfirmHeavy {
		confirm = o.confirm
	}
	orchestrator := acquisition.NewOrchestrator(b, store, cfg.Tier,
		acquisition.WithLogger(o.log),
		acquisition.WithConfirm(confirm),
		acquisition.WithEvents(o.events),
		acquisition.WithBlockSize(cfg.BlockSize),
		acquisition.WithCase(cfg.Case),
	)
	report, err := orchestrator.Run(ctx, c)
	if err != nil {
		return nil, err
	}

	var deriveOpts []derive.Option
	deriveOpts = append(deriveOpts, derive.WithLogger(o.log))
	if !cfg.Artifacts.ExifInventory {
		deriveOpts = append(deriveOpts, derive.WithoutExif())
	}
	derive.New(store, deriveOpts...).Run(ctx)
	return report, nil
}

// RunExportPipeline normalizes the raw store at rawRoot and writes all
// exports. The export folder defaults to "export" next to rawRoot.
func RunExportPipeline(ctx context.Context, rawRoot string, opts ...Option) (*export.Report, error) {
	o := newOptions(opts)
	rawRoot, err := filepath.Abs(rawRoot)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(rawRoot); err != nil || !info.IsDir() {
		return nil, errors.Errorf("raw root %s is not a directory", rawRoot)
	}

	dest := o.exportDir
	if dest == "" {
		dest = filepath.Join(filepath.Dir(rawRoot), ExportDir)
	}
	if err := os.MkdirAll(dest, 0750); err != nil {
		return nil, errors.Wrap(err, "could not create export folder")
	}

	normalizer := normalize.NewFromRoot(rawRoot, normalize.WithLogger(o.log), normalize.WithWorkers(o.workers))
	tables, err := normalizer.Load(ctx)
	if err != nil {
		return nil, err
	}
	exportTables := make([]export.Table, len(tables))
	for i, table := range tables {
		exportTables[i] = table
	}

	exporter := export.New(afero.NewBasePathFs(afero.NewOsFs(), dest),
		export.WithLogger(o.log.WithField("export", dest)),
		export.WithCase(o.caseName),
		export.WithMaxRows(o.maxRows),
		export.WithPDF(o.pdf),
	)
	return exporter.Run(ctx, afero.NewBasePathFs(afero.NewOsFs(), rawRoot), exportTables)
}
