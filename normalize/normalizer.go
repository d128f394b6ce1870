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

// Package normalize turns acquired raw artifacts into canonical tables.
// Every raw field is mapped to a canonical column through a declared alias
// list, numeric codes are labeled and rows are ordered by their dominant
// timestamp.
package normalize

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/Velocidex/ordereddict"
	"github.com/alitto/pond/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidcollector/parse"
)

// Tables is a set of normalized tables in canonical order.
type Tables []*Table

// Get returns the table with the given name or nil.
func (t Tables) Get(name string) *Table {
	for _, table := range t {
		if table.Name() == name {
			return table
		}
	}
	return nil
}

// Normalizer loads all canonical tables from a raw artifact root.
type Normalizer struct {
	fs      afero.Fs
	workers int
	log     logrus.FieldLogger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWorkers bounds the number of tables loaded in parallel.
func WithWorkers(workers int) Option {
	return func(n *Normalizer) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(n *Normalizer) { n.log = log }
}

// New creates a Normalizer reading from fs, which is rooted at the raw root.
func New(fs afero.Fs, opts ...Option) *Normalizer {
	n := &Normalizer{fs: fs, workers: runtime.NumCPU(), log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewFromRoot creates a Normalizer for a raw root on disk.
func NewFromRoot(root string, opts ...Option) *Normalizer {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), opts...)
}

// Load builds every canonical table. Missing sources produce empty tables.
// Each table is loaded by its own task, the result keeps the canonical order.
func (n *Normalizer) Load(ctx context.Context) (Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "normalization cancelled")
	}
	tables := make(Tables, len(definitions))

	pool := pond.NewPool(n.workers, pond.WithContext(ctx))
	for i, d := range definitions {
		pool.Submit(func() {
			tables[i] = n.load(d)
		})
	}
	pool.StopAndWait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "normalization cancelled")
	}
	return tables, nil
}

func (n *Normalizer) load(d definition) *Table {
	stats := Stats{Table: d.name}
	log := n.log.WithField("table", d.name)

	var rows []row
	for _, src := range d.sources {
		records, found, err := n.read(d.kind, src, &stats)
		if err != nil {
			log.WithError(err).Warn("could not read source")
			stats.addError(err)
		}
		if !found {
			continue
		}
		stats.Sources = append(stats.Sources, src.rel)
		for _, raw := range records {
			rows = append(rows, row{entity: d.build(newRecord(raw, &stats), src)})
		}
		if d.kind != csvAll {
			break
		}
	}
	if d.order != nil {
		d.order(rows)
	}

	table := newTable(d.name, d.proto, rows, stats)
	log = log.WithField("rows", table.Len())
	if err := table.stats.Err(); err != nil {
		log = log.WithField("gaps", err.Error())
	}
	log.Debug("table loaded")
	return table
}

// read returns the records of one source and whether the source exists.
func (n *Normalizer) read(kind sourceKind, src source, stats *Stats) ([]*ordereddict.Dict, bool, error) {
	f, err := n.fs.Open(src.rel)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "open %s", src.rel)
	}
	defer f.Close()

	if kind == rowDump {
		records, ps, err := parse.ParseRecords(f)
		stats.ParseFailures += ps.Failures
		if err != nil {
			return records, true, errors.Wrapf(err, "read %s", src.rel)
		}
		return records, true, nil
	}

	records, err := ReadCSV(f)
	if err != nil {
		stats.ParseFailures++
		return records, true, errors.Wrapf(err, "read %s", src.rel)
	}
	return records, true, nil
}

// ReadCSV reads a CSV with a header line into ordered records. A leading
// UTF-8 BOM is ignored, short lines leave the trailing fields empty.
func ReadCSV(r io.Reader) ([]*ordereddict.Dict, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(parse.ErrParse, err.Error())
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var records []*ordereddict.Dict
	for {
		line, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, errors.Wrap(parse.ErrParse, err.Error())
		}
		record := ordereddict.NewDict()
		for i, key := range header {
			value := ""
			if i < len(line) {
				value = line[i]
			}
			record.Set(key, value)
		}
		records = append(records, record)
	}
}
