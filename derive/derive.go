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

// Package derive builds readable CSV artifacts from acquired app databases
// and media. Every output is written into the raw store and recorded in the
// custody index next to the artifacts it was derived from.
package derive

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/forensicanalysis/androidcollector/rawstore"
)

// Inputs and outputs relative to the raw root.
const (
	MsgstoreDB          = "apps/whatsapp/msgstore.db"
	ContactsDB          = "apps/whatsapp/wa.db"
	ChromeHistoryDB     = "databases/chrome_History"
	WhatsAppMessagesCSV = "apps/whatsapp/whatsapp_messages.csv"
	WhatsAppContactsCSV = "apps/whatsapp/whatsapp_contacts.csv"
	ChromeHistoryCSV    = "apps/chrome/history.csv"
	ExifInventoryCSV    = "media_exif_inventory.csv"
)

var (
	// ErrNoInput is returned when the input of a derivation was not acquired.
	ErrNoInput = errors.New("input not acquired")
	// ErrSchema is returned for databases without the expected tables.
	ErrSchema = errors.New("unexpected database schema")
)

// Result is the outcome of one derivation.
type Result struct {
	Name    string `json:"name"`
	Output  string `json:"output,omitempty"`
	Rows    int    `json:"rows"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Deriver runs the derivations on a raw store.
type Deriver struct {
	store        *rawstore.Store
	log          logrus.FieldLogger
	maxImageSize int64
	exif         bool
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Deriver) { d.log = log }
}

// WithMaxImageSize sets the size above which images are not inspected.
func WithMaxImageSize(size int64) Option {
	return func(d *Deriver) { d.maxImageSize = size }
}

// WithoutExif disables the EXIF inventory.
func WithoutExif() Option {
	return func(d *Deriver) { d.exif = false }
}

// New creates a Deriver for store.
func New(store *rawstore.Store, opts ...Option) *Deriver {
	d := &Deriver{store: store, log: logrus.StandardLogger(), maxImageSize: 64 << 20, exif: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type derivation struct {
	name   string
	output string
	run    func(context.Context) (int, error)
}

// Run executes all derivations. A failing derivation is logged and reported,
// the others still run.
func (d *Deriver) Run(ctx context.Context) []Result {
	derivations := []derivation{
		{"whatsapp_messages", WhatsAppMessagesCSV, d.WhatsAppMessages},
		{"whatsapp_contacts", WhatsAppContactsCSV, d.WhatsAppContacts},
		{"chrome_history", ChromeHistoryCSV, d.ChromeHistory},
	}
	if d.exif {
		derivations = append(derivations, derivation{"exif_inventory", ExifInventoryCSV, d.ExifInventory})
	}

	var results []Result
	for _, derivation := range derivations {
		if ctx.Err() != nil {
			break
		}
		log := d.log.WithField("derivation", derivation.name)
		result := Result{Name: derivation.name}
		rows, err := derivation.run(ctx)
		switch {
		case errors.Is(err, ErrNoInput):
			result.Skipped = true
			log.Debug("skipped, no input")
		case err != nil:
			result.Error = err.Error()
			log.WithError(err).Warn("derivation failed")
		default:
			result.Output = derivation.output
			result.Rows = rows
			log.WithField("rows", rows).Info("derived")
		}
		results = append(results, result)
	}
	return results
}

// writeCSV writes header and rows to rel and records the file.
func (d *Deriver) writeCSV(rel, name string, inputs []string, header []string, rows [][]string) error {
	file, err := d.store.WriteFile(rel, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		return cw.WriteAll(rows)
	})
	if err != nil {
		return err
	}

	file.Artifact = name
	derivedFrom := make([]interface{}, len(inputs))
	for i, input := range inputs {
		derivedFrom[i] = input
	}
	file.Origin = map[string]interface{}{"derivation": name, "derived_from": derivedFrom}
	if _, err := d.store.RecordFile(file); err != nil {
		return errors.Wrap(err, "record derived file")
	}
	return nil
}
