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

package acquisition

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidcollector/catalog"
	"github.com/forensicanalysis/androidcollector/config"
	"github.com/forensicanalysis/androidcollector/rawstore"
)

// Status is the final state of an artifact.
type Status string

const (
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Skipped   Status = "skipped"
)

// Result is the outcome of one artifact. It is created once and never
// changed afterwards.
type Result struct {
	ArtifactID  string           `json:"artifact_id"`
	Category    catalog.Category `json:"category"`
	Mode        catalog.Mode     `json:"mode"`
	Status      Status           `json:"status"`
	Source      string           `json:"source,omitempty"`
	LocalPath   string           `json:"local_path,omitempty"`
	RelPath     string           `json:"rel_path,omitempty"`
	ErrorKind   ErrorKind        `json:"error_kind,omitempty"`
	ErrorDetail string           `json:"error_detail,omitempty"`
	Bytes       int64            `json:"bytes"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Hashes      *Hashes          `json:"hashes,omitempty"`
}

// RootVerification is the outcome of the root check of a privileged run.
type RootVerification struct {
	Checked bool   `json:"checked"`
	IsRoot  bool   `json:"is_root"`
	Output  string `json:"output,omitempty"`
}

// Report is the result of an acquisition run. It lists every artifact of
// the catalog in acquisition order.
type Report struct {
	RunID   string           `json:"run_id"`
	Tier    config.Tier      `json:"tier"`
	Case    string           `json:"case,omitempty"`
	RawRoot string           `json:"raw_root"`
	Root    RootVerification `json:"root_verification"`
	Start   time.Time        `json:"start"`
	End     time.Time        `json:"end"`
	Results []Result         `json:"results"`
}

// Result returns the result of an artifact.
func (r *Report) Result(id string) (Result, bool) {
	for _, result := range r.Results {
		if result.ArtifactID == id {
			return result, true
		}
	}
	return Result{}, false
}

// Count returns the number of artifacts with the status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, result := range r.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}

// Bytes returns the number of bytes of all successful artifacts.
func (r *Report) Bytes() int64 {
	var n int64
	for _, result := range r.Results {
		if result.Status == Succeeded {
			n += result.Bytes
		}
	}
	return n
}

// Save writes the report as acquisition_report.json into fs.
func (r *Report) Save(fs afero.Fs) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	tmp := rawstore.ReportFile + partialSuffix
	if err := afero.WriteFile(fs, tmp, b, 0640); err != nil {
		return errors.Wrap(err, "could not write report")
	}
	return fs.Rename(tmp, rawstore.ReportFile)
}

// LoadReport reads acquisition_report.json from fs.
func LoadReport(fs afero.Fs) (*Report, error) {
	b, err := afero.ReadFile(fs, rawstore.ReportFile)
	if err != nil {
		return nil, errors.Wrap(err, "could not read report")
	}
	report := &Report{}
	if err := json.Unmarshal(b, report); err != nil {
		return nil, errors.Wrap(err, "could not decode report")
	}
	return report, nil
}
