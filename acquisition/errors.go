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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/catalog"
)

var (
	// ErrResolution classifies artifacts without a reachable candidate.
	ErrResolution = errors.New("resolution failure")
	// ErrNoCandidate is returned when every candidate has been probed
	// without success.
	ErrNoCandidate = errors.New("no reachable candidate")
	// ErrTransfer classifies failed or incomplete streams.
	ErrTransfer = errors.New("transfer failure")
	// ErrCancelled marks artifacts that were not acquired because the run
	// was cancelled.
	ErrCancelled = errors.New("acquisition cancelled")
	// ErrCatalog is returned by Run for misconfiguration detected before
	// anything was transferred.
	ErrCatalog = catalog.ErrMisconfigured
)

// ProbeAttempt is the outcome of probing one candidate.
type ProbeAttempt struct {
	Candidate string
	Reachable bool
	Err       error
}

func (a ProbeAttempt) String() string {
	switch {
	case a.Err != nil:
		return fmt.Sprintf("%s: %s", a.Candidate, a.Err)
	case a.Reachable:
		return a.Candidate + ": reachable"
	default:
		return a.Candidate + ": not reachable"
	}
}

// ResolutionFailure lists the probed candidates of an artifact without a
// reachable source.
type ResolutionFailure struct {
	Attempts []ProbeAttempt
}

func (f *ResolutionFailure) Error() string {
	if len(f.Attempts) == 0 {
		return ErrNoCandidate.Error() + ": no candidates"
	}
	var attempts []string
	for _, attempt := range f.Attempts {
		attempts = append(attempts, attempt.String())
	}
	return fmt.Sprintf("%s (%s)", ErrNoCandidate, strings.Join(attempts, "; "))
}

func (f *ResolutionFailure) Unwrap() error { return ErrNoCandidate }

func (f *ResolutionFailure) Is(target error) bool { return target == ErrResolution }

// TransferFailure describes a failed stream. Bytes is the number of bytes
// received before the failure, the partial file has been removed.
type TransferFailure struct {
	Source string
	Dest   string
	Bytes  int64
	Err    error
}

func (f *TransferFailure) Error() string {
	return fmt.Sprintf("transfer of %s to %s failed after %d bytes: %s", f.Source, f.Dest, f.Bytes, f.Err)
}

func (f *TransferFailure) Unwrap() error { return f.Err }

func (f *TransferFailure) Is(target error) bool { return target == ErrTransfer }

// ErrorKind classifies the error of a failed or skipped artifact.
type ErrorKind string

const (
	KindResolution  ErrorKind = "resolution"
	KindTransfer    ErrorKind = "transfer"
	KindCancelled   ErrorKind = "cancelled"
	KindDisabled    ErrorKind = "disabled"
	KindUnconfirmed ErrorKind = "unconfirmed"
)

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrResolution):
		return KindResolution
	default:
		return KindTransfer
	}
}
