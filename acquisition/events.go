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
	"github.com/forensicanalysis/androidcollector/catalog"
)

// State is a step in the life cycle of an artifact:
// Pending, Resolving, Transferring and one of Succeeded, Failed or Skipped.
type State string

const (
	StatePending      State = "pending"
	StateResolving    State = "resolving"
	StateTransferring State = "transferring"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateSkipped      State = "skipped"
)

// ProgressEvent is published on every state transition of an artifact.
type ProgressEvent struct {
	ArtifactID string
	Category   catalog.Category
	State      State
	Source     string
	Bytes      int64
	Err        error
}

// Final reports whether the event ends the life cycle of its artifact.
func (e ProgressEvent) Final() bool {
	return e.State == StateSucceeded || e.State == StateFailed || e.State == StateSkipped
}
