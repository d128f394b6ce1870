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
	"context"

	"github.com/pkg/errors"
)

// Probe checks whether a candidate source is reachable. An error is treated
// the same as a negative result.
type Probe func(ctx context.Context, candidate string) (bool, error)

// Resolve returns the first reachable candidate. It returns a
// *ResolutionFailure if no candidate is reachable and an error wrapping
// ErrCancelled if ctx is done before a candidate was found.
func Resolve(ctx context.Context, candidates []string, probe Probe) (string, error) {
	failure := &ResolutionFailure{}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(ErrCancelled, err.Error())
		}
		reachable, err := probe(ctx, candidate)
		failure.Attempts = append(failure.Attempts, ProbeAttempt{Candidate: candidate, Reachable: reachable && err == nil, Err: err})
		if err == nil && reachable {
			return candidate, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(ErrCancelled, err.Error())
	}
	return "", failure
}
