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

// Package bridge provides the command channel to an Android device. A
// CommandBridge executes short remote commands and streams the stdout of long
// running ones back to the caller.
package bridge

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrExitStatus is returned by a stream's Close when the remote command exited
// with a non-zero status.
var ErrExitStatus = errors.New("non-zero exit status")

// ExecResult holds the outcome of a short remote command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status 0.
func (r *ExecResult) Success() bool {
	return r != nil && r.ExitCode == 0
}

// CommandBridge is the transport to the device. Calls are blocking and a
// single bridge must not be used for more than one stream at a time.
type CommandBridge interface {
	// Execute runs argv on the device and returns its exit code and output.
	// The error is only set if the command could not be run at all.
	Execute(ctx context.Context, argv []string) (*ExecResult, error)
	// StreamOut runs argv on the device and returns its raw stdout. Close
	// returns an error wrapping ErrExitStatus on a non-zero exit.
	StreamOut(ctx context.Context, argv []string) (io.ReadCloser, error)
}

var safeShellWord = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// Quote returns a shell-escaped version of s.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if safeShellWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// Join quotes every element of argv and joins them into one command line.
func Join(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Privileged wraps argv so it runs as root via su.
func Privileged(argv []string) []string {
	return []string{"su", "-c", Join(argv)}
}
