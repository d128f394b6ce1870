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

package bridge

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Adb is a CommandBridge that shells out to the adb executable.
type Adb struct {
	Path    string
	Serial  string
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// NewAdb creates an adb bridge for the device with the given serial. An empty
// serial lets adb pick the only connected device.
func NewAdb(path, serial string, timeout time.Duration) *Adb {
	if path == "" {
		path = "adb"
	}
	return &Adb{Path: path, Serial: serial, Timeout: timeout, Log: logrus.StandardLogger()}
}

func (a *Adb) args(sub string, argv []string) []string {
	var args []string
	if a.Serial != "" {
		args = append(args, "-s", a.Serial)
	}
	return append(args, sub, Join(argv))
}

// Execute runs argv through "adb shell".
func (a *Adb) Execute(ctx context.Context, argv []string) (*ExecResult, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.Path, a.args("shell", argv)...) // #nosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.Log.WithField("argv", strings.Join(argv, " ")).Debug("adb shell")
	err := cmd.Run()
	result := &ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "adb shell %s", Join(argv))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, errors.Wrap(err, "could not run adb")
	}
	return result, nil
}

// StreamOut runs argv through "adb exec-out" which passes stdout through
// without any line ending translation.
func (a *Adb) StreamOut(ctx context.Context, argv []string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, a.Path, a.args("exec-out", argv)...) // #nosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	s := &stream{cmd: cmd, stdout: stdout, argv: argv, ctx: ctx}
	cmd.Stderr = &s.stderr

	a.Log.WithField("argv", strings.Join(argv, " ")).Debug("adb exec-out")
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "could not run adb")
	}
	return s, nil
}

type stream struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	argv   []string
	eof    bool
	once   sync.Once
	err    error
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

func (s *stream) Close() error {
	s.once.Do(func() {
		if !s.eof && s.cmd.Process != nil {
			// the reader gave up early, the process would block on a full pipe
			_ = s.cmd.Process.Kill()
		}
		err := s.cmd.Wait()
		switch {
		case s.ctx.Err() != nil:
			s.err = errors.Wrapf(s.ctx.Err(), "adb exec-out %s", Join(s.argv))
		case err != nil:
			msg := strings.TrimSpace(s.stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			s.err = errors.Wrapf(ErrExitStatus, "%s: %s", Join(s.argv), msg)
		}
	})
	return s.err
}
