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

// Package bridgetest provides a scripted in-memory CommandBridge for tests.
package bridgetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/bridge"
)

// Fake emulates a device. Files, directories and block devices are keyed by
// their remote path, queries by their command line.
type Fake struct {
	Files   map[string][]byte
	Dirs    map[string][]byte
	Blocks  map[string][]byte
	Queries map[string]string
	Root    bool

	// ProbeErrors makes probes of a path fail with a transport error.
	ProbeErrors map[string]error
	// FailAfter makes a stream of a path break after n bytes.
	FailAfter map[string]int

	mu          sync.Mutex
	calls       [][]string
	inFlight    int
	maxInFlight int
}

// New creates an empty fake device.
func New() *Fake {
	return &Fake{
		Files:       map[string][]byte{},
		Dirs:        map[string][]byte{},
		Blocks:      map[string][]byte{},
		Queries:     map[string]string{},
		ProbeErrors: map[string]error{},
		FailAfter:   map[string]int{},
	}
}

// Calls returns every command line the fake received.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []string
	for _, c := range f.calls {
		calls = append(calls, strings.Join(c, " "))
	}
	return calls
}

// MaxInFlight returns the highest number of concurrently open streams.
func (f *Fake) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *Fake) unwrap(argv []string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()
	if len(argv) == 3 && argv[0] == "su" && argv[1] == "-c" {
		return shlex.Split(argv[2])
	}
	return argv, nil
}

func (f *Fake) hasCommand(name string) bool {
	for query := range f.Queries {
		if strings.Fields(query)[0] == name {
			return true
		}
	}
	return false
}

// Execute implements bridge.CommandBridge.
func (f *Fake) Execute(ctx context.Context, argv []string) (*bridge.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	argv, err := f.unwrap(argv)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	status := func(ok bool) *bridge.ExecResult {
		if ok {
			return &bridge.ExecResult{}
		}
		return &bridge.ExecResult{ExitCode: 1}
	}

	switch {
	case argv[0] == "test" && len(argv) == 3:
		if err, ok := f.ProbeErrors[argv[2]]; ok {
			return nil, err
		}
		switch argv[1] {
		case "-r":
			_, ok := f.Files[argv[2]]
			return status(ok), nil
		case "-d":
			_, ok := f.Dirs[argv[2]]
			return status(ok), nil
		case "-b":
			_, ok := f.Blocks[argv[2]]
			return status(ok), nil
		}
	case argv[0] == "command" && len(argv) == 3:
		if err, ok := f.ProbeErrors[argv[2]]; ok {
			return nil, err
		}
		return status(f.hasCommand(argv[2])), nil
	case argv[0] == "id":
		if f.Root {
			return &bridge.ExecResult{Stdout: "uid=0(root) gid=0(root) groups=0(root)\n"}, nil
		}
		return &bridge.ExecResult{Stdout: "uid=2000(shell) gid=2000(shell)\n"}, nil
	}

	if out, ok := f.Queries[strings.Join(argv, " ")]; ok {
		return &bridge.ExecResult{Stdout: out}, nil
	}
	return &bridge.ExecResult{ExitCode: 127, Stderr: argv[0] + ": not found"}, nil
}

// StreamOut implements bridge.CommandBridge.
func (f *Fake) StreamOut(ctx context.Context, argv []string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	argv, err := f.unwrap(argv)
	if err != nil {
		return nil, err
	}

	var key string
	var data []byte
	var ok bool
	switch {
	case len(argv) == 2 && argv[0] == "cat":
		key = argv[1]
		data, ok = f.Files[key]
	case len(argv) == 6 && argv[0] == "tar":
		key = argv[4]
		data, ok = f.Dirs[key]
	case len(argv) >= 2 && argv[0] == "dd":
		key = strings.TrimPrefix(argv[1], "if=")
		data, ok = f.Blocks[key]
	default:
		key = strings.Join(argv, " ")
		var out string
		out, ok = f.Queries[key]
		data = []byte(out)
	}

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	s := &stream{fake: f, ctx: ctx, failAfter: -1}
	if !ok {
		s.exitErr = errors.Wrapf(bridge.ErrExitStatus, "%s: No such file or directory", key)
		return s, nil
	}
	s.data = bytes.NewReader(data)
	if n, fail := f.FailAfter[key]; fail {
		s.failAfter = n
	}
	return s, nil
}

type stream struct {
	fake      *Fake
	ctx       context.Context
	data      *bytes.Reader
	read      int
	failAfter int
	exitErr   error
	closed    bool
}

func (s *stream) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	if s.data == nil {
		return 0, io.EOF
	}
	if s.failAfter >= 0 {
		if s.read >= s.failAfter {
			return 0, fmt.Errorf("connection reset after %d bytes", s.read)
		}
		if len(p) > s.failAfter-s.read {
			p = p[:s.failAfter-s.read]
		}
	}
	n, err := s.data.Read(p)
	s.read += n
	return n, err
}

func (s *stream) Close() error {
	if !s.closed {
		s.closed = true
		s.fake.mu.Lock()
		s.fake.inFlight--
		s.fake.mu.Unlock()
	}
	return s.exitErr
}
