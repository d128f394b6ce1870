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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedProbe(reachable map[string]bool, failing map[string]error) Probe {
	return func(ctx context.Context, candidate string) (bool, error) {
		if err, ok := failing[candidate]; ok {
			return false, err
		}
		return reachable[candidate], nil
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		reachable  map[string]bool
		failing    map[string]error
		want       string
		wantErr    bool
	}{
		{"first", []string{"/a", "/b"}, map[string]bool{"/a": true, "/b": true}, nil, "/a", false},
		{"second", []string{"/a", "/b"}, map[string]bool{"/b": true}, nil, "/b", false},
		{"probe error", []string{"/a", "/b"}, map[string]bool{"/a": true, "/b": true}, map[string]error{"/a": errors.New("device offline")}, "/b", false},
		{"none", []string{"/a", "/b"}, nil, map[string]error{"/b": errors.New("timeout")}, "", true},
		{"empty", nil, nil, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(context.Background(), tt.candidates, scriptedProbe(tt.reachable, tt.failing))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrResolution)
				assert.ErrorIs(t, err, ErrNoCandidate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Attempts(t *testing.T) {
	_, err := Resolve(context.Background(), []string{"/a", "/b"}, scriptedProbe(nil, map[string]error{"/b": errors.New("timeout")}))

	var failure *ResolutionFailure
	require.True(t, errors.As(err, &failure))
	require.Len(t, failure.Attempts, 2)
	assert.False(t, failure.Attempts[0].Reachable)
	assert.NoError(t, failure.Attempts[0].Err)
	assert.EqualError(t, failure.Attempts[1].Err, "timeout")
	assert.Equal(t, "no reachable candidate (/a: not reachable; /b: timeout)", err.Error())
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	probed := 0
	probe := func(ctx context.Context, candidate string) (bool, error) {
		probed++
		cancel()
		return false, nil
	}
	_, err := Resolve(ctx, []string{"/a", "/b"}, probe)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, probed)
}
