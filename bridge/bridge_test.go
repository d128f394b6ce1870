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
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"plain", "/data/data/com.whatsapp/databases/msgstore.db", "/data/data/com.whatsapp/databases/msgstore.db"},
		{"empty", "", "''"},
		{"space", "/sdcard/My Photos", "'/sdcard/My Photos'"},
		{"quote", "it's", `'it'"'"'s'`},
		{"glob", "/data/*", "'/data/*'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.arg))
		})
	}
}

func TestPrivileged(t *testing.T) {
	got := Privileged([]string{"cat", "/data/system/packages.xml"})
	assert.Equal(t, []string{"su", "-c", "cat /data/system/packages.xml"}, got)

	got = Privileged([]string{"tar", "-cf", "-", "-C", "/data/misc/wifi", "."})
	assert.Equal(t, "tar -cf - -C /data/misc/wifi .", got[2])
}

func TestAdb_Execute(t *testing.T) {
	adb := NewAdb("echo", "serial1", time.Minute)
	result, err := adb.Execute(context.Background(), []string{"content", "query", "--uri", "content://sms/"})
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "-s serial1 shell content query --uri content://sms/\n", result.Stdout)

	adb = NewAdb("false", "", time.Minute)
	result, err = adb.Execute(context.Background(), []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.False(t, result.Success())
}

func TestAdb_ExecuteMissingBinary(t *testing.T) {
	adb := NewAdb("/nonexistent/adb", "", time.Minute)
	_, err := adb.Execute(context.Background(), []string{"id"})
	assert.Error(t, err)
}

func TestAdb_StreamOut(t *testing.T) {
	adb := NewAdb("echo", "", 0)
	stream, err := adb.StreamOut(context.Background(), []string{"cat", "/sdcard/a b.txt"})
	require.NoError(t, err)
	b, err := ioutil.ReadAll(stream)
	require.NoError(t, err)
	assert.NoError(t, stream.Close())
	assert.Equal(t, "exec-out cat '/sdcard/a b.txt'\n", string(b))

	adb = NewAdb("false", "", 0)
	stream, err = adb.StreamOut(context.Background(), []string{"cat", "/nope"})
	require.NoError(t, err)
	_, _ = ioutil.ReadAll(stream)
	err = stream.Close()
	assert.ErrorIs(t, err, ErrExitStatus)
}
