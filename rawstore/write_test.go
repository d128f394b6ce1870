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

package rawstore

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteFile(t *testing.T) {
	store := memoryStore(t)

	file, err := store.WriteFile("apps/chrome/history.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "foo")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "apps/chrome/history.csv", file.ExportPath)
	assert.Equal(t, "history.csv", file.Name)
	assert.Equal(t, float64(3), file.Size)
	assert.Equal(t, map[string]interface{}{"MD5": fooMD5, "SHA-1": fooSHA1, "SHA-256": fooSHA256}, file.Hashes)

	b, err := afero.ReadFile(store.Fs(), "apps/chrome/history.csv")
	require.NoError(t, err)
	assert.Equal(t, "foo", string(b))

	_, err = store.RecordFile(file)
	require.NoError(t, err)
	flaws, err := store.Validate()
	require.NoError(t, err)
	assert.Empty(t, flaws)
}

func TestStore_WriteFileFails(t *testing.T) {
	store := memoryStore(t)
	require.NoError(t, afero.WriteFile(store.Fs(), "media_exif_inventory.csv", []byte("old"), 0644))

	_, err := store.WriteFile("media_exif_inventory.csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "half")
		return errors.New("broken")
	})
	require.Error(t, err)

	b, err := afero.ReadFile(store.Fs(), "media_exif_inventory.csv")
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))
	exists, err := afero.Exists(store.Fs(), "media_exif_inventory.csv.partial")
	require.NoError(t, err)
	assert.False(t, exists)
}
