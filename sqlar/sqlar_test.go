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

package sqlar

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyFS(t *testing.T, opts ...Option) *FS {
	t.Helper()
	fs, err := New(filepath.Join(t.TempDir(), "test.sqlar"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })

	require.NoError(t, afero.WriteFile(fs, "myfile1.txt", []byte(strings.Repeat("test", 1000)), 0644))
	require.NoError(t, fs.MkdirAll("dir/subdir", 0755))
	require.NoError(t, afero.WriteFile(fs, "dir/subdir/myfile2.txt", []byte("test2"), 0644))
	return fs
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(b) // nolint:gosec
	return b
}

func TestFS_Chmod(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		mode    os.FileMode
		wantDir bool
		wantErr bool
	}{
		{"file", "myfile1.txt", 0600, false, false},
		{"directory", "dir", 0700, true, false},
		{"missing", "missing.txt", 0600, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := dummyFS(t)

			err := fs.Chmod(tt.file, tt.mode)
			if tt.wantErr {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)

			info, err := fs.Stat(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, info.Mode().Perm())
			assert.Equal(t, tt.wantDir, info.IsDir())
		})
	}
}

func TestFS_Stat(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantName string
		wantSize int64
		wantDir  bool
		wantErr  bool
	}{
		{"file", "myfile1.txt", "myfile1.txt", 4000, false, false},
		{"leading slash", "/dir/subdir/myfile2.txt", "myfile2.txt", 5, false, false},
		{"directory", "dir/subdir", "subdir", 0, true, false},
		{"root", ".", "/", 0, true, false},
		{"missing", "dir/missing", "", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := dummyFS(t)

			info, err := fs.Stat(tt.file)
			if tt.wantErr {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, info.Name())
			assert.Equal(t, tt.wantSize, info.Size())
			assert.Equal(t, tt.wantDir, info.IsDir())
		})
	}
}

func TestFS_WriteRead(t *testing.T) {
	tests := []struct {
		name           string
		file           string
		data           []byte
		wantCompressed bool
	}{
		{"compressible", "logical/sms.txt", bytes.Repeat([]byte("Row: 0 body=hola\n"), 500), true},
		{"incompressible", "system/bugreport.zip", randomBytes(4096), false},
		{"empty", "empty.txt", []byte{}, false},
		{"unicode name", "media/fotos/año.txt", []byte("ñ"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := dummyFS(t)

			require.NoError(t, afero.WriteFile(fs, tt.file, tt.data, 0644))
			got, err := afero.ReadFile(fs, tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)

			entries, err := fs.List()
			require.NoError(t, err)
			var found bool
			for _, entry := range entries {
				if entry.Name == tt.file {
					found = true
					assert.Equal(t, int64(len(tt.data)), entry.Size)
					assert.Equal(t, tt.wantCompressed, entry.Compressed())
				}
			}
			assert.True(t, found)

			parent, err := fs.Stat(filepath.Dir(tt.file))
			require.NoError(t, err)
			assert.True(t, parent.IsDir())
		})
	}
}

func TestFS_Overwrite(t *testing.T) {
	fs := dummyFS(t)

	require.NoError(t, afero.WriteFile(fs, "myfile1.txt", []byte("short"), 0644))
	got, err := afero.ReadFile(fs, "myfile1.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestFS_Spool(t *testing.T) {
	fs := dummyFS(t, WithSpool(16, t.TempDir()))
	data := randomBytes(100 * 1024)

	require.NoError(t, afero.WriteFile(fs, "big.bin", data, 0644))
	got, err := afero.ReadFile(fs, "big.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFS_Readdir(t *testing.T) {
	fs := dummyFS(t)

	names, err := afero.ReadDir(fs, "/")
	require.NoError(t, err)
	var got []string
	for _, info := range names {
		got = append(got, info.Name())
	}
	assert.Equal(t, []string{"dir", "myfile1.txt"}, got)

	dir, err := fs.Open("dir/subdir")
	require.NoError(t, err)
	defer dir.Close()
	first, err := dir.Readdirnames(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"myfile2.txt"}, first)
	_, err = dir.Readdirnames(1)
	assert.Equal(t, io.EOF, err)

	file, err := fs.Open("myfile1.txt")
	require.NoError(t, err)
	defer file.Close()
	_, err = file.Readdir(-1)
	assert.Error(t, err)
}

func TestFS_Mkdir(t *testing.T) {
	fs := dummyFS(t)

	assert.True(t, os.IsExist(fs.Mkdir("dir", 0755)))
	require.NoError(t, fs.Mkdir("other", 0755))
	assert.Error(t, fs.MkdirAll("myfile1.txt/sub", 0755))
}

func TestFS_OpenFile(t *testing.T) {
	fs := dummyFS(t)

	_, err := fs.OpenFile("myfile1.txt", os.O_WRONLY|os.O_APPEND, 0644)
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = fs.OpenFile("missing.txt", os.O_WRONLY, 0644)
	assert.True(t, os.IsNotExist(err))

	_, err = fs.OpenFile("dir", os.O_WRONLY, 0644)
	assert.Error(t, err)
}

func TestFS_Remove(t *testing.T) {
	fs := dummyFS(t)

	assert.Error(t, fs.Remove("dir/subdir"), "directory not empty")
	require.NoError(t, fs.Remove("dir/subdir/myfile2.txt"))
	require.NoError(t, fs.Remove("dir/subdir"))
	assert.True(t, os.IsNotExist(fs.Remove("dir/subdir")))
}

func TestFS_RemoveAll(t *testing.T) {
	fs := dummyFS(t)
	require.NoError(t, afero.WriteFile(fs, "dir_keep/file.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "dirx", []byte("x"), 0644))

	require.NoError(t, fs.RemoveAll("dir"))

	for name, exists := range map[string]bool{
		"dir":                    false,
		"dir/subdir":             false,
		"dir/subdir/myfile2.txt": false,
		"dir_keep/file.txt":      true,
		"dirx":                   true,
		"myfile1.txt":            true,
	} {
		ok, err := afero.Exists(fs, name)
		require.NoError(t, err)
		assert.Equal(t, exists, ok, name)
	}
}

func TestFS_Rename(t *testing.T) {
	fs := dummyFS(t)

	require.NoError(t, fs.Rename("dir", "moved"))
	got, err := afero.ReadFile(fs, "moved/subdir/myfile2.txt")
	require.NoError(t, err)
	assert.Equal(t, "test2", string(got))
	ok, err := afero.Exists(fs, "dir/subdir/myfile2.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, "target.txt", []byte("old"), 0644))
	require.NoError(t, fs.Rename("myfile1.txt", "target.txt"))
	info, err := fs.Stat("target.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), info.Size())
}

func TestFS_Chtimes(t *testing.T) {
	fs := dummyFS(t)
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, fs.Chtimes("myfile1.txt", mtime, mtime))
	info, err := fs.Stat("myfile1.txt")
	require.NoError(t, err)
	assert.True(t, mtime.Equal(info.ModTime()))
}

func rawRoot(t *testing.T) (afero.Fs, map[string][]byte) {
	t.Helper()
	src := afero.NewMemMapFs()
	files := map[string][]byte{
		"logical/sms.txt":      bytes.Repeat([]byte("Row: 0 address=600, body=hola\n"), 100),
		"system/bugreport.zip": randomBytes(2048),
		"item.db":              []byte("SQLite format 3\x00"),
	}
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, data := range files {
		require.NoError(t, afero.WriteFile(src, name, data, 0640))
		require.NoError(t, src.Chtimes(name, mtime, mtime))
	}
	require.NoError(t, afero.WriteFile(src, "logical/contacts.txt.partial", []byte("x"), 0640))
	require.NoError(t, afero.WriteFile(src, "item.db-journal", []byte("x"), 0640))
	return src, files
}

func TestPackUnpack(t *testing.T) {
	src, files := rawRoot(t)
	archive, err := New(filepath.Join(t.TempDir(), "case.sqlar"))
	require.NoError(t, err)
	defer archive.Close()

	packed, err := archive.Pack(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, packed.Files)
	assert.Empty(t, packed.Skipped)

	entries, err := archive.List()
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"item.db", "logical", "logical/sms.txt", "system", "system/bugreport.zip"}, names)

	dst := afero.NewMemMapFs()
	unpacked, err := archive.Unpack(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, 3, unpacked.Files)
	assert.Equal(t, packed.Bytes, unpacked.Bytes)

	for name, data := range files {
		got, err := afero.ReadFile(dst, name)
		require.NoError(t, err)
		assert.Equal(t, data, got, name)

		info, err := dst.Stat(name)
		require.NoError(t, err)
		assert.Equal(t, int64(1714564800), info.ModTime().Unix(), name)
	}
	ok, err := afero.Exists(dst, "logical/contacts.txt.partial")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPack_Cancelled(t *testing.T) {
	src, _ := rawRoot(t)
	archive, err := New(filepath.Join(t.TempDir(), "case.sqlar"))
	require.NoError(t, err)
	defer archive.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = archive.Pack(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.sqlar"))
	assert.Error(t, err)
}
