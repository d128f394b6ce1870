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

// Package sqlar stores files in an SQLite archive, the sqlar table format
// that the sqlite3 command line tool reads and writes with -A. Contents are
// zlib compressed unless compression does not reduce their size.
package sqlar

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const table = `CREATE TABLE IF NOT EXISTS sqlar(
  name TEXT PRIMARY KEY,  -- name of the file
  mode INT,               -- access permissions
  mtime INT,              -- last modification time
  sz INT,                 -- original file size
  data BLOB               -- compressed content
);`

const columns = "rowid, name, mode, mtime, sz, ifnull(length(data), 0), data IS NULL"

// Unix file type bits as stored in the mode column.
const (
	modeType = 0o170000
	modeDir  = 0o040000
	modeFile = 0o100000
)

// MaxBlobSize is the largest content SQLite stores in a single blob.
const MaxBlobSize = 1000000000

// DefaultSpoolSize is the number of bytes buffered in memory per written file.
const DefaultSpoolSize = 8 << 20

var (
	// ErrNotImplemented is returned by unsupported file operations.
	ErrNotImplemented = errors.New("not implemented")
	// ErrTooLarge is returned when a file exceeds MaxBlobSize.
	ErrTooLarge = errors.New("file too large for archive")
)

var _ afero.Fs = (*FS)(nil)

// FS is an afero.Fs backed by the sqlar table of an SQLite database.
type FS struct {
	mu        sync.Mutex
	cursor    *sqlite.Conn
	log       logrus.FieldLogger
	spoolSize int64
	spoolDir  string
}

// Option configures an archive.
type Option func(*FS)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(fs *FS) { fs.log = log }
}

// WithSpool sets how many bytes of a written file are buffered in memory
// before they are spooled to a temporary file in dir.
func WithSpool(size int64, dir string) Option {
	return func(fs *FS) {
		fs.spoolSize = size
		fs.spoolDir = dir
	}
}

// New opens the archive at url and creates it if needed.
func New(url string, opts ...Option) (*FS, error) {
	fs := &FS{log: logrus.StandardLogger(), spoolSize: DefaultSpoolSize}
	for _, opt := range opts {
		opt(fs)
	}

	var err error
	fs.cursor, err = sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", url)
	}
	if err := fs.exec(table); err != nil {
		fs.cursor.Close()
		return nil, errors.Wrap(err, "create sqlar table")
	}
	return fs, nil
}

// Open opens an existing archive.
func Open(url string, opts ...Option) (*FS, error) {
	if _, err := os.Stat(url); err != nil {
		return nil, errors.Wrap(err, "archive does not exist")
	}
	return New(url, opts...)
}

// Name returns the name of the filesystem.
func (fs *FS) Name() string {
	return "sqlar"
}

// Close closes the database.
func (fs *FS) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Close()
}

type row struct {
	id     int64
	name   string
	mode   int64
	mtime  int64
	sz     int64
	stored int64
	null   bool
}

func scan(stmt *sqlite.Stmt) row {
	return row{
		id:     stmt.ColumnInt64(0),
		name:   stmt.ColumnText(1),
		mode:   stmt.ColumnInt64(2),
		mtime:  stmt.ColumnInt64(3),
		sz:     stmt.ColumnInt64(4),
		stored: stmt.ColumnInt64(5),
		null:   stmt.ColumnInt64(6) != 0,
	}
}

func (r row) dir() bool {
	return r.mode&modeType == modeDir || (r.mode&modeType == 0 && r.null)
}

func (r row) compressed() bool {
	return !r.dir() && r.sz != r.stored
}

func (r row) info() *Info {
	mode := os.FileMode(r.mode) & os.ModePerm
	if r.dir() {
		mode |= os.ModeDir
	}
	return &Info{name: path.Base(r.name), sz: r.sz, mode: mode, mtime: time.Unix(r.mtime, 0)}
}

func sqlarMode(perm os.FileMode, dir bool) int64 {
	if dir {
		return modeDir | int64(perm.Perm())
	}
	return modeFile | int64(perm.Perm())
}

func (fs *FS) exec(query string, args ...interface{}) error {
	stmt, err := fs.cursor.Prepare(query)
	if err != nil {
		return errors.Wrapf(err, "could not prepare statement %s", query)
	}
	bind(stmt, args...)
	if _, err := stmt.Step(); err != nil {
		_ = stmt.Reset()
		return err
	}
	if err := stmt.Reset(); err != nil {
		return err
	}
	return stmt.ClearBindings()
}

func bind(stmt *sqlite.Stmt, args ...interface{}) {
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			stmt.BindText(i+1, v)
		case int64:
			stmt.BindInt64(i+1, v)
		case int:
			stmt.BindInt64(i+1, int64(v))
		case nil:
			stmt.BindNull(i + 1)
		}
	}
}

// stat returns the row of name, nil if it does not exist.
func (fs *FS) stat(name string) (*row, error) {
	stmt, err := fs.cursor.Prepare("SELECT " + columns + " FROM sqlar WHERE name = ?")
	if err != nil {
		return nil, err
	}
	stmt.BindText(1, name)
	hasRow, err := stmt.Step()
	if err != nil {
		_ = stmt.Reset()
		return nil, err
	}
	if !hasRow {
		return nil, stmt.Reset()
	}
	r := scan(stmt)
	return &r, stmt.Reset()
}

// rows returns the rows below prefix ordered by name. An empty prefix
// selects the whole archive.
func (fs *FS) rows(prefix string) ([]row, error) {
	query := "SELECT " + columns + " FROM sqlar ORDER BY name"
	if prefix != "" {
		query = "SELECT " + columns + " FROM sqlar WHERE substr(name, 1, ?) = ? ORDER BY name"
	}
	stmt, err := fs.cursor.Prepare(query)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		prefix += "/"
		bind(stmt, utf8.RuneCountInString(prefix), prefix)
	}

	var rows []row
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			_ = stmt.Reset()
			return nil, err
		}
		if !hasRow {
			break
		}
		rows = append(rows, scan(stmt))
	}
	return rows, stmt.Finalize()
}

func (fs *FS) children(name string) ([]os.FileInfo, error) {
	rows, err := fs.rows(name)
	if err != nil {
		return nil, err
	}
	var children []os.FileInfo
	for _, r := range rows {
		rest := r.name
		if name != "" {
			rest = strings.TrimPrefix(r.name, name+"/")
		}
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		children = append(children, r.info())
	}
	return children, nil
}

// Chmod changes the permissions of name.
func (fs *FS) Chmod(name string, mode os.FileMode) error {
	name = normalizeFilename(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	r, err := fs.stat(name)
	if err != nil {
		return err
	}
	if r == nil {
		return &os.PathError{Op: "chmod", Path: name, Err: os.ErrNotExist}
	}
	return fs.exec("UPDATE sqlar SET mode = ? WHERE name = ?", sqlarMode(mode, r.dir()), name)
}

// Chown is a no-op, owners are not stored.
func (fs *FS) Chown(string, int, int) error {
	return nil
}

// Chtimes sets the modification time of name.
func (fs *FS) Chtimes(name string, _ time.Time, mtime time.Time) error {
	name = normalizeFilename(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.exec("UPDATE sqlar SET mtime = ? WHERE name = ?", mtime.Unix(), name)
}

// Create creates or truncates a file.
func (fs *FS) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Mkdir creates a directory.
func (fs *FS) Mkdir(name string, perm os.FileMode) error {
	name = normalizeFilename(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	r, err := fs.stat(name)
	if err != nil {
		return err
	}
	if r != nil || name == "" {
		return &os.PathError{Op: "mkdir", Path: name, Err: os.ErrExist}
	}
	return fs.mkdir(name, perm)
}

func (fs *FS) mkdir(name string, perm os.FileMode) error {
	return fs.exec("INSERT INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, 0, NULL)",
		name, sqlarMode(perm, true), time.Now().Unix())
}

// MkdirAll creates a directory and all missing parents.
func (fs *FS) MkdirAll(p string, perm os.FileMode) error {
	p = normalizeFilename(p)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.mkdirAll(p, perm)
}

func (fs *FS) mkdirAll(p string, perm os.FileMode) error {
	if p == "" {
		return nil
	}
	all := ""
	for _, part := range strings.Split(p, "/") {
		all = path.Join(all, part)
		r, err := fs.stat(all)
		if err != nil {
			return err
		}
		if r == nil {
			if err := fs.mkdir(all, perm); err != nil {
				return err
			}
			continue
		}
		if !r.dir() {
			return &os.PathError{Op: "mkdir", Path: all, Err: errors.New("not a directory")}
		}
	}
	return nil
}

// Open opens a file or directory for reading.
func (fs *FS) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name. Files opened for writing always receive new content,
// appending is not supported.
func (fs *FS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	name = normalizeFilename(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if flag&os.O_APPEND != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrNotImplemented}
	}

	if name == "" {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
		}
		children, err := fs.children(name)
		if err != nil {
			return nil, err
		}
		return newReadItem(fs, nil, name, rootInfo(), children)
	}

	r, err := fs.stat(name)
	if err != nil {
		return nil, err
	}

	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if r == nil && flag&os.O_CREATE == 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
		}
		if r != nil && r.dir() {
			return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
		}
		if dir := path.Dir(name); dir != "." {
			if err := fs.mkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		return newWriteItem(fs, name, perm), nil
	}

	if r == nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	var children []os.FileInfo
	if r.dir() {
		if children, err = fs.children(name); err != nil {
			return nil, err
		}
	}
	return newReadItem(fs, r, name, r.info(), children)
}

// store replaces the content of name.
func (fs *FS) store(name string, perm os.FileMode, size int64, data *storedData) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.exec("SAVEPOINT sqlar_store"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = fs.exec("ROLLBACK TO sqlar_store")
		}
		if releaseErr := fs.exec("RELEASE sqlar_store"); err == nil {
			err = releaseErr
		}
	}()

	if err := fs.exec("DELETE FROM sqlar WHERE name = ?", name); err != nil {
		return err
	}

	stmt, err := fs.cursor.Prepare("INSERT INTO sqlar (name, mode, mtime, sz, data) VALUES ($name, $mode, $mtime, $sz, $data)")
	if err != nil {
		return err
	}
	stmt.SetText("$name", name)
	stmt.SetInt64("$mode", sqlarMode(perm, false))
	stmt.SetInt64("$mtime", time.Now().Unix())
	stmt.SetInt64("$sz", size)
	stmt.SetZeroBlob("$data", data.size)
	if _, err := stmt.Step(); err != nil {
		_ = stmt.Reset()
		return err
	}
	if err := stmt.Reset(); err != nil {
		return err
	}

	blob, err := fs.cursor.OpenBlob("", "sqlar", "data", fs.cursor.LastInsertRowID(), true)
	if err != nil {
		return err
	}
	if _, err := io.Copy(blob, data.reader); err != nil {
		blob.Close()
		return err
	}
	return blob.Close()
}

// Remove removes a file or an empty directory.
func (fs *FS) Remove(name string) error {
	name = normalizeFilename(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	r, err := fs.stat(name)
	if err != nil {
		return err
	}
	if r == nil {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	if r.dir() {
		children, err := fs.children(name)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return &os.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
		}
	}
	return fs.exec("DELETE FROM sqlar WHERE name = ?", name)
}

// RemoveAll removes p and everything below it.
func (fs *FS) RemoveAll(p string) error {
	p = normalizeFilename(p)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if p == "" {
		return fs.exec("DELETE FROM sqlar")
	}
	prefix := p + "/"
	return fs.exec("DELETE FROM sqlar WHERE name = ? OR substr(name, 1, ?) = ?",
		p, utf8.RuneCountInString(prefix), prefix)
}

// Rename moves oldname and everything below it to newname.
func (fs *FS) Rename(oldname, newname string) error {
	oldname = normalizeFilename(oldname)
	newname = normalizeFilename(newname)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	r, err := fs.stat(oldname)
	if err != nil {
		return err
	}
	if r == nil {
		return &os.PathError{Op: "rename", Path: oldname, Err: os.ErrNotExist}
	}
	if err := fs.exec("DELETE FROM sqlar WHERE name = ?", newname); err != nil {
		return err
	}
	prefix := oldname + "/"
	return fs.exec("UPDATE sqlar SET name = ? || substr(name, ?) WHERE name = ? OR substr(name, 1, ?) = ?",
		newname, utf8.RuneCountInString(oldname)+1, oldname, utf8.RuneCountInString(prefix), prefix)
}

// Stat returns the file info of name.
func (fs *FS) Stat(name string) (os.FileInfo, error) {
	name = normalizeFilename(name)
	if name == "" {
		return rootInfo(), nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	r, err := fs.stat(name)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return r.info(), nil
}

// Info describes an archived file.
type Info struct {
	sz    int64
	mtime time.Time
	mode  os.FileMode
	name  string
}

func rootInfo() *Info {
	return &Info{name: "/", mode: os.ModeDir | 0755}
}

// Name returns the base name.
func (i *Info) Name() string { return i.name }

// Size returns the uncompressed size.
func (i *Info) Size() int64 { return i.sz }

// Mode returns the file mode bits.
func (i *Info) Mode() os.FileMode { return i.mode }

// ModTime returns the modification time.
func (i *Info) ModTime() time.Time { return i.mtime }

// IsDir reports whether the entry is a directory.
func (i *Info) IsDir() bool { return i.mode.IsDir() }

// Sys returns nil.
func (i *Info) Sys() interface{} { return nil }

func normalizeFilename(name string) string {
	name = path.Clean("/" + filepath.ToSlash(name))
	return strings.TrimPrefix(name, "/")
}
