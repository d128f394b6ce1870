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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const rawstoreVersion = 1
const applicationID = 1634624611
const discriminator = "type"

// ItemDB is the name of the custody index in the store root.
const ItemDB = "item.db"

// ReportFile is the name of the acquisition report in the store root.
const ReportFile = "acquisition_report.json"

var ErrStoreNotExists = errors.New("store does not exist")

// Layout lists the category folders of a raw store.
var Layout = []string{"logical", "system", "apps", "media", "images", "databases"}

// Store is the raw artifact store of one acquisition. Artifact files live in
// category folders below the root, their custody elements in item.db.
type Store struct {
	root   string
	fs     afero.Fs
	cursor *sqlite.Conn
	types  *typeMap
	mu     sync.Mutex
	log    logrus.FieldLogger
}

// New creates a raw store in root or reopens the one that already exists
// there.
func New(root string) (*Store, error) {
	if strings.ContainsRune(root, 0) || strings.TrimSpace(root) == "" {
		return nil, errors.Errorf("invalid store root %q", root)
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(root, ItemDB)
	_, err := os.Stat(dbPath)
	create := os.IsNotExist(err)
	if err != nil && !create {
		return nil, err
	}
	if create {
		logrus.WithField("root", root).Info("creating raw store")
	}
	return open(root, afero.NewBasePathFs(afero.NewOsFs(), root), dbPath, create)
}

// Open opens an existing raw store.
func Open(root string) (*Store, error) {
	dbPath := filepath.Join(root, ItemDB)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrStoreNotExists, root)
		}
		return nil, err
	}
	return open(root, afero.NewBasePathFs(afero.NewOsFs(), root), dbPath, false)
}

// NewMemory creates a store on an in-memory filesystem with an in-memory
// custody index.
func NewMemory() (*Store, error) {
	return open("", afero.NewBasePathFs(afero.NewMemMapFs(), "/"), ":memory:", true)
}

// format identifies item.db files written by this package.
var format = []struct {
	pragma string
	value  int64
}{
	{"application_id", applicationID},
	{"user_version", rawstoreVersion},
}

const elementsTable = "CREATE VIRTUAL TABLE `elements` " +
	"USING fts5(id UNINDEXED, json, insert_time UNINDEXED, tokenize=\"unicode61 tokenchars '/.'\")"

func open(root string, fs afero.Fs, dbURL string, create bool) (*Store, error) {
	conn, err := sqlite.OpenConn(dbURL, 0)
	if err != nil {
		return nil, err
	}
	store := &Store{root: root, fs: fs, cursor: conn, types: newTypeMap(), log: logrus.StandardLogger()}
	if create {
		err = store.initialize()
		for _, dir := range Layout {
			if err == nil {
				err = fs.MkdirAll(dir, 0750)
			}
		}
	} else {
		err = store.checkFormat()
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	setupSchemaValidation()
	return store, nil
}

func (store *Store) initialize() error {
	for _, f := range format {
		if err := sqlitex.ExecTransient(store.cursor, fmt.Sprintf("PRAGMA %s = %d", f.pragma, f.value), nil); err != nil {
			return errors.Wrapf(err, "could not set %s", f.pragma)
		}
	}
	return sqlitex.ExecTransient(store.cursor, elementsTable, nil)
}

func (store *Store) checkFormat() error {
	for _, f := range format {
		var value int64
		err := sqlitex.ExecTransient(store.cursor, "PRAGMA "+f.pragma, func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnInt64(0)
			return nil
		})
		if err != nil {
			return err
		}
		if value != f.value {
			return errors.Errorf("wrong file format (%s is %d, requires %d)", f.pragma, value, f.value)
		}
	}
	return nil
}

// SetLogger replaces the logger of the store.
func (store *Store) SetLogger(log logrus.FieldLogger) {
	store.log = log
}

// Root returns the directory of the store, empty for in-memory stores.
func (store *Store) Root() string {
	return store.root
}

// Fs returns the filesystem rooted at the store root. All artifact paths are
// slash separated and relative to it.
func (store *Store) Fs() afero.Fs {
	return store.fs
}

// Path returns the local path of a store relative path.
func (store *Store) Path(rel string) string {
	return filepath.Join(store.root, filepath.FromSlash(rel))
}

// Exists reports whether a non-empty file exists at rel.
func (store *Store) Exists(rel string) bool {
	info, err := store.fs.Stat(rel)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// LoadFile opens a file from the store.
func (store *Store) LoadFile(rel string) (io.ReadCloser, error) {
	return store.fs.Open(rel)
}

// Insert adds a single element.
func (store *Store) Insert(element JSONElement) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.insert(element)
}

// insert validates element, assigns an id if it has none and stores it.
func (store *Store) insert(element JSONElement) (string, error) {
	flaws, err := validateSchema(element)
	if err != nil {
		return "", errors.Wrap(err, "validation failed")
	}
	if len(flaws) > 0 {
		return "", errors.Errorf("element could not be validated [%s]", strings.Join(flaws, ","))
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(element, &fields); err != nil {
		return "", err
	}
	flat := flatten("", fields)
	elementType, ok := flat[discriminator].(string)
	if !ok {
		return "", errors.New("element requires type")
	}
	id, ok := flat["id"].(string)
	if !ok {
		id = elementType + "--" + uuid.New().String()
		fields["id"] = id
		if element, err = json.Marshal(fields); err != nil {
			return "", err
		}
	}
	store.types.addAll(elementType, flat)

	err = sqlitex.Exec(store.cursor, "INSERT INTO `elements` (id, json, insert_time) VALUES (?, ?, ?)", nil,
		id, string(element), time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return "", errors.Wrapf(err, "could not insert %s", id)
	}
	return id, nil
}

// InsertStruct converts a Go struct to a map and inserts it.
func (store *Store) InsertStruct(element interface{}) (string, error) {
	b, err := structJSON(element)
	if err != nil {
		return "", err
	}
	return store.Insert(b)
}

// RecordFile inserts a file element and replaces elements of earlier runs
// that point to the same export path.
func (store *Store) RecordFile(file *File) (string, error) {
	b, err := structJSON(file)
	if err != nil {
		return "", err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if file.ExportPath != "" {
		err := sqlitex.Exec(store.cursor, "DELETE FROM `elements` WHERE json_extract(json, '$.export_path') = $path "+
			"OR json_extract(json, '$.stdout_path') = $path", nil, file.ExportPath)
		if err != nil {
			return "", errors.Wrap(err, "could not remove previous elements")
		}
	}
	return store.insert(b)
}

func structJSON(element interface{}) (JSONElement, error) {
	m := structs.Map(element)
	m = lower(m).(map[string]interface{})
	return json.Marshal(m)
}

// Get retrieves a single element.
func (store *Store) Get(id string) (JSONElement, error) {
	elements, err := store.elements("WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, errors.Errorf("element %s does not exist", id)
	}
	return elements[0], nil
}

// All returns every element.
func (store *Store) All() ([]JSONElement, error) {
	return store.elements("")
}

// Where returns the elements whose flattened fields equal all given values,
// e.g. {"type": "file", "export_path": "logical/sms.txt"}.
func (store *Store) Where(conditions map[string]string) ([]JSONElement, error) {
	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var clauses []string
	var args []interface{}
	for _, key := range keys {
		clauses = append(clauses, fmt.Sprintf("json_extract(json, '%s') = ?", jsonPath(key)))
		args = append(args, conditions[key])
	}
	if len(clauses) == 0 {
		return store.All()
	}
	return store.elements("WHERE "+strings.Join(clauses, " AND "), args...)
}

func (store *Store) elements(where string, args ...interface{}) ([]JSONElement, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	elements := []JSONElement{}
	err := sqlitex.Exec(store.cursor, "SELECT json FROM `elements` "+where, func(stmt *sqlite.Stmt) error {
		elements = append(elements, JSONElement(stmt.ColumnText(0)))
		return nil
	}, args...)
	return elements, err
}

// Close creates one view per element type and closes the custody index.
func (store *Store) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.types.changed {
		if err := store.createViews(); err != nil {
			store.log.WithError(err).Warn("could not create element views")
		}
	}
	return store.cursor.Close()
}

// createViews adds a view per element type with one column per field, e.g.
// SELECT export_path, "hashes.SHA-256" FROM file.
func (store *Store) createViews() error {
	for typeName, fields := range store.types.all() {
		columns := make([]string, 0, len(fields))
		for field := range fields {
			columns = append(columns, fmt.Sprintf("json_extract(json, '%s') AS '%s'", jsonPath(field), field))
		}
		sort.Strings(columns)

		script := fmt.Sprintf("DROP VIEW IF EXISTS '%[1]s';\n"+
			"CREATE VIEW '%[1]s' AS SELECT %[2]s FROM elements WHERE json_extract(json, '$.%[3]s') = '%[1]s';",
			typeName, strings.Join(columns, ", "), discriminator)
		if err := sqlitex.ExecScript(store.cursor, script); err != nil {
			return errors.Wrapf(err, "could not create view %s", typeName)
		}
	}
	return nil
}

// jsonPath converts a flattened key like hashes.SHA-256 into a quoted sqlite
// json path.
func jsonPath(key string) string {
	var parts []string
	for _, part := range strings.Split(key, ".") {
		parts = append(parts, `"`+strings.ReplaceAll(part, `'`, `''`)+`"`)
	}
	return "$." + strings.Join(parts, ".")
}
