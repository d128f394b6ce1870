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

package derive

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
)

// openEvidence opens an acquired database without ever writing to it, not
// even to a journal.
func (d *Deriver) openEvidence(ctx context.Context, rel string) (*sqlite.Conn, error) {
	if !d.store.Exists(rel) {
		return nil, errors.Wrap(ErrNoInput, rel)
	}
	abs, err := filepath.Abs(d.store.Path(rel))
	if err != nil {
		return nil, err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro&immutable=1"}
	conn, err := sqlite.OpenConn(u.String(), sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_URI|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", rel)
	}
	conn.SetInterrupt(ctx.Done())
	return conn, nil
}

func tables(conn *sqlite.Conn) (map[string]bool, error) {
	rows, err := query(conn, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	names := map[string]bool{}
	for _, row := range rows {
		names[row[0]] = true
	}
	return names, nil
}

// query returns all rows of q as text, NULL becomes "".
func query(conn *sqlite.Conn, q string) (rows [][]string, err error) {
	stmt, _, err := conn.PrepareTransient(q)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	defer func() {
		if ferr := stmt.Finalize(); err == nil {
			err = ferr
		}
	}()

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errors.Wrap(err, "step")
		}
		if !hasRow {
			return rows, nil
		}
		row := make([]string, stmt.ColumnCount())
		for i := range row {
			row[i] = stmt.ColumnText(i)
		}
		rows = append(rows, row)
	}
}
