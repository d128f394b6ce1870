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
	"strconv"

	"github.com/pkg/errors"
)

// webkitEpochOffset is the distance between 1601-01-01 and 1970-01-01 in ms.
const webkitEpochOffset = 11644473600000

const historyQuery = `SELECT url, title, visit_count, last_visit_time FROM urls ORDER BY last_visit_time ASC`

var historyHeader = []string{"url", "title", "visit_count", "last_visit_time"}

// WebKitToUnixMillis converts microseconds since 1601 into unix
// milliseconds. Zero and unparsable values become "".
func WebKitToUnixMillis(raw string) string {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return ""
	}
	return strconv.FormatInt(v/1000-webkitEpochOffset, 10)
}

// ChromeHistory converts the Chrome History database into a history CSV
// with unix millisecond timestamps.
func (d *Deriver) ChromeHistory(ctx context.Context) (int, error) {
	conn, err := d.openEvidence(ctx, ChromeHistoryDB)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	names, err := tables(conn)
	if err != nil {
		return 0, err
	}
	if !names["urls"] {
		return 0, errors.Wrap(ErrSchema, "History has no urls table")
	}

	rows, err := query(conn, historyQuery)
	if err != nil {
		return 0, errors.Wrap(err, "read urls")
	}
	for _, row := range rows {
		row[3] = WebKitToUnixMillis(row[3])
	}
	return len(rows), d.writeCSV(ChromeHistoryCSV, "chrome_history", []string{ChromeHistoryDB}, historyHeader, rows)
}
