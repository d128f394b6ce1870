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

package parse

import (
	"regexp"
	"strconv"
	"time"
)

var digitRun = regexp.MustCompile(`\d{10,13}`)

// msThreshold separates epoch seconds from epoch milliseconds. Seconds above
// it (after the year 5138) are read as milliseconds.
const msThreshold = 1e11

// DecodeTimestamp extracts the first run of 10 to 13 digits of raw and
// decodes it as epoch milliseconds if it is larger than 10^11, as epoch
// seconds otherwise. The result is always UTC. It returns false if raw
// contains no such run.
func DecodeTimestamp(raw string) (time.Time, bool) {
	run := digitRun.FindString(raw)
	if run == "" {
		return time.Time{}, false
	}
	v, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if v > msThreshold {
		return time.Unix(v/1000, (v%1000)*int64(time.Millisecond)).UTC(), true
	}
	return time.Unix(v, 0).UTC(), true
}
