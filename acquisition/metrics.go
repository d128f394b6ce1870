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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	artifactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "androidcollector_artifacts_total",
		Help: "Number of processed artifacts by final status and category.",
	}, []string{"status", "category"})

	transferredBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "androidcollector_transferred_bytes_total",
		Help: "Number of bytes stored by successful transfers.",
	}, []string{"category"})
)

func observe(result Result) {
	artifactsTotal.WithLabelValues(string(result.Status), string(result.Category)).Inc()
	if result.Status == Succeeded {
		transferredBytes.WithLabelValues(string(result.Category)).Add(float64(result.Bytes))
	}
}
