// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package document

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vdb_router_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdb_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Entity operation metrics
	entityOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vdb_router_entity_operation_duration_seconds",
			Help:    "Entity operation duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)

	entityOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdb_router_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"operation", "status"},
	)

	batchRowsProcessed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vdb_router_batch_rows_count",
			Help:    "Number of rows in insert and upsert batches",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"operation"},
	)

	cacheLookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdb_router_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache_type", "hit"},
	)

	errorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdb_router_errors_total",
			Help: "Total number of errors",
		},
		[]string{"error_type", "operation"},
	)

	throttledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vdb_router_throttled_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

var metrics = NewMetricsRecorder()

// MetricsRecorder provides methods to record router metrics
type MetricsRecorder struct{}

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

func (m *MetricsRecorder) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	httpRequestTotal.WithLabelValues(method, endpoint, status).Inc()
}

func (m *MetricsRecorder) RecordEntityOperation(operation, status string, duration time.Duration) {
	entityOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	entityOperationTotal.WithLabelValues(operation, status).Inc()
}

func (m *MetricsRecorder) RecordBatch(operation string, rowCount int) {
	batchRowsProcessed.WithLabelValues(operation).Observe(float64(rowCount))
}

func (m *MetricsRecorder) RecordCacheLookup(cacheType string, hit bool) {
	hitStr := "miss"
	if hit {
		hitStr = "hit"
	}
	cacheLookupTotal.WithLabelValues(cacheType, hitStr).Inc()
}

func (m *MetricsRecorder) RecordError(errorType, operation string) {
	errorTotal.WithLabelValues(errorType, operation).Inc()
}

func (m *MetricsRecorder) RecordThrottled() {
	throttledTotal.Inc()
}
