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

package monitor

import (
	"net/http"
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cast"
	"github.com/vearch/vdbclient/internal/engine"
	"github.com/vearch/vdbclient/internal/pkg/log"
)

type MonitorService struct {
	mutex   sync.Mutex
	engine  *engine.Engine
	cluster string

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec

	collectionCount prometheus.Gauge
	collectionRows  *prometheus.GaugeVec
	health          prometheus.Gauge

	inserted prometheus.Gauge
	deleted  prometheus.Gauge
	queries  prometheus.Gauge
	searches prometheus.Gauge

	memUsedPercent prometheus.Gauge
}

// NewRegistry exports the metrics of eng in a registry owned by the caller, so every
// server reports its own engine.
func NewRegistry(eng *engine.Engine, cluster string) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newMetricCollector(eng, cluster))
	return registry
}

// ServePort serves registry on a dedicated port until the returned server is closed. It
// returns nil when monitorPort is 0.
func ServePort(registry *prometheus.Registry, monitorPort uint16) *http.Server {
	if monitorPort == 0 {
		log.Info("skip register monitoring port")
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", HandlerFor(registry))
	srv := &http.Server{Addr: ":" + cast.ToString(monitorPort), Handler: mux}
	go func() {
		log.Info("monitoring start in Port: %v", monitorPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Error occur when start server %v", err)
		}
	}()
	return srv
}

// HandlerFor serves registry together with the router metrics of the default registry.
func HandlerFor(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          registry,
		},
	)
}

func newMetricCollector(eng *engine.Engine, cluster string) *MonitorService {
	return &MonitorService{
		engine:  eng,
		cluster: cluster,

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vdb_request_duration_milliseconds",
				Help:    "vdb API request durations in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 15),
			},
			[]string{"cluster", "api"},
		),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vdb_request_count",
				Help: "Total number of vdb API requests",
			},
			[]string{"cluster", "api"},
		),

		collectionCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vdb_collection_count",
				Help: "Number of collections",
			},
		),
		collectionRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vdb_collection_rows",
				Help: "Number of rows stored in a collection",
			},
			[]string{"collection", "state"},
		),
		health: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vdb_health",
				Help: "Engine health (0=healthy, 1=unhealthy)",
			},
		),

		inserted: prometheus.NewGauge(prometheus.GaugeOpts{Name: "vdb_rows_inserted", Help: "Rows inserted or upserted since start"}),
		deleted:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "vdb_rows_deleted", Help: "Rows deleted since start"}),
		queries:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "vdb_queries", Help: "Queries served since start"}),
		searches: prometheus.NewGauge(prometheus.GaugeOpts{Name: "vdb_searches", Help: "Searches served since start"}),

		memUsedPercent: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vdb_mem_used_percent",
				Help: "Percentage of host memory used",
			},
		),
	}
}

func (ms *MonitorService) Describe(ch chan<- *prometheus.Desc) {
	ms.requestDuration.Describe(ch)
	ms.requestCount.Describe(ch)
	ms.collectionCount.Describe(ch)
	ms.collectionRows.Describe(ch)
	ms.health.Describe(ch)
	ms.inserted.Describe(ch)
	ms.deleted.Describe(ch)
	ms.queries.Describe(ch)
	ms.searches.Describe(ch)
	ms.memUsedPercent.Describe(ch)
}

// Collect all metrics
func (ms *MonitorService) Collect(ch chan<- prometheus.Metric) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			log.Error("Panic in metrics collection: %v\nStack:\n%s", r, stack[:length])
		}
	}()

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	for _, element := range SliceMetric() {
		count := element.Count()
		if count == 0 {
			continue
		}
		ms.requestDuration.WithLabelValues(ms.cluster, element.Name).Observe(element.Sum / float64(count))
		ms.requestCount.WithLabelValues(ms.cluster, element.Name).Add(float64(count))
	}

	names := ms.engine.ListCollections()
	ms.collectionCount.Set(float64(len(names)))
	ms.collectionRows.Reset()
	for _, name := range names {
		info, err := ms.engine.DescribeCollection(name)
		if err != nil {
			// dropped between list and describe
			continue
		}
		ms.collectionRows.WithLabelValues(name, string(info.State)).Set(float64(info.RowCount))
	}

	if len(ms.engine.Health()) == 0 {
		ms.health.Set(0)
	} else {
		ms.health.Set(1)
	}

	stats := ms.engine.Stats()
	ms.inserted.Set(float64(stats.Inserted.Load()))
	ms.deleted.Set(float64(stats.Deleted.Load()))
	ms.queries.Set(float64(stats.Queries.Load()))
	ms.searches.Set(float64(stats.Searches.Load()))

	if vm, err := mem.VirtualMemory(); err == nil {
		ms.memUsedPercent.Set(vm.UsedPercent)
	}

	ms.requestDuration.Collect(ch)
	ms.requestCount.Collect(ch)
	ms.collectionCount.Collect(ch)
	ms.collectionRows.Collect(ch)
	ms.health.Collect(ch)
	ms.inserted.Collect(ch)
	ms.deleted.Collect(ch)
	ms.queries.Collect(ch)
	ms.searches.Collect(ch)
	ms.memUsedPercent.Collect(ch)
}
