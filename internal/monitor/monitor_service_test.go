package monitor

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/internal/engine"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/proto/entity"
)

func TestProfiler(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		key       string
		startTime time.Time
	}{
		{name: "Profile operation with immediate start", key: "operation1", startTime: now},
		{name: "Profile operation with past start time", key: "operation2", startTime: now.Add(-5 * time.Minute)},
	}
	SliceMetric()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Profiler(tt.key, tt.startTime)
		})
	}

	metrics := SliceMetric()
	require.Len(t, metrics, 2)
	assert.Equal(t, int64(1), metrics["operation1"].Count())
	// clamped to the histogram maximum
	assert.InDelta(t, float64(time.Minute), float64(metrics["operation2"].Quantile(100)), float64(time.Second))
	assert.Empty(t, SliceMetric())
}

func TestCollectorExportsCollections(t *testing.T) {
	store, err := storage.NewMemoryStore("")
	require.NoError(t, err)
	eng, err := engine.Open(context.Background(), store, engine.Options{})
	require.NoError(t, err)
	defer eng.Close()

	schema := entity.NewSchema("metric_demo").
		WithField(entity.NewField("id", entity.DataTypeInt64).WithIsPrimaryKey(true)).
		WithField(entity.NewField("vec", entity.DataTypeFloatVector).WithDim(2))
	require.NoError(t, eng.CreateCollection(context.Background(), schema))

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(newMetricCollector(eng, "test")))
	Profiler("handleQuery", time.Now())

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "vdb_collection_count")
	assert.Contains(t, names, "vdb_collection_rows")
	assert.Contains(t, names, "vdb_request_duration_milliseconds")

	rec := httptest.NewRecorder()
	HandlerFor(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `vdb_collection_rows{collection="metric_demo",state="Created"} 0`))
}

func TestRegistryPerEngine(t *testing.T) {
	open := func(collection string) *engine.Engine {
		store, err := storage.NewMemoryStore("")
		require.NoError(t, err)
		eng, err := engine.Open(context.Background(), store, engine.Options{})
		require.NoError(t, err)
		schema := entity.NewSchema(collection).
			WithField(entity.NewField("id", entity.DataTypeInt64).WithIsPrimaryKey(true)).
			WithField(entity.NewField("vec", entity.DataTypeFloatVector).WithDim(2))
		require.NoError(t, eng.CreateCollection(context.Background(), schema))
		return eng
	}
	first := open("first_demo")
	second := open("second_demo")
	defer second.Close()
	firstRegistry := NewRegistry(first, "test")
	secondRegistry := NewRegistry(second, "test")

	scrape := func(registry *prometheus.Registry) string {
		rec := httptest.NewRecorder()
		HandlerFor(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		return rec.Body.String()
	}
	assert.Contains(t, scrape(firstRegistry), `collection="first_demo"`)
	out := scrape(secondRegistry)
	assert.Contains(t, out, `collection="second_demo"`)
	assert.NotContains(t, out, `collection="first_demo"`)

	require.NoError(t, first.Close())
	health := func(registry *prometheus.Registry) float64 {
		families, err := registry.Gather()
		require.NoError(t, err)
		for _, f := range families {
			if f.GetName() == "vdb_health" {
				return f.GetMetric()[0].GetGauge().GetValue()
			}
		}
		t.Fatal("vdb_health is not exported")
		return 0
	}
	assert.Equal(t, float64(1), health(firstRegistry))
	assert.Equal(t, float64(0), health(secondRegistry))
}

func TestServePortDisabled(t *testing.T) {
	assert.Nil(t, ServePort(prometheus.NewRegistry(), 0))
}
