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

package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/vec/search"
	"github.com/vearch/vdbclient/internal/engine/expr"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

type hit struct {
	record *storage.Record
	score  float32
}

// scorer computes the score of a stored vector against a query vector.
type scorer func(query search.Float32s, queryMag float32, vec []float32) float32

func scorerOf(metric entity.MetricType) scorer {
	switch metric {
	case entity.MetricL2:
		return func(q search.Float32s, _ float32, v []float32) float32 {
			return q.EuclideanDistance(v)
		}
	case entity.MetricIP:
		return func(q search.Float32s, qm float32, v []float32) float32 {
			vm := search.Float32s(v).Magnitude()
			if qm == 0 || vm == 0 {
				return 0
			}
			return (1 - q.CosineDistance(v)) * qm * vm
		}
	default:
		return func(q search.Float32s, qm float32, v []float32) float32 {
			vm := search.Float32s(v).Magnitude()
			if qm == 0 || vm == 0 {
				return 0
			}
			return 1 - q.CosineDistance(v)
		}
	}
}

// Search runs an exact scan over the filtered rows. Every query vector must match the
// field dimension, otherwise nothing is returned.
func (e *Engine) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResult, error) {
	limit := req.Limit
	if limit == 0 {
		limit = entity.DefaultSearchLimit
	}
	if limit < 0 || limit > entity.MaxSearchLimit {
		return nil, fault.InvalidParam("limit:[%d] should in [1, %d]", req.Limit, entity.MaxSearchLimit)
	}
	if req.Offset < 0 || req.Offset+limit > entity.MaxSearchLimit {
		return nil, fault.InvalidParam("offset:[%d] plus limit:[%d] should not exceed %d", req.Offset, limit, entity.MaxSearchLimit)
	}
	if len(req.Vectors) == 0 {
		return nil, fault.InvalidParam("search needs at least one query vector")
	}
	c, err := e.get(req.CollectionName)
	if err != nil {
		return nil, err
	}
	e.stats.Searches.Inc()

	c.mu.RLock()
	field, metric, ex, names, err := e.prepareSearch(c, req)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	snapshot, err := e.readSnapshot(ctx, c, req.ConsistencyLevel, req.GuaranteeTimestamp)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.requireLoaded(); err != nil {
		return nil, err
	}

	groups := c.seg.scan(snapshot, ex, field, req.Vectors, scorerOf(metric))
	pk := c.meta.Schema.PrimaryField()
	result := &entity.SearchResult{
		IDType:       pk.DataType,
		MetricType:   metric,
		OutputFields: names,
		FieldTypes:   c.fieldTypes(names),
		Groups:       make([]*entity.SearchGroup, 0, len(groups)),
	}
	for _, hits := range groups {
		rank(hits, metric, pk.Name)
		hits = page(hits, req.Offset, limit)
		g := &entity.SearchGroup{
			IDs:    make([]entity.Value, 0, len(hits)),
			Scores: make([]float32, 0, len(hits)),
			Rows:   make([]entity.Row, 0, len(hits)),
		}
		for _, h := range hits {
			g.IDs = append(g.IDs, h.record.Row[pk.Name])
			g.Scores = append(g.Scores, h.score)
			g.Rows = append(g.Rows, h.record.Row.Project(names))
		}
		result.Groups = append(result.Groups, g)
	}
	return result, nil
}

func (e *Engine) prepareSearch(c *collection, req *entity.SearchRequest) (string, entity.MetricType, *expr.Expr, []string, error) {
	if err := c.requireLoaded(); err != nil {
		return "", "", nil, nil, err
	}
	schema := c.meta.Schema
	field := req.AnnsField
	if field == "" {
		vectors := schema.VectorFields()
		if len(vectors) != 1 {
			return "", "", nil, nil, fault.InvalidParam("collection %s has %d vector fields, annsField is required", c.name(), len(vectors))
		}
		field = vectors[0].Name
	}
	f := schema.Field(field)
	if f == nil {
		return "", "", nil, nil, fault.FieldNotFound(c.name(), field)
	}
	if !f.DataType.IsVector() {
		return "", "", nil, nil, fault.InvalidParam("field %s is not a vector field", field)
	}
	for _, v := range req.Vectors {
		if int64(len(v)) != f.Dimension {
			return "", "", nil, nil, fault.DimensionMismatch(field, int(f.Dimension), len(v))
		}
	}

	metric := entity.MetricCosine
	if idx := c.index(field); idx != nil {
		metric = idx.MetricType
	}
	if req.MetricType != "" && req.MetricType != metric {
		return "", "", nil, nil, fault.InvalidParam("metric type %s does not match index metric %s of field %s", req.MetricType, metric, field)
	}

	ex, err := expr.Parse(req.Filter, schema)
	if err != nil {
		return "", "", nil, nil, err
	}
	names, _, err := c.resolveOutput(req.OutputFields, false)
	if err != nil {
		return "", "", nil, nil, err
	}
	return field, metric, ex, names, nil
}

// scan scores every visible row of every shard in parallel and returns the unordered hits
// per query vector.
func (s *segment) scan(snapshot uint64, ex *expr.Expr, field string, queries [][]float32, score scorer) [][]hit {
	mags := make([]float32, len(queries))
	for i, q := range queries {
		mags[i] = search.Float32s(q).Magnitude()
	}

	partial := make([][][]hit, len(s.shards))
	var wg sync.WaitGroup
	for i, shard := range s.shards {
		wg.Add(1)
		go func(i int, shard map[string]*storage.Record) {
			defer wg.Done()
			out := make([][]hit, len(queries))
			for _, latest := range shard {
				r := latest.At(snapshot)
				if r == nil || !ex.Match(r.Row) {
					continue
				}
				vec := r.Row[field].Vector
				for qi, q := range queries {
					out[qi] = append(out[qi], hit{record: r, score: score(q, mags[qi], vec)})
				}
			}
			partial[i] = out
		}(i, shard)
	}
	wg.Wait()

	groups := make([][]hit, len(queries))
	for _, out := range partial {
		for qi := range queries {
			groups[qi] = append(groups[qi], out[qi]...)
		}
	}
	return groups
}

// rank orders hits best first. Ties are broken by primary key.
func rank(hits []hit, metric entity.MetricType, pk string) {
	desc := metric.PositiveIsBetter()
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			if desc {
				return a.score > b.score
			}
			return a.score < b.score
		}
		return lessPK(a.record.Row[pk], b.record.Row[pk])
	})
}
