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

	"github.com/vearch/vdbclient/internal/engine/expr"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// visible returns the rows of the loaded segment written at or before snapshot that
// match the filter, ordered by primary key.
func (c *collection) visible(snapshot uint64, ex *expr.Expr) []*storage.Record {
	var out []*storage.Record
	for _, shard := range c.seg.shards {
		for _, r := range shard {
			if v := r.At(snapshot); v != nil && ex.Match(v.Row) {
				out = append(out, v)
			}
		}
	}
	pk := c.meta.Schema.PrimaryField().Name
	sort.Slice(out, func(i, j int) bool { return lessPK(out[i].Row[pk], out[j].Row[pk]) })
	return out
}

func lessPK(a, b entity.Value) bool {
	c, _ := entity.Compare(a, b)
	return c < 0
}

func (e *Engine) Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	if req.Limit < 0 || req.Offset < 0 {
		return nil, fault.InvalidParam("limit:[%d] and offset:[%d] can not be negative", req.Limit, req.Offset)
	}
	c, err := e.get(req.CollectionName)
	if err != nil {
		return nil, err
	}
	e.stats.Queries.Inc()

	c.mu.RLock()
	if err := c.requireLoaded(); err != nil {
		c.mu.RUnlock()
		return nil, err
	}
	ex, err := expr.Parse(req.Filter, c.meta.Schema)
	if err != nil {
		c.mu.RUnlock()
		return nil, err
	}
	names, count, err := c.resolveOutput(req.OutputFields, true)
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
	// the collection may have been released while waiting
	if err := c.requireLoaded(); err != nil {
		return nil, err
	}
	records := c.visible(snapshot, ex)

	result := &entity.QueryResult{OutputFields: names, FieldTypes: c.fieldTypes(names)}
	if count {
		result.Rows = []entity.Row{{entity.CountStar: entity.NewInt64(int64(len(records)))}}
		return result, nil
	}

	records = page(records, req.Offset, req.Limit)
	result.Rows = make([]entity.Row, 0, len(records))
	for _, r := range records {
		result.Rows = append(result.Rows, r.Row.Project(names))
	}
	return result, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
