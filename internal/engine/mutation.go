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

	"github.com/vearch/vdbclient/internal/engine/expr"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// Schema returns the schema rows of the collection are decoded with.
func (e *Engine) Schema(name string) (*entity.CollectionSchema, error) {
	c, err := e.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta.Schema, nil
}

// Insert writes all rows or none. Primary keys already stored or repeated within the
// batch are AlreadyExists.
func (e *Engine) Insert(ctx context.Context, name string, rows []entity.Row) (*entity.MutationResult, error) {
	return e.write(ctx, name, rows, false)
}

// Upsert replaces rows with the same primary key. The primary key is required even for
// auto id collections.
func (e *Engine) Upsert(ctx context.Context, name string, rows []entity.Row) (*entity.MutationResult, error) {
	return e.write(ctx, name, rows, true)
}

func (e *Engine) write(ctx context.Context, name string, rows []entity.Row, upsert bool) (*entity.MutationResult, error) {
	if len(rows) == 0 {
		return nil, fault.InvalidParam("no rows to write into collection %s", name)
	}
	c, err := e.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	schema := c.meta.Schema
	if upsert {
		schema = withoutAutoID(schema)
	}
	pkField := c.meta.Schema.PrimaryField()

	for i, r := range rows {
		if err := schema.CheckRow(r); err != nil {
			if fe := fault.AsError(err); fe != nil {
				fe.WithDetail("row", i)
			}
			return nil, err
		}
	}

	ts := e.tso.Next()
	records := make([]*storage.Record, 0, len(rows))
	ids := make([]entity.Value, 0, len(rows))
	batch := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if pkField.AutoID && !upsert {
			r[pkField.Name] = entity.NewInt64(int64(e.tso.Next()))
		}
		pk := r[pkField.Name]
		key := storage.Key(pk)
		if _, dup := batch[key]; dup {
			return nil, fault.AlreadyExists("primary key %s is repeated in the batch", pk)
		}
		batch[key] = struct{}{}
		if _, exists := c.keys[key]; exists && !upsert {
			return nil, fault.AlreadyExists("primary key %s already exists in collection %s", pk, name)
		}
		records = append(records, &storage.Record{Key: key, Ts: ts, Row: r})
		ids = append(ids, pk)
	}

	if err := e.storageResult("write rows", e.store.PutRows(ctx, name, records)); err != nil {
		return nil, err
	}
	serviceable := e.serviceableTs()
	for _, r := range records {
		c.keys[r.Key] = ts
		if c.seg != nil {
			c.seg.put(r, serviceable)
		}
	}
	e.stats.Inserted.Add(int64(len(records)))
	if log.IsDebugEnabled() {
		log.Debug("write %d rows into collection:[%s] ts:[%d] upsert:[%v]", len(records), name, ts, upsert)
	}
	return &entity.MutationResult{
		Count:     int64(len(records)),
		IDs:       ids,
		IDType:    pkField.DataType,
		Timestamp: ts,
	}, nil
}

func withoutAutoID(s *entity.CollectionSchema) *entity.CollectionSchema {
	cp := *s
	cp.Fields = make([]*entity.FieldSchema, len(s.Fields))
	for i, f := range s.Fields {
		fc := *f
		fc.AutoID = false
		cp.Fields[i] = &fc
	}
	return &cp
}

// Delete removes every row matching filter. It is not subject to the visibility delay.
func (e *Engine) Delete(ctx context.Context, name, filter string) (*entity.MutationResult, error) {
	c, err := e.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if filter == "" {
		return nil, fault.InvalidParam("delete on collection %s needs a filter", name)
	}
	ex, err := expr.Parse(filter, c.meta.Schema)
	if err != nil {
		return nil, err
	}

	var keys []string
	var ids []entity.Value
	pk := c.meta.Schema.PrimaryField()
	match := func(r *storage.Record) error {
		if ex.Match(r.Row) {
			keys = append(keys, r.Key)
			ids = append(ids, r.Row[pk.Name])
		}
		return nil
	}
	if c.seg != nil {
		for _, shard := range c.seg.shards {
			for _, r := range shard {
				match(r)
			}
		}
	} else if err := e.storageResult("scan rows", e.store.ScanRows(ctx, name, match)); err != nil {
		return nil, err
	}

	ts := e.tso.Next()
	if len(keys) > 0 {
		if err := e.storageResult("delete rows", e.store.DeleteRows(ctx, name, keys)); err != nil {
			return nil, err
		}
	}
	for _, k := range keys {
		delete(c.keys, k)
		if c.seg != nil {
			c.seg.remove(k)
		}
	}
	e.stats.Deleted.Add(int64(len(keys)))
	log.Info("delete %d rows from collection:[%s] filter:[%s]", len(keys), name, filter)
	return &entity.MutationResult{Count: int64(len(keys)), IDs: ids, IDType: pk.DataType, Timestamp: ts}, nil
}
