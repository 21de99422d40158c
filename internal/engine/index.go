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

	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// CreateIndex validates every descriptor before recording any. An identical index is
// accepted again, a different one on an indexed field is AlreadyExists.
func (e *Engine) CreateIndex(ctx context.Context, name string, descs []*entity.IndexDesc) error {
	if len(descs) == 0 {
		return fault.InvalidParam("no index given for collection %s", name)
	}
	c, err := e.get(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var added []*entity.IndexDesc
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if d == nil {
			return fault.InvalidParam("nil index descriptor")
		}
		f := c.meta.Schema.Field(d.FieldName)
		if f == nil {
			return fault.FieldNotFound(name, d.FieldName)
		}
		if _, dup := seen[d.FieldName]; dup {
			return fault.InvalidParam("field %s is indexed twice in one request", d.FieldName)
		}
		seen[d.FieldName] = struct{}{}
		if err := d.ValidateFor(f); err != nil {
			return err
		}
		d.Normalize()
		if existing := c.index(d.FieldName); existing != nil {
			if existing.Equal(d) {
				continue
			}
			return fault.AlreadyExists("field %s of collection %s already has index %s", d.FieldName, name, existing.IndexName)
		}
		added = append(added, d)
	}
	if len(added) == 0 {
		return nil
	}

	meta := &storage.CollectionMeta{
		Schema:    c.meta.Schema,
		Indexes:   append(append([]*entity.IndexDesc{}, c.meta.Indexes...), added...),
		CreatedTs: c.meta.CreatedTs,
	}
	if err := e.storageResult("save index", e.store.SaveCollection(ctx, meta)); err != nil {
		return err
	}
	c.meta = meta
	if c.state == entity.CollectionCreated && c.fullyIndexed() {
		c.state = entity.CollectionIndexed
	}
	for _, d := range added {
		log.Info("create index:[%s] type:[%s] metric:[%s] on collection:[%s]", d.IndexName, d.IndexType, d.MetricType, name)
	}
	return nil
}

// DescribeIndex returns the index of field, or all indexes when field is empty.
func (e *Engine) DescribeIndex(name, field string) ([]*entity.IndexDesc, error) {
	c, err := e.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if field == "" {
		return append([]*entity.IndexDesc{}, c.meta.Indexes...), nil
	}
	if c.meta.Schema.Field(field) == nil {
		return nil, fault.FieldNotFound(name, field)
	}
	idx := c.index(field)
	if idx == nil {
		return nil, fault.IndexNotFound(name, field)
	}
	return []*entity.IndexDesc{idx}, nil
}

func (e *Engine) DropIndex(ctx context.Context, name, field string) error {
	c, err := e.get(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.meta.Schema.Field(field)
	if f == nil {
		return fault.FieldNotFound(name, field)
	}
	if c.index(field) == nil {
		return fault.IndexNotFound(name, field)
	}
	if f.DataType.IsVector() && (c.state == entity.CollectionLoaded || c.state == entity.CollectionLoading) {
		return fault.Conflict("can not drop vector index of loaded collection %s, release it first", name)
	}

	meta := &storage.CollectionMeta{Schema: c.meta.Schema, CreatedTs: c.meta.CreatedTs}
	for _, idx := range c.meta.Indexes {
		if idx.FieldName != field {
			meta.Indexes = append(meta.Indexes, idx)
		}
	}
	if err := e.storageResult("drop index", e.store.SaveCollection(ctx, meta)); err != nil {
		return err
	}
	c.meta = meta
	if c.state == entity.CollectionIndexed && !c.fullyIndexed() {
		c.state = entity.CollectionCreated
	}
	log.Info("drop index on field:[%s] of collection:[%s]", field, name)
	return nil
}
