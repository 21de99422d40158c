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
	"sync"

	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

type collection struct {
	mu    sync.RWMutex
	meta  *storage.CollectionMeta
	state entity.CollectionState

	replicas   int
	progress   int
	loadCancel context.CancelFunc

	// keys maps every stored primary key to its write timestamp.
	keys map[string]uint64
	seg  *segment
}

func newCollection(meta *storage.CollectionMeta) *collection {
	c := &collection{
		meta:  meta,
		state: entity.CollectionCreated,
		keys:  make(map[string]uint64),
	}
	if c.fullyIndexed() {
		c.state = entity.CollectionIndexed
	}
	return c
}

func (c *collection) name() string {
	return c.meta.Schema.CollectionName
}

func (c *collection) index(field string) *entity.IndexDesc {
	for _, idx := range c.meta.Indexes {
		if idx.FieldName == field {
			return idx
		}
	}
	return nil
}

func (c *collection) fullyIndexed() bool {
	for _, f := range c.meta.Schema.VectorFields() {
		if c.index(f.Name) == nil {
			return false
		}
	}
	return true
}

func (c *collection) loadState() entity.LoadState {
	switch c.state {
	case entity.CollectionLoading:
		return entity.LoadStateLoading
	case entity.CollectionLoaded:
		return entity.LoadStateLoaded
	}
	return entity.LoadStateNotLoad
}

// cancelLoad stops a pending load; callers hold c.mu.
func (c *collection) cancelLoad() {
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
}

func (c *collection) requireLoaded() error {
	if c.state != entity.CollectionLoaded || c.seg == nil {
		return fault.NotLoaded(c.name())
	}
	return nil
}

// resolveOutput expands the output selectors. The primary key always comes first.
func (c *collection) resolveOutput(selectors []string, allowCount bool) ([]string, bool, error) {
	schema := c.meta.Schema
	for _, s := range selectors {
		if s == entity.CountStar {
			if !allowCount {
				return nil, false, fault.InvalidParam("%s is only supported by query", entity.CountStar)
			}
			if len(selectors) > 1 {
				return nil, false, fault.InvalidParam("%s can not be combined with other output fields", entity.CountStar)
			}
			return []string{entity.CountStar}, true, nil
		}
	}

	pk := schema.PrimaryField().Name
	names := []string{pk}
	seen := map[string]struct{}{pk: {}}
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	for _, s := range selectors {
		if s == entity.Wildcard {
			for _, n := range schema.ScalarFieldNames() {
				add(n)
			}
			continue
		}
		if schema.Field(s) == nil {
			return nil, false, fault.FieldNotFound(c.name(), s)
		}
		add(s)
	}
	return names, false, nil
}

func (c *collection) fieldTypes(names []string) map[string]entity.DataType {
	types := make(map[string]entity.DataType, len(names))
	for _, n := range names {
		if n == entity.CountStar {
			types[n] = entity.DataTypeInt64
			continue
		}
		types[n] = c.meta.Schema.Field(n).DataType
	}
	return types
}
