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
	"time"

	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
	"go.uber.org/atomic"
	"golang.org/x/exp/maps"
)

type Options struct {
	// VisibilityDelay is how long a write takes to become serviceable.
	VisibilityDelay  time.Duration
	BoundedStaleness time.Duration
	// LoadDelay keeps a collection in Loading before its rows are read.
	LoadDelay   time.Duration
	MaxReplicas int
}

func OptionsFromConfig(cfg *config.ServerCfg) Options {
	return Options{
		VisibilityDelay:  cfg.VisibilityDelay(),
		BoundedStaleness: cfg.BoundedStaleness(),
		LoadDelay:        cfg.LoadDelay(),
		MaxReplicas:      cfg.MaxReplicas,
	}
}

// Stats are monotonic counters exported as metrics.
type Stats struct {
	Inserted atomic.Int64
	Deleted  atomic.Int64
	Queries  atomic.Int64
	Searches atomic.Int64
}

// Engine is the catalog of collections and executes every data operation.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*collection

	store      storage.Store
	tso        *TSO
	opts       Options
	stats      Stats
	storageErr atomic.Error
	closed     atomic.Bool
}

// Open restores the catalog from the store. Restored collections come back released.
func Open(ctx context.Context, store storage.Store, opts Options) (*Engine, error) {
	if opts.MaxReplicas <= 0 {
		opts.MaxReplicas = config.DefaultMaxReplicas
	}
	e := &Engine{
		collections: make(map[string]*collection),
		store:       store,
		tso:         NewTSO(),
		opts:        opts,
	}

	metas, err := store.ListCollections(ctx)
	if err != nil {
		return nil, fault.Storage("restore catalog", err)
	}
	for _, meta := range metas {
		c := newCollection(meta)
		err := store.ScanRows(ctx, meta.Schema.CollectionName, func(r *storage.Record) error {
			c.keys[r.Key] = r.Ts
			return nil
		})
		if err != nil {
			return nil, fault.Storage("restore rows of "+meta.Schema.CollectionName, err)
		}
		if c.fullyIndexed() {
			c.state = entity.CollectionReleased
		}
		e.collections[meta.Schema.CollectionName] = c
		log.Info("restore collection:[%s] rows:[%d] state:[%s]", meta.Schema.CollectionName, len(c.keys), c.state)
	}
	return e, nil
}

func (e *Engine) Stats() *Stats {
	return &e.stats
}

func (e *Engine) Now() uint64 {
	return e.tso.Next()
}

func (e *Engine) get(name string) (*collection, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.collections[name]
	if !ok {
		return nil, fault.CollectionNotFound(name)
	}
	return c, nil
}

// storageResult records the outcome of a store call for health reporting.
func (e *Engine) storageResult(op string, err error) error {
	if err != nil {
		e.storageErr.Store(err)
		log.Error("storage %s failed: %v", op, err)
		return fault.Storage(op, err)
	}
	e.storageErr.Store(nil)
	return nil
}

// Health returns the reasons the engine is unhealthy, empty when it is healthy.
func (e *Engine) Health() []string {
	var reasons []string
	if e.closed.Load() {
		reasons = append(reasons, "engine is closed")
	}
	if err := e.storageErr.Load(); err != nil {
		reasons = append(reasons, "storage: "+err.Error())
	}
	return reasons
}

func (e *Engine) CreateCollection(ctx context.Context, schema *entity.CollectionSchema) error {
	if schema == nil {
		return fault.InvalidParam("schema is required")
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	schema.ShardNum = int32(schema.Shards())

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.collections[schema.CollectionName]; ok {
		return fault.AlreadyExists("collection %s already exists", schema.CollectionName)
	}
	meta := &storage.CollectionMeta{Schema: schema, CreatedTs: e.tso.Next()}
	if err := e.storageResult("save collection", e.store.SaveCollection(ctx, meta)); err != nil {
		return err
	}
	e.collections[schema.CollectionName] = newCollection(meta)
	log.Info("create collection:[%s] fields:[%d] shards:[%d]", schema.CollectionName, len(schema.Fields), schema.ShardNum)
	return nil
}

func (e *Engine) DropCollection(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[name]
	if !ok {
		return fault.CollectionNotFound(name)
	}
	if err := e.storageResult("delete collection", e.store.DeleteCollection(ctx, name)); err != nil {
		return err
	}
	c.mu.Lock()
	c.cancelLoad()
	c.seg = nil
	c.mu.Unlock()
	delete(e.collections, name)
	log.Info("drop collection:[%s]", name)
	return nil
}

func (e *Engine) HasCollection(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.collections[name]
	return ok
}

func (e *Engine) ListCollections() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := maps.Keys(e.collections)
	sort.Strings(names)
	return names
}

func (e *Engine) DescribeCollection(name string) (*entity.CollectionInfo, error) {
	c, err := e.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &entity.CollectionInfo{
		Schema:        c.meta.Schema,
		State:         c.state,
		Indexes:       c.meta.Indexes,
		ReplicaNumber: c.replicas,
		RowCount:      int64(len(c.keys)),
		CreatedTs:     c.meta.CreatedTs,
	}, nil
}

func (e *Engine) Close() error {
	if !e.closed.CAS(false, true) {
		return nil
	}
	e.mu.Lock()
	for _, c := range e.collections {
		c.mu.Lock()
		c.cancelLoad()
		c.mu.Unlock()
	}
	e.mu.Unlock()
	return e.store.Close()
}
