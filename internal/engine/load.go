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
	"time"

	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// LoadCollection starts loading in the background and returns at once. Every vector
// field must be indexed.
func (e *Engine) LoadCollection(name string, replicas int) error {
	c, err := e.get(name)
	if err != nil {
		return err
	}
	if replicas == 0 {
		replicas = 1
	}
	if replicas < 1 || replicas > e.opts.MaxReplicas {
		return fault.InvalidParam("replica number:[%d] should in [1, %d]", replicas, e.opts.MaxReplicas)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.meta.Schema.VectorFields() {
		if c.index(f.Name) == nil {
			return fault.IndexNotFound(name, f.Name)
		}
	}
	c.replicas = replicas
	if c.state == entity.CollectionLoaded || c.state == entity.CollectionLoading {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.loadCancel = cancel
	c.state = entity.CollectionLoading
	c.progress = 0
	log.Info("load collection:[%s] replicas:[%d]", name, replicas)
	go e.load(ctx, c)
	return nil
}

func (e *Engine) load(ctx context.Context, c *collection) {
	if e.opts.LoadDelay > 0 {
		timer := time.NewTimer(e.opts.LoadDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	seg := newSegment(c.meta.Schema.Shards())
	err := e.store.ScanRows(ctx, c.name(), func(r *storage.Record) error {
		seg.put(r, 0)
		return nil
	})
	if err != nil {
		e.storageResult("load "+c.name(), err)
		c.state = entity.CollectionReleased
		c.loadCancel = nil
		return
	}
	c.seg = seg
	c.state = entity.CollectionLoaded
	c.progress = 100
	c.loadCancel = nil
	log.Info("collection:[%s] loaded rows:[%d]", c.name(), seg.len())
}

// GetLoadState reports LoadStateNotExist for an unknown collection instead of failing.
func (e *Engine) GetLoadState(name string) (*entity.LoadStateInfo, error) {
	c, err := e.get(name)
	if err != nil {
		if fault.IsCode(err, fault.ErrCollectionNotFound) {
			return &entity.LoadStateInfo{State: entity.LoadStateNotExist}, nil
		}
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &entity.LoadStateInfo{State: c.loadState(), Progress: c.progress}, nil
}

// ReleaseCollection drops the in-memory segment; releasing an unloaded collection is a no-op.
func (e *Engine) ReleaseCollection(name string) error {
	c, err := e.get(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != entity.CollectionLoaded && c.state != entity.CollectionLoading {
		return nil
	}
	c.cancelLoad()
	c.seg = nil
	c.progress = 0
	c.replicas = 0
	c.state = entity.CollectionReleased
	log.Info("release collection:[%s]", name)
	return nil
}
