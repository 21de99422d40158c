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

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

func init() {
	Register("memory", NewMemoryStore)
}

type memCollection struct {
	meta *CollectionMeta
	rows map[string]*Record
}

// MemoryStore keeps everything in process memory; data is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

func NewMemoryStore(string) (Store, error) {
	return &MemoryStore{collections: make(map[string]*memCollection)}, nil
}

func (s *MemoryStore) SaveCollection(_ context.Context, meta *CollectionMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := meta.Schema.CollectionName
	if c, ok := s.collections[name]; ok {
		c.meta = meta
		return nil
	}
	s.collections[name] = &memCollection{meta: meta, rows: make(map[string]*Record)}
	return nil
}

func (s *MemoryStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *MemoryStore) ListCollections(context.Context) ([]*CollectionMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := maps.Keys(s.collections)
	sort.Strings(names)
	metas := make([]*CollectionMeta, 0, len(names))
	for _, n := range names {
		metas = append(metas, s.collections[n].meta)
	}
	return metas, nil
}

func (s *MemoryStore) PutRows(_ context.Context, collection string, records []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return errors.Errorf("collection %s is not stored", collection)
	}
	for _, r := range records {
		c.rows[r.Key] = r
	}
	return nil
}

func (s *MemoryStore) DeleteRows(_ context.Context, collection string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return errors.Errorf("collection %s is not stored", collection)
	}
	for _, k := range keys {
		delete(c.rows, k)
	}
	return nil
}

func (s *MemoryStore) ScanRows(ctx context.Context, collection string, fn func(*Record) error) error {
	s.mu.RLock()
	c, ok := s.collections[collection]
	if !ok {
		s.mu.RUnlock()
		return errors.Errorf("collection %s is not stored", collection)
	}
	records := make([]*Record, 0, len(c.rows))
	for _, r := range c.rows {
		records = append(records, r)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
