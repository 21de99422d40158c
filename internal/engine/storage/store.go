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
	"fmt"
	"strconv"

	"github.com/vearch/vdbclient/proto/entity"
)

// InitFunc opens a store rooted at dataDir.
type InitFunc func(dataDir string) (Store, error)

var storeFactories = map[string]InitFunc{}

func Register(name string, initFunc InitFunc) {
	storeFactories[name] = initFunc
}

func OpenStore(implementation string, dataDir string) (Store, error) {
	s, ok := storeFactories[implementation]
	if !ok {
		return nil, fmt.Errorf("not supported %v store", implementation)
	}

	return s(dataDir)
}

// CollectionMeta is the persisted catalog entry of a collection.
type CollectionMeta struct {
	Schema    *entity.CollectionSchema `json:"schema"`
	Indexes   []*entity.IndexDesc      `json:"indexes,omitempty"`
	CreatedTs uint64                   `json:"createdTs"`
}

// Record is one stored entity with its write timestamp.
type Record struct {
	Key string     `msgpack:"k"`
	Ts  uint64     `msgpack:"ts"`
	Row entity.Row `msgpack:"row"`
	// Prev is the version this record replaced. It lives in memory only, until the
	// replacement is visible to every snapshot.
	Prev *Record `msgpack:"-"`
}

// At returns the newest version written at or before snapshot, or nil.
func (r *Record) At(snapshot uint64) *Record {
	for ; r != nil; r = r.Prev {
		if r.Ts <= snapshot {
			return r
		}
	}
	return nil
}

// Store persists collections and their rows. Implementations are safe for concurrent use.
type Store interface {
	SaveCollection(ctx context.Context, meta *CollectionMeta) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]*CollectionMeta, error)
	// PutRows inserts or replaces rows by key, atomically per call.
	PutRows(ctx context.Context, collection string, records []*Record) error
	DeleteRows(ctx context.Context, collection string, keys []string) error
	ScanRows(ctx context.Context, collection string, fn func(*Record) error) error
	Close() error
}

// Key is the storage key of a primary key value.
func Key(pk entity.Value) string {
	if pk.Type == entity.DataTypeVarChar {
		return "s:" + pk.Str
	}
	return "i:" + strconv.FormatInt(pk.Int, 10)
}
