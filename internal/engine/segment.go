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
	"github.com/spaolacci/murmur3"
	"github.com/vearch/vdbclient/internal/engine/storage"
)

// segment is the in-memory copy of a loaded collection, hash sharded by primary key.
type segment struct {
	shards []map[string]*storage.Record
}

func newSegment(shardNum int) *segment {
	s := &segment{shards: make([]map[string]*storage.Record, shardNum)}
	for i := range s.shards {
		s.shards[i] = make(map[string]*storage.Record)
	}
	return s
}

func shardOf(key string, n int) int {
	return int(murmur3.Sum32([]byte(key)) % uint32(n))
}

// put stores r. Versions it replaces stay reachable through r.Prev while some snapshot
// at or after serviceable can still read them.
func (s *segment) put(r *storage.Record, serviceable uint64) {
	shard := s.shards[shardOf(r.Key, len(s.shards))]
	if old := shard[r.Key]; old != nil && old != r && r.Ts > serviceable {
		r.Prev = old
		for v := old; v != nil; v = v.Prev {
			if v.Ts <= serviceable {
				v.Prev = nil
				break
			}
		}
	}
	shard[r.Key] = r
}

func (s *segment) remove(key string) {
	delete(s.shards[shardOf(key, len(s.shards))], key)
}

func (s *segment) len() int {
	n := 0
	for _, sh := range s.shards {
		n += len(sh)
	}
	return n
}
