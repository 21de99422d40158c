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
	"time"

	"go.uber.org/atomic"
)

const (
	logicalBits = 18
	logicalMask = (1 << logicalBits) - 1
)

// TSO issues hybrid timestamps: physical milliseconds in the high bits, a logical counter in
// the low 18 bits. Timestamps are strictly increasing within a process.
type TSO struct {
	last atomic.Uint64
	now  func() time.Time
}

func NewTSO() *TSO {
	return &TSO{now: time.Now}
}

func (t *TSO) Next() uint64 {
	physical := ComposeTS(t.now(), 0)
	for {
		last := t.last.Load()
		next := physical
		if next <= last {
			next = last + 1
		}
		if t.last.CAS(last, next) {
			return next
		}
	}
}

// Last returns the most recently issued timestamp.
func (t *TSO) Last() uint64 {
	return t.last.Load()
}

func ComposeTS(t time.Time, logical uint64) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return uint64(ms)<<logicalBits | (logical & logicalMask)
}

func PhysicalTime(ts uint64) time.Time {
	return time.UnixMilli(int64(ts >> logicalBits))
}
