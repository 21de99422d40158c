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

	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// defaultConsistency applies when neither the request nor the schema picks a level.
const defaultConsistency = entity.ConsistencyBounded

// guaranteeTs is the timestamp a read must observe for the consistency level.
func (e *Engine) guaranteeTs(level entity.ConsistencyLevel, sessionTs uint64) uint64 {
	now := time.Now()
	switch level {
	case entity.ConsistencyStrong:
		return ComposeTS(now, 0)
	case entity.ConsistencyBounded:
		return ComposeTS(now.Add(-e.opts.BoundedStaleness), 0)
	case entity.ConsistencySession:
		return sessionTs
	}
	return 0
}

// serviceableTs is the newest timestamp whose writes are visible.
func (e *Engine) serviceableTs() uint64 {
	ts := ComposeTS(time.Now().Add(-e.opts.VisibilityDelay), logicalMask)
	if e.opts.VisibilityDelay == 0 {
		if last := e.tso.Last(); last > ts {
			ts = last
		}
	}
	return ts
}

// waitServiceable blocks until the serviceable timestamp reaches guarantee and returns the
// snapshot timestamp to read at.
func (e *Engine) waitServiceable(ctx context.Context, guarantee uint64) (uint64, error) {
	for {
		snapshot := e.serviceableTs()
		if snapshot >= guarantee {
			return snapshot, nil
		}
		wait := PhysicalTime(guarantee).Sub(PhysicalTime(snapshot))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return 0, fault.Timeout("wait for guarantee timestamp")
		}
	}
}

func (e *Engine) readSnapshot(ctx context.Context, c *collection, level entity.ConsistencyLevel, sessionTs uint64) (uint64, error) {
	c.mu.RLock()
	level = level.Or(c.meta.Schema.ConsistencyLevel).Or(defaultConsistency)
	c.mu.RUnlock()
	if !level.Valid() {
		return 0, fault.InvalidParam("unknown consistency level: %s", level)
	}
	return e.waitServiceable(ctx, e.guaranteeTs(level, sessionTs))
}
