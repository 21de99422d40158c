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

package document

import (
	"time"

	"github.com/juju/ratelimit"
)

const limiterMaxWait = 100 * time.Millisecond

// Limiter is a token bucket shared by every route of the router.
type Limiter struct {
	bucket *ratelimit.Bucket
	rate   int64
}

// NewLimiter returns nil when rate is not positive, which disables limiting.
func NewLimiter(rate int64) *Limiter {
	if rate <= 0 {
		return nil
	}
	return &Limiter{bucket: ratelimit.NewBucketWithRate(float64(rate), rate), rate: rate}
}

// Limit reports whether the request must be rejected.
func (l *Limiter) Limit() bool {
	return !l.bucket.WaitMaxDuration(1, limiterMaxWait)
}
