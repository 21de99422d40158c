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

package monitor

import (
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

// latency is tracked in microseconds up to one minute
const (
	profilerMaxLatency = int64(time.Minute / time.Microsecond)
	profilerSigFigs    = 2
)

var mutex sync.Mutex

var metricMap = map[string]*Digest{}

// Profiler records the time spent since startTime under key.
func Profiler(key string, startTime time.Time) {
	mutex.Lock()
	digest, ok := metricMap[key]
	if !ok {
		digest = NewDigest(key)
		metricMap[key] = digest
	}
	mutex.Unlock()

	digest.Record(time.Since(startTime))
}

// SliceMetric hands over the digests collected so far and starts new ones.
func SliceMetric() map[string]*Digest {
	mutex.Lock()
	newMap := metricMap
	metricMap = make(map[string]*Digest)
	mutex.Unlock()

	return newMap
}

type Digest struct {
	Name string
	// Sum is in milliseconds
	Sum  float64
	hist *hdrhistogram.Histogram
	sync.Mutex
}

func NewDigest(name string) *Digest {
	return &Digest{
		Name: name,
		hist: hdrhistogram.New(1, profilerMaxLatency, profilerSigFigs),
	}
}

func (d *Digest) Record(cost time.Duration) {
	us := cost.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > profilerMaxLatency {
		us = profilerMaxLatency
	}
	d.Lock()
	_ = d.hist.RecordValue(us)
	d.Sum += float64(cost) / float64(time.Millisecond)
	d.Unlock()
}

func (d *Digest) Count() int64 {
	d.Lock()
	defer d.Unlock()
	return d.hist.TotalCount()
}

// Quantile returns the latency at q, q in [0, 100].
func (d *Digest) Quantile(q float64) time.Duration {
	d.Lock()
	defer d.Unlock()
	return time.Duration(d.hist.ValueAtQuantile(q)) * time.Microsecond
}
