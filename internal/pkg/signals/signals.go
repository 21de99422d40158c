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

package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vearch/vdbclient/internal/pkg/log"
)

// SignalHook runs shutdown hooks once a termination signal arrives. Hooks run in the order
// they were added.
type SignalHook struct {
	sigsC chan os.Signal
	mu    sync.Mutex
	hooks []func()
	stopC chan struct{}
}

// NewSignalHook listens for sigs, or SIGINT, SIGTERM and SIGQUIT when none are given.
func NewSignalHook(sigs ...os.Signal) *SignalHook {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
	}
	s := &SignalHook{
		sigsC: make(chan os.Signal, 2),
		stopC: make(chan struct{}, 1),
	}
	signal.Notify(s.sigsC, sigs...)
	return s
}

func (s *SignalHook) AddSignalHook(f func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, f)
	s.mu.Unlock()
}

func (s *SignalHook) WaitSignals() os.Signal {
	log.Info("wait signals...")
	sig := <-s.sigsC
	log.Info("signal received: %s", sig.String())
	return sig
}

func (s *SignalHook) AsyncInvokeHooks() {
	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()
	go func() {
		for _, f := range hooks {
			f()
		}
		s.stopC <- struct{}{}
	}()
}

// WaitUntilTimeout returns when the hooks finished, a second signal arrived or d passed.
// It reports whether the hooks finished.
func (s *SignalHook) WaitUntilTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopC:
		log.Info("all signal hooks finished, graceful shutdown")
		return true
	case <-s.sigsC:
		log.Info("second signal received, hard shutdown")
	case <-timer.C:
		log.Info("signal time limit reached, hard shutdown")
	}
	return false
}

func (s *SignalHook) Stop() {
	signal.Stop(s.sigsC)
}
