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

package log

import (
	"fmt"
	"strings"
	"sync"
)

type Log interface {
	IsDebugEnabled() bool

	IsInfoEnabled() bool

	IsWarnEnabled() bool

	Debug(v ...any)
	Debugf(format string, v ...any)

	Info(v ...any)
	Infof(format string, v ...any)

	Warn(v ...any)
	Warnf(format string, v ...any)

	Error(v ...any)
	Errorf(format string, v ...any)

	//when system exit you should use it
	Flush()
}

type Level int8

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// ParseLevel accepts the names used in the [global] level config key.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return DEBUG, true
	case "info", "":
		return INFO, true
	case "warn", "warning":
		return WARN, true
	case "error":
		return ERROR, true
	}
	return INFO, false
}

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	default:
		return "error"
	}
}

var (
	mu      sync.RWMutex
	current Log
)

func Get() Log {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return std
	}
	return current
}

// Regist installs l as the process logger, flushing the previous one.
func Regist(l Log) {
	mu.Lock()
	prev := current
	current = l
	mu.Unlock()
	if prev != nil {
		prev.Flush()
	}
}

func IsDebugEnabled() bool {
	return Get().IsDebugEnabled()
}

func IsInfoEnabled() bool {
	return Get().IsInfoEnabled()
}

func IsWarnEnabled() bool {
	return Get().IsWarnEnabled()
}

func Errorf(format string, args ...any) {
	Get().Errorf(format, args...)
}

func Infof(format string, args ...any) {
	Get().Infof(format, args...)
}

func Debugf(format string, args ...any) {
	Get().Debugf(format, args...)
}

func Warnf(format string, args ...any) {
	Get().Warnf(format, args...)
}

func Error(args ...any) {
	Get().Error(args...)
}

func Warn(args ...any) {
	Get().Warn(args...)
}

func Info(args ...any) {
	Get().Info(args...)
}

func Debug(args ...any) {
	Get().Debug(args...)
}

func Flush() {
	Get().Flush()
}

// Format renders the arguments of Info, Warn and friends: a single argument is printed as
// is, otherwise the first one is the format of the rest.
func Format(v ...any) string {
	switch len(v) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(v[0])
	}
	if format, ok := v[0].(string); ok {
		return fmt.Sprintf(format, v[1:]...)
	}
	parts := make([]string, len(v))
	for i, a := range v {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}
