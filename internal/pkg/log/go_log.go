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
	golog "log"
	"os"
)

const (
	debugCode = "[DEBUG] "
	infoCode  = "[INFO] "
	warnCode  = "[WARN] "
	errCode   = "[ERROR] "
)

var std Log = NewGoLog(golog.New(os.Stderr, "", golog.Lshortfile|golog.LstdFlags), INFO)

// GoLog is the fallback used before a configured logger is registered, and in tests.
type GoLog struct {
	*golog.Logger
	L Level
}

func NewGoLog(lg *golog.Logger, l Level) Log {
	return &GoLog{Logger: lg, L: l}
}

func (g *GoLog) Flush() {
}

func (g *GoLog) IsDebugEnabled() bool {
	return g.L <= DEBUG
}

func (g *GoLog) IsInfoEnabled() bool {
	return g.L <= INFO
}

func (g *GoLog) IsWarnEnabled() bool {
	return g.L <= WARN
}

func (g *GoLog) Debugf(format string, args ...any) {
	if g.IsDebugEnabled() {
		g.write(debugCode, format, args...)
	}
}

func (g *GoLog) Infof(format string, args ...any) {
	if g.IsInfoEnabled() {
		g.write(infoCode, format, args...)
	}
}

func (g *GoLog) Warnf(format string, args ...any) {
	if g.IsWarnEnabled() {
		g.write(warnCode, format, args...)
	}
}

func (g *GoLog) Errorf(format string, args ...any) {
	g.write(errCode, format, args...)
}

func (g *GoLog) Debug(args ...any) {
	if g.IsDebugEnabled() {
		g.write(debugCode, "%s", Format(args...))
	}
}

func (g *GoLog) Info(args ...any) {
	if g.IsInfoEnabled() {
		g.write(infoCode, "%s", Format(args...))
	}
}

func (g *GoLog) Warn(args ...any) {
	if g.IsWarnEnabled() {
		g.write(warnCode, "%s", Format(args...))
	}
}

func (g *GoLog) Error(args ...any) {
	g.write(errCode, "%s", Format(args...))
}

func (g *GoLog) write(levelCode, format string, args ...any) {
	if len(args) == 0 {
		_ = g.Output(4, levelCode+format)
	} else {
		_ = g.Output(4, fmt.Sprintf(levelCode+format, args...))
	}
}
