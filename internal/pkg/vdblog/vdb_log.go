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

package vdblog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vearch/vdbclient/internal/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirror the log keys of the [global] config section.
type Options struct {
	Dir       string
	Module    string
	Level     string
	FileNum   int
	FileSize  int // megabytes
	ToConsole bool
}

// NewVdbLog builds a zap logger writing to <Dir>/<Module>.log with size based rotation. An
// empty Dir logs to stderr only.
func NewVdbLog(opts Options) (*vdbLog, error) {
	level, ok := log.ParseLevel(opts.Level)
	if !ok {
		return nil, &unknownLevelError{level: opts.Level}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enabler := zap.NewAtomicLevelAt(zapLevel(level))

	var cores []zapcore.Core
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
			return nil, err
		}
		module := opts.Module
		if module == "" {
			module = "vdb"
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, strings.ToUpper(module)+".log"),
			MaxSize:    opts.FileSize,
			MaxBackups: opts.FileNum,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(writer), enabler))
	}
	if opts.ToConsole || opts.Dir == "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), enabler))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))
	return &vdbLog{sugar: logger.Sugar(), level: level}, nil
}

type unknownLevelError struct {
	level string
}

func (e *unknownLevelError) Error() string {
	return "unknown output log level: " + e.level
}

func zapLevel(l log.Level) zapcore.Level {
	switch l {
	case log.DEBUG:
		return zapcore.DebugLevel
	case log.INFO:
		return zapcore.InfoLevel
	case log.WARN:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

type vdbLog struct {
	sugar *zap.SugaredLogger
	level log.Level
}

func (l *vdbLog) IsDebugEnabled() bool {
	return l.level <= log.DEBUG
}

func (l *vdbLog) IsInfoEnabled() bool {
	return l.level <= log.INFO
}

func (l *vdbLog) IsWarnEnabled() bool {
	return l.level <= log.WARN
}

func (l *vdbLog) Debug(v ...any) {
	l.sugar.Debug(log.Format(v...))
}

func (l *vdbLog) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}

func (l *vdbLog) Info(v ...any) {
	l.sugar.Info(log.Format(v...))
}

func (l *vdbLog) Infof(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

func (l *vdbLog) Warn(v ...any) {
	l.sugar.Warn(log.Format(v...))
}

func (l *vdbLog) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

func (l *vdbLog) Error(v ...any) {
	l.sugar.Error(log.Format(v...))
}

func (l *vdbLog) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

func (l *vdbLog) Flush() {
	_ = l.sugar.Sync()
}
