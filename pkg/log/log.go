// Copyright 2026 The Callgate Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a minimal leveled logging facility with pluggable
// emitters. The protocol packages log through it so a library consumer can
// route or silence their output without touching them.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a log level.
type Level uint32

const (
	// Warning indicates a problem that the process can continue past.
	Warning Level = iota

	// Info indicates a useful trace of normal operation.
	Info

	// Debug indicates verbose per-item detail.
	Debug
)

// String implements fmt.Stringer.String.
func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", uint32(l))
	}
}

// An Emitter writes one formatted log line somewhere.
type Emitter interface {
	Emit(level Level, timestamp time.Time, format string, v ...any)
}

// Writer is an Emitter writing plain lines to an io.Writer.
type Writer struct {
	// Next is the destination.
	Next io.Writer

	// mu protects Next against interleaved lines.
	mu sync.Mutex
}

// Emit implements Emitter.Emit.
func (w *Writer) Emit(level Level, timestamp time.Time, format string, v ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Next, "%s %c: ", timestamp.Format(time.RFC3339Nano), level.String()[0]-32)
	fmt.Fprintf(w.Next, format, v...)
	io.WriteString(w.Next, "\n")
}

// A Logger logs formatted messages at each level.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warningf(format string, v ...any)
	IsLogging(level Level) bool
}

// BasicLogger is the Logger implementation: a maximum level and an emitter.
type BasicLogger struct {
	Level Level
	Emitter
}

// Debugf implements Logger.Debugf.
func (l *BasicLogger) Debugf(format string, v ...any) {
	if l.IsLogging(Debug) {
		l.Emit(Debug, time.Now(), format, v...)
	}
}

// Infof implements Logger.Infof.
func (l *BasicLogger) Infof(format string, v ...any) {
	if l.IsLogging(Info) {
		l.Emit(Info, time.Now(), format, v...)
	}
}

// Warningf implements Logger.Warningf.
func (l *BasicLogger) Warningf(format string, v ...any) {
	if l.IsLogging(Warning) {
		l.Emit(Warning, time.Now(), format, v...)
	}
}

// IsLogging implements Logger.IsLogging.
func (l *BasicLogger) IsLogging(level Level) bool {
	return level <= l.Level
}

// log is the global logger.
var logger atomic.Pointer[BasicLogger]

func init() {
	logger.Store(&BasicLogger{Level: Warning, Emitter: &Writer{Next: os.Stderr}})
}

// Log returns the global logger.
func Log() *BasicLogger {
	return logger.Load()
}

// SetTarget sets the global logger's emitter, preserving its level.
func SetTarget(e Emitter) {
	logger.Store(&BasicLogger{Level: Log().Level, Emitter: e})
}

// SetLevel sets the global logger's level, preserving its emitter.
func SetLevel(level Level) {
	logger.Store(&BasicLogger{Level: level, Emitter: Log().Emitter})
}

// Debugf logs to the global logger.
func Debugf(format string, v ...any) {
	Log().Debugf(format, v...)
}

// Infof logs to the global logger.
func Infof(format string, v ...any) {
	Log().Infof(format, v...)
}

// Warningf logs to the global logger.
func Warningf(format string, v ...any) {
	Log().Warningf(format, v...)
}
