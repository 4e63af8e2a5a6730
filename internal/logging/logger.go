// Package logging provides runtime.Logger implementations for code running
// outside a Nakama process.
package logging

import (
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Nop returns a logger that discards everything.
func Nop() runtime.Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) WithField(string, interface{}) runtime.Logger {
	return nopLogger{}
}
func (nopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return nopLogger{}
}
func (nopLogger) Fields() map[string]interface{} {
	return nil
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Writer logs printf-style lines to an io.Writer.
type Writer struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	fields map[string]interface{}
	now    func() time.Time
}

// New returns a Writer logging at or above level.
func New(out io.Writer, level Level) *Writer {
	return &Writer{mu: &sync.Mutex{}, out: out, level: level, now: time.Now}
}

func (w *Writer) Debug(format string, v ...interface{}) { w.log(LevelDebug, "DEBUG", format, v) }
func (w *Writer) Info(format string, v ...interface{})  { w.log(LevelInfo, "INFO", format, v) }
func (w *Writer) Warn(format string, v ...interface{})  { w.log(LevelWarn, "WARN", format, v) }
func (w *Writer) Error(format string, v ...interface{}) { w.log(LevelError, "ERROR", format, v) }

func (w *Writer) WithField(key string, v interface{}) runtime.Logger {
	return w.WithFields(map[string]interface{}{key: v})
}

func (w *Writer) WithFields(fields map[string]interface{}) runtime.Logger {
	next := *w
	next.fields = maps.Clone(w.fields)
	if next.fields == nil {
		next.fields = make(map[string]interface{}, len(fields))
	}
	maps.Copy(next.fields, fields)
	return &next
}

func (w *Writer) Fields() map[string]interface{} {
	return maps.Clone(w.fields)
}

func (w *Writer) log(level Level, tag, format string, v []interface{}) {
	if level < w.level {
		return
	}
	var b strings.Builder
	b.WriteString(w.now().Format("15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(tag)
	b.WriteString(" ")
	fmt.Fprintf(&b, format, v...)
	if len(w.fields) > 0 {
		keys := make([]string, 0, len(w.fields))
		for k := range w.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, w.fields[k])
		}
	}
	b.WriteString("\n")

	w.mu.Lock()
	defer w.mu.Unlock()
	io.WriteString(w.out, b.String())
}
