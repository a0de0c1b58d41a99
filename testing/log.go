package testing

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stairlin/relay/log"
)

const (
	// TC is the TRACE log constant
	TC = "TRACE"
	// WN is the WARNING log constant
	WN = "WARN"
	// ER is the ERROR log constant
	ER = "ERRR"
)

// Logger is a simple Logger interface useful for tests.
// In strict mode, an error log line fails the test
type Logger struct {
	t *testing.T

	strict    bool
	calldepth int
	lines     *lineCount
	fields    []log.Field
}

// NewLogger creates a new logger
func NewLogger(t *testing.T, strict bool) log.Logger {
	return &Logger{
		t:         t,
		strict:    strict,
		calldepth: 1,
		lines:     &lineCount{lines: map[string]int{}},
	}
}

func (l *Logger) l(s, tag, msg string, fields ...log.Field) {
	if s == ER && l.strict {
		l.t.Error(s, format(tag, msg, fields...))
	} else {
		l.t.Log(s, format(tag, msg, fields...))
	}
	l.lines.inc(s)
}

// Lines returns the number of log lines for the given severity.
// Lines logged through derived loggers are counted as well
func (l *Logger) Lines(s string) int {
	return l.lines.count(s)
}

func (l *Logger) Trace(tag, msg string, fields ...log.Field)   { l.l(TC, tag, msg, fields...) }
func (l *Logger) Warning(tag, msg string, fields ...log.Field) { l.l(WN, tag, msg, fields...) }
func (l *Logger) Error(tag, msg string, fields ...log.Field)   { l.l(ER, tag, msg, fields...) }

func (l *Logger) With(fields ...log.Field) log.Logger {
	nl := *l
	nl.fields = append(l.fields, fields...)
	return &nl
}

func (l *Logger) AddCalldepth(n int) log.Logger {
	nl := *l
	nl.calldepth = l.calldepth + n
	return &nl
}

type lineCount struct {
	mu    sync.RWMutex
	lines map[string]int
}

func (c *lineCount) inc(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[s]++
}

func (c *lineCount) count(s string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lines[s]
}

func format(tag, msg string, fields ...log.Field) string {
	var b bytes.Buffer

	b.WriteString(tag)
	b.WriteString(" ")
	b.WriteString(msg)
	b.WriteString(" ")

	for _, f := range fields {
		k, v := f.KV()
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
		b.WriteString(" ")
	}
	return b.String()
}
