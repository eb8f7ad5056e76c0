package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	level string
	msg   string
	args  []any
}

func (l *captureLogger) Debug(msg string, args ...any) { l.level, l.msg, l.args = "debug", msg, args }
func (l *captureLogger) Info(msg string, args ...any)  { l.level, l.msg, l.args = "info", msg, args }
func (l *captureLogger) Warn(msg string, args ...any)  { l.level, l.msg, l.args = "warn", msg, args }
func (l *captureLogger) Error(msg string, args ...any) { l.level, l.msg, l.args = "error", msg, args }

func TestLogToolCall(t *testing.T) {
	l := &captureLogger{}

	LogToolCall(l, "bash", 40*time.Millisecond, true, nil)
	assert.Equal(t, "info", l.level)
	assert.Equal(t, "tool execution completed", l.msg)
	assert.Contains(t, l.args, "bash")

	LogToolCall(l, "bash", time.Millisecond, false, errors.New("exit 1"))
	assert.Equal(t, "error", l.level)
	assert.Equal(t, "tool execution failed", l.msg)
	assert.Contains(t, l.args, "exit 1")
}

func TestLogModelCall(t *testing.T) {
	l := &captureLogger{}

	LogModelCall(l, "gpt-4o-mini", 120, 30, 250*time.Millisecond, nil)
	assert.Equal(t, "info", l.level)
	assert.Equal(t, "model call completed", l.msg)
	assert.Contains(t, l.args, 120)

	LogModelCall(l, "gpt-4o-mini", 0, 0, time.Millisecond, errors.New("rate limited"))
	assert.Equal(t, "error", l.level)
	assert.Equal(t, "model call failed", l.msg)
	assert.Contains(t, l.args, "rate limited")
}
