package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger writes leveled, structured lines through logrus. Every method takes a
// message followed by alternating key/value pairs.
type Logger struct {
	base *logrus.Logger
}

// NewLogger creates a Logger writing to stdout at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func NewLogger(level string) *Logger {
	return New(os.Stdout, level)
}

// New creates a Logger writing to w.
func New(w io.Writer, level string) *Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.Level = lvl
	return &Logger{base: l}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.with(keyvals).Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.with(keyvals).Info(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.with(keyvals).Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.with(keyvals).Error(msg)
}

// Writer exposes the underlying output, for components such as echo that
// format their own lines.
func (l *Logger) Writer() io.Writer {
	return l.base.Out
}

func (l *Logger) with(keyvals []any) *logrus.Entry {
	return l.base.WithFields(fields(keyvals))
}

func fields(keyvals []any) logrus.Fields {
	f := make(logrus.Fields, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			f[key] = "(missing)"
			break
		}
		f[key] = keyvals[i+1]
	}
	return f
}
