package logging

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	l.Info("delivered", "webhook", "wh-1", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg=delivered`)
	assert.Contains(t, out, "webhook=wh-1")
	assert.Contains(t, out, "status=200")
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden too")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	l.Error("failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "chatty")

	l.Debug("hidden")
	assert.Empty(t, buf.String())
	l.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestFields_OddKeyvals(t *testing.T) {
	f := fields([]any{"a", 1, "dangling"})
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "(missing)", f["dangling"])
}

func TestLogger_WriterSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "error")

	fmt.Fprintln(l.Writer(), `{"level":"WARN","message":"from echo"}`)
	l.Error("from logrus")

	out := buf.String()
	assert.Contains(t, out, "from echo")
	assert.Contains(t, out, "from logrus")
}
