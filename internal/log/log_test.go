package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionFiltering(t *testing.T) {
	SetLevel(slog.LevelDebug)
	defer SetLevel(slog.LevelWarn)

	buf := &bytes.Buffer{}
	logger := New(buf)

	logger.With("section", "store").Debug("kept")
	logger.With("section", "parser").Debug("dropped")
	logger.Debug("kept too", "section", "cse")
	logger.With("section", "parser").Warn("warnings always pass")

	out := buf.String()
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "kept too")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "warnings always pass")
}

func TestLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf)
	logger.With("section", "store").Info("below warn")
	assert.Empty(t, buf.String())
}
