package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandler(t *testing.T) {
	var debug, warn bytes.Buffer

	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)).With("map_id", "m-1")

	logger.Debug("retrying after edit conflict")
	logger.Warn("hold already released")

	assert.Contains(t, debug.String(), "retrying after edit conflict")
	assert.Contains(t, debug.String(), "hold already released")
	assert.NotContains(t, warn.String(), "retrying after edit conflict")
	assert.Contains(t, warn.String(), "hold already released")
	assert.Contains(t, warn.String(), "map_id=m-1")
}
