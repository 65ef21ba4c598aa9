package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nodemonitor/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	assert.Equal(t, "0", TraceID(nil))
	assert.Equal(t, "0", TraceID(context.Background()))

	ctx := WithTraceID(context.Background(), "sweep-1a2b3c4d")
	assert.Equal(t, "sweep-1a2b3c4d", TraceID(ctx))

	assert.Equal(t, "0", TraceID(WithTraceID(context.Background(), "")))
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "monitor.log")
	require.NoError(t, Init(config.LoggerConfig{
		Level:  "debug",
		Output: "file",
		File:   config.LoggerFileConfig{Path: path},
	}))

	InfoCtx(WithTraceID(context.Background(), "req-42"), "node %s refreshed", "abc")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "req-42")
	assert.Contains(t, string(data), "node abc refreshed")
}
