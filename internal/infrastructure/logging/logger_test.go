package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesJSONWithComponentName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "debug", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.For(ComponentTransport).Info("Reconnect scheduled", zap.Int("attempt", 2))
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"transport"`)
	assert.Contains(t, string(data), `"message":"Reconnect scheduled"`)
	assert.Contains(t, string(data), `"attempt":2`)
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestFallbacks(t *testing.T) {
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewDevelopment())
	assert.NotPanics(t, func() { NewNop().For(ComponentStore).Info("x") })
}
