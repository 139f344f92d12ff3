package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInit_WritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	require.NoError(t, Init(Config{Level: "info", Encoding: "json", OutputPaths: []string{path}}))
	With(zap.String("component", "test")).Info("reading spreadsheet", zap.String("path", "x.xlsx"))
	Get().Debug("hidden")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"reading spreadsheet"`)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.NotContains(t, string(data), "hidden")

	require.NoError(t, Init(DefaultConfig()))
}
