package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestAdapterNamesComponents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := NewAdapter(zap.New(core))

	a.Infof("fb", "framebuffer open, bounds=%dx%d", 800, 480)
	a.Errorf("storage", "set %s: %v", "certificate-generator-config", "quota exceeded")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "fb", entries[0].LoggerName)
	assert.Equal(t, "framebuffer open, bounds=800x480", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "storage", entries[1].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNilAdapterBase(t *testing.T) {
	a := NewAdapter(nil)
	assert.NotPanics(t, func() { a.Infof("web", "listening") })
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certmaker.log")
	l, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	a := NewAdapter(l)
	a.Infof("editor", "Configuration saved successfully!")
	_ = a.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"editor"`)
	assert.Contains(t, string(data), "Configuration saved successfully!")
}

func TestNewDevelopmentLevel(t *testing.T) {
	l, err := New(Config{Level: "error", Development: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}
