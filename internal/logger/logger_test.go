package logger

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

func TestNewLogger(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		l, err := NewLogger("", "debug")
		require.NoError(t, err)
		l.Debug("debug %d", 1)
	})

	t.Run("with log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		l, err := NewLogger(dir, "info")
		require.NoError(t, err)
		l.Info("hello %s", "file")
		_ = l.Sync()

		_, err = os.Stat(filepath.Join(dir, "repodoc.log"))
		assert.NoError(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(zap.New(core))

	l.Debug("dropped")
	l.Info("info %d", 1)
	l.Warn("warn %s", "x")
	l.Error("error")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "info 1", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "error", entries[2].Message)
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	assert.NoError(t, l.Sync())
}
