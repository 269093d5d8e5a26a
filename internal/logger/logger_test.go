package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	prod, err := New("production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_ReplacesGlobal(t *testing.T) {
	before := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(before) })

	require.NoError(t, Init("test"))
	assert.NotSame(t, before, zap.L())
}
