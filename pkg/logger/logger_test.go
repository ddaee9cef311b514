package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestGetDefaultsToNop(t *testing.T) {
	Set(nil)
	assert.NotNil(t, Get())
	assert.False(t, Get().Core().Enabled(zapcore.ErrorLevel))
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	ctx := context.WithValue(context.Background(), PoolKey, "entities")
	ctx = context.WithValue(ctx, TickKey, 7)
	ctx = context.WithValue(ctx, RunIDKey, "run-1")

	WithContext(ctx).Info("tick finished")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "entities", fields["pool"])
	assert.Equal(t, int64(7), fields["tick"])
	assert.Equal(t, "run-1", fields["run_id"])
}

func TestSyncWithoutInit(t *testing.T) {
	Set(nil)
	assert.NoError(t, Sync())
}

func TestInit(t *testing.T) {
	defer Set(nil)
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console", OutputPaths: []string{"stderr"}}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}
