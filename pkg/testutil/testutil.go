// Package testutil provides testing utilities for genpool
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// RequirePoolPanic runs fn and fails the test unless it panics with a
// *poolerrors.Error of type want.
func RequirePoolPanic(t *testing.T, want poolerrors.ErrorType, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := poolerrors.FromPanic(r)
		require.True(t, ok, "panic value %v is not a pool error", r)
		assert.Equal(t, want, err.Type, err.Error())
	}()
	fn()
}
