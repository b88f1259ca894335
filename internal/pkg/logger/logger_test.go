package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetLogger resets the global logger state for testing
func resetLogger() {
	logger = zap.NewNop().Sugar()
	initOnce = sync.Once{}
}

func TestInit(t *testing.T) {
	t.Run("successful initialization with default level", func(t *testing.T) {
		resetLogger()

		err := Init()

		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("successful initialization with debug level", func(t *testing.T) {
		resetLogger()

		err := Init(WithLevel("debug"))

		require.NoError(t, err)
	})

	t.Run("error with invalid level", func(t *testing.T) {
		resetLogger()

		err := Init(WithLevel("invalid"))

		assert.Error(t, err)
	})

	t.Run("init only once", func(t *testing.T) {
		resetLogger()

		require.NoError(t, Init(WithLevel("debug")))
		firstLogger := logger

		require.NoError(t, Init(WithLevel("error")))
		assert.Equal(t, firstLogger, logger, "Init() should only initialize once")
	})
}

func TestLogBeforeInit(t *testing.T) {
	t.Run("should not panic before initialization", func(t *testing.T) {
		resetLogger()

		assert.NotPanics(t, func() {
			Debug(t.Context(), "debug message", "key", "value")
			Info(t.Context(), "info message")
			Warn(t.Context(), "warn message")
			Error(t.Context(), "error message")
		})
	})
}
