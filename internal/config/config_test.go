package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/validator"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults when the environment is empty", func(t *testing.T) {
		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "ws://127.0.0.1:9944", cfg.NodeEndpoint)
		assert.Empty(t, cfg.BackendURL)
		assert.Equal(t, "claddash.db", cfg.DataPath)
		assert.Equal(t, uint64(50), cfg.BackfillDepth)
		assert.Empty(t, cfg.Redis.Addr)
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		t.Setenv("CLADDASH_LOG_LEVEL", "debug")
		t.Setenv("CLADDASH_NODE_ENDPOINT", "wss://rpc.clad.example")
		t.Setenv("CLADDASH_BACKEND_URL", "https://backend.clad.example")
		t.Setenv("CLADDASH_BACKFILL_DEPTH", "200")
		t.Setenv("CLADDASH_REDIS_ADDR", "127.0.0.1:6379")
		t.Setenv("CLADDASH_REDIS_DB", "3")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "wss://rpc.clad.example", cfg.NodeEndpoint)
		assert.Equal(t, "https://backend.clad.example", cfg.BackendURL)
		assert.Equal(t, uint64(200), cfg.BackfillDepth)
		assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
		assert.Equal(t, 3, cfg.Redis.DB)
	})

	t.Run("should reject a malformed backend URL", func(t *testing.T) {
		t.Setenv("CLADDASH_BACKEND_URL", "not a url")

		_, err := Load()

		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("should reject a zero backfill depth", func(t *testing.T) {
		t.Setenv("CLADDASH_BACKFILL_DEPTH", "0")

		_, err := Load()

		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})
}
