package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

func TestNewResource(t *testing.T) {
	serviceNameOf := func(t *testing.T, serviceName string) string {
		t.Helper()

		res, err := newResource(serviceName)
		require.NoError(t, err)
		require.NotNil(t, res)

		for _, attr := range res.Attributes() {
			if attr.Key == semconv.ServiceNameKey {
				return attr.Value.AsString()
			}
		}
		return ""
	}

	t.Run("valid service name", func(t *testing.T) {
		assert.Equal(t, "claddash", serviceNameOf(t, "claddash"))
	})

	t.Run("service name with special characters", func(t *testing.T) {
		assert.Equal(t, "test-service-123_special", serviceNameOf(t, "test-service-123_special"))
	})
}

func TestLoggerProvider(t *testing.T) {
	t.Run("nil before initialization", func(t *testing.T) {
		assert.Nil(t, LoggerProvider())
	})
}
