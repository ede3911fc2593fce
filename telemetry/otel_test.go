package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTelProvider_RequiresServiceName(t *testing.T) {
	_, err := NewOTelProvider(context.Background(), ProviderOptions{})
	require.Error(t, err)
}

func TestNewOTelProvider_StdoutDefault(t *testing.T) {
	provider, err := NewOTelProvider(context.Background(), ProviderOptions{
		ServiceName: "cascade-test",
	})
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer provider.Shutdown(context.Background())

	ctx, span := provider.StartSpan(context.Background(), "test-span")
	require.NotNil(t, span)
	span.SetAttribute("tier", "code")
	span.RecordError(assert.AnError)
	span.End()
	assert.NotNil(t, ctx)

	provider.RecordMetric(MetricTierDuration, 12.5, map[string]string{"tier": "code"})
	provider.RecordMetric(MetricEscalations, 1, map[string]string{"from_tier": "code", "to_tier": "generative"})
}

func TestOTelProvider_ShutdownIsIdempotent(t *testing.T) {
	provider, err := NewOTelProvider(context.Background(), ProviderOptions{
		ServiceName: "cascade-test",
	})
	require.NoError(t, err)

	require.NoError(t, provider.Shutdown(context.Background()))
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestOTelProvider_NoOpAfterShutdown(t *testing.T) {
	provider, err := NewOTelProvider(context.Background(), ProviderOptions{
		ServiceName: "cascade-test",
	})
	require.NoError(t, err)
	require.NoError(t, provider.Shutdown(context.Background()))

	_, span := provider.StartSpan(context.Background(), "after-shutdown")
	assert.NotNil(t, span)
	span.End()

	provider.RecordMetric(MetricRetries, 1, nil)
}

func TestIsDurationMetric(t *testing.T) {
	assert.True(t, isDurationMetric(MetricTierDuration))
	assert.True(t, isDurationMetric(MetricTotalDuration))
	assert.False(t, isDurationMetric(MetricEscalations))
	assert.False(t, isDurationMetric(MetricRetries))
}
