package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	require.NotNil(t, provider.Metrics())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "prometheus without tracing",
			config: Config{ServiceName: "t", Enabled: true,
				MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name: "stdout tracing",
			config: Config{ServiceName: "t", Enabled: true,
				MetricsExporter: ExporterPrometheus, TracingExporter: ExporterStdout, TraceSamplingRate: 1},
		},
		{
			name: "otlp metrics without endpoint",
			config: Config{ServiceName: "t", Enabled: true,
				MetricsExporter: ExporterOTLP, TracingExporter: ExporterNone},
			wantErr: true,
		},
		{
			name: "unknown tracing exporter",
			config: Config{ServiceName: "t", Enabled: true,
				MetricsExporter: ExporterPrometheus, TracingExporter: "zipkin"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = provider.Shutdown(ctx) }()

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.NotNil(t, provider.Tracer("test"))
		})
	}
}
