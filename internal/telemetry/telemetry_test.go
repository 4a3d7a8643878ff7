package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faves_sorter/internal/config"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "faves_sorter"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_InsecureEndpoint(t *testing.T) {
	// The gRPC client connects lazily, so no collector needs to be listening.
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		OTLPEndpoint: "127.0.0.1:4317",
		Insecure:     true,
		ServiceName:  "faves_sorter",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
