package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperflow-ai/paperflow/config"
)

func TestInit_DisabledReturnsNoop(t *testing.T) {
	t.Parallel()
	p, err := Init(config.TelemetryConfig{Enabled: false}, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)

	// Shutdown on noop providers is safe, including on nil.
	assert.NoError(t, p.Shutdown(context.Background()))
	var nilP *Providers
	assert.NoError(t, nilP.Shutdown(context.Background()))
}
