package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false, Endpoint: "collector:4317"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = Init(context.Background(), Config{Enabled: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
