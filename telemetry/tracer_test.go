package telemetry

import (
	"context"
	"testing"

	"painel/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabled(t *testing.T) {
	var conf config.Configuration
	tp, err := InitTracer(context.Background(), conf)
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestInitTracerEnabled(t *testing.T) {
	var conf config.Configuration
	conf.Telemetry.Enabled = true
	conf.Telemetry.Endpoint = "localhost:4318"
	conf.Telemetry.SamplingRate = 0.5
	conf.Telemetry.Environment = "test"

	tp, err := InitTracer(context.Background(), conf)
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
