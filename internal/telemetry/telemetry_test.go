package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "algolab", "test", true)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
