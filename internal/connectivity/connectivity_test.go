package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialProbe(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())

	p, err := NewDialProbe(srv.URL, time.Second)
	require.NoError(t, err)
	assert.True(t, p.Online(context.Background()))

	srv.Close()
	assert.False(t, p.Online(context.Background()))
}

func TestDialProbeDefaultPort(t *testing.T) {
	p, err := NewDialProbe("https://example.invalid", 0)
	require.NoError(t, err)
	assert.Equal(t, "example.invalid:443", p.addr)
	assert.Equal(t, 2*time.Second, p.timeout)
}

func TestStatic(t *testing.T) {
	s := NewStatic(false)
	assert.False(t, s.Online(context.Background()))
	s.Set(true)
	assert.True(t, s.Online(context.Background()))
}
