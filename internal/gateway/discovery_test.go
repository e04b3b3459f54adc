package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveryEnv(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	env := newTestEnv(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	env.client.cfg.APIBase = srv.URL
	env.client.http = srv.Client()
	return env.client
}

func TestDiscoverGatewayURL(t *testing.T) {
	c := discoveryEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gateway", r.URL.Path)
		_, _ = w.Write([]byte(`{"url":"wss://gateway.example/?v=9"}`))
	})

	url, err := c.discoverGatewayURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://gateway.example/?v=9", url)
}

func TestDiscoverGatewayURL_HTTPError(t *testing.T) {
	c := discoveryEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.discoverGatewayURL(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestDiscoverGatewayURL_BadBody(t *testing.T) {
	c := discoveryEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.discoverGatewayURL(context.Background())
	assert.Error(t, err)
}

func TestDiscoverGatewayURL_MissingURL(t *testing.T) {
	c := discoveryEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.discoverGatewayURL(context.Background())
	assert.Error(t, err)
}
