package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mnm-site/internal/app"
	"mnm-site/internal/config"
	"mnm-site/internal/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	a, err := app.New(&cfg, logger.Discard().Logger)
	require.NoError(t, err)

	return &Server{
		cfg:     &cfg,
		app:     a,
		logger:  logger.Discard(),
		started: time.Now().Add(-time.Minute),
	}
}

func TestAdminMux(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.adminMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, config.StorageMemory, status.StorageMode)
	assert.Equal(t, config.Default().Sui.CoinType, status.CoinType)
	assert.Equal(t, "30s", status.Stream)
	assert.NotEmpty(t, status.Uptime)
}
