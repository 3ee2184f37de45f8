package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFlags(t *testing.T, f globalFlags) {
	t.Helper()
	saved := flags
	flags = f
	t.Cleanup(func() { flags = saved })
}

func TestServerBaseURL(t *testing.T) {
	withFlags(t, globalFlags{Server: "http://10.0.0.1:9000/"})
	assert.Equal(t, "http://10.0.0.1:9000", serverBaseURL())

	path := filepath.Join(t.TempDir(), "keywatch.yaml")
	cfg := config.NewDefaultGlobalConfig()
	cfg.ServerConfig.ListenAddr = "127.0.0.1:9999"
	require.NoError(t, config.SaveGlobalConfig(cfg, path))

	withFlags(t, globalFlags{ConfigFile: path})
	assert.Equal(t, "http://127.0.0.1:9999", serverBaseURL())
}

func TestAPIClient_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_, _ = w.Write([]byte(`{"monitoring":{"enabled":true},"badge_text":"2","notification_count":2}`))
		case "/api/check":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"check already in progress"}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	withFlags(t, globalFlags{Server: srv.URL})
	client, err := newAPIClient()
	require.NoError(t, err)

	var status models.Status
	require.NoError(t, client.get(context.Background(), "/api/status", nil, &status))
	assert.True(t, status.Monitoring.Enabled)
	assert.Equal(t, "2", status.BadgeText)
	assert.EqualValues(t, 2, status.NotificationCount)

	err = client.call(context.Background(), http.MethodPost, "/api/check", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check already in progress")
	assert.Contains(t, err.Error(), "409")

	err = client.call(context.Background(), http.MethodGet, "/nope", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 418")
}
