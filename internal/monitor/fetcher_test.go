package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, mutate func(*config.MonitorConfig)) *Fetcher {
	t.Helper()
	mc := config.NewDefaultMonitorConfig()
	if mutate != nil {
		mutate(&mc)
	}
	f, err := NewFetcher(mc.Normalize(), zerolog.Nop())
	require.NoError(t, err)
	return f
}

func TestFetcher_FetchText(t *testing.T) {
	var gotUA atomic.Value
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotUA.Store(r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>New Apple pie</p>"))
	}))
	defer server.Close()

	text, err := newTestFetcher(t, nil).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>New Apple pie</p>", text)
	assert.Equal(t, config.DefaultUserAgent, gotUA.Load())
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_StatusError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(t, nil).FetchText(context.Background(), server.URL)
	require.Error(t, err)

	fe, ok := common.IsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, common.FetchErrorStatus, fe.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(1), hits.Load(), "no retries")
}

func TestFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher(t, nil).FetchText(context.Background(), url)
	fe, ok := common.IsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, common.FetchErrorNetwork, fe.Kind)
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := newTestFetcher(t, func(mc *config.MonitorConfig) { mc.HTTPTimeoutSeconds = 1 })
	start := time.Now()
	_, err := f.FetchText(context.Background(), server.URL)
	fe, ok := common.IsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, common.FetchErrorNetwork, fe.Kind)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetcher_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	f := newTestFetcher(t, func(mc *config.MonitorConfig) { mc.MaxContentSize = 4 })
	text, err := f.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123", text)
}
