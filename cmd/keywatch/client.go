package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/httpclient"
	"github.com/pterm/pterm"
)

// apiClient talks to a running daemon.
type apiClient struct {
	baseURL string
	http    *httpclient.HTTPClient
}

func newAPIClient() (*apiClient, error) {
	hc, err := httpclient.NewHTTPClientBuilder(nopLogger()).
		WithTimeout(2 * time.Minute).
		WithFollowRedirects(false).
		Build()
	if err != nil {
		return nil, err
	}
	return &apiClient{baseURL: serverBaseURL(), http: hc}, nil
}

// serverBaseURL prefers --server, then the listen address from the config
// file, then the default address.
func serverBaseURL() string {
	if s := strings.TrimSpace(flags.Server); s != "" {
		return strings.TrimRight(s, "/")
	}
	addr := config.DefaultListenAddr
	if path := config.GetConfigPath(flags.ConfigFile); path != "" {
		if gCfg, err := config.LoadGlobalConfig(path); err == nil && gCfg.ServerConfig.ListenAddr != "" {
			addr = gCfg.ServerConfig.ListenAddr
		}
	}
	return "http://" + addr
}

func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	err := c.http.DoJSON(ctx, method, c.baseURL+path, in, out)
	if err == nil {
		return nil
	}

	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(httpErr.Body), &body) == nil && body.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", body.Error, httpErr.StatusCode)
		}
		return fmt.Errorf("daemon returned HTTP %d", httpErr.StatusCode)
	}

	var netErr *httpclient.NetworkError
	if errors.As(err, &netErr) {
		pterm.Error.Printfln("Could not reach keywatch daemon at %s. Is `keywatch run` running?", c.baseURL)
	}
	return err
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func wantJSON() bool {
	return flags.Output == "json"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
