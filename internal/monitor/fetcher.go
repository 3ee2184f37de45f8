package monitor

import (
	"context"
	"errors"
	"net/http"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/httpclient"
	"github.com/rs/zerolog"
)

// Fetcher retrieves page content with a single GET per call. It never
// retries; the next tick is the retry.
type Fetcher struct {
	client *httpclient.HTTPClient
	logger zerolog.Logger
}

// NewFetcher builds a Fetcher whose client carries the configured
// User-Agent, request timeout and body limit.
func NewFetcher(cfg config.MonitorConfig, logger zerolog.Logger) (*Fetcher, error) {
	client, err := httpclient.NewHTTPClientBuilder(logger).
		WithUserAgent(cfg.UserAgent).
		WithTimeout(cfg.HTTPTimeout()).
		WithMaxContentSize(cfg.MaxContentSize).
		Build()
	if err != nil {
		return nil, err
	}
	return NewFetcherWithClient(client, logger), nil
}

// NewFetcherWithClient wraps an existing client.
func NewFetcherWithClient(client *httpclient.HTTPClient, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger.With().Str("component", "Fetcher").Logger(),
	}
}

// FetchText returns the response body of url. Non-2xx answers fail with a
// status FetchError, transport failures with a network FetchError.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := f.client.Do(&httpclient.HTTPRequest{
		URL:     url,
		Method:  http.MethodGet,
		Context: ctx,
	})
	if err != nil {
		var netErr *httpclient.NetworkError
		if errors.As(err, &netErr) {
			return "", common.NewNetworkFetchError(url, netErr.Err)
		}
		return "", common.NewNetworkFetchError(url, err)
	}

	if !resp.IsSuccess() {
		f.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		return "", common.NewStatusFetchError(url, resp.StatusCode)
	}

	f.logger.Debug().
		Str("url", url).
		Str("content_type", resp.Headers["Content-Type"]).
		Int("size", len(resp.Body)).
		Bool("truncated", resp.Truncated).
		Msg("Page fetched")
	return string(resp.Body), nil
}
