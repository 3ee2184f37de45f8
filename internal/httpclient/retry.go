package httpclient

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RetryHandlerConfig controls how a client retries failed requests.
type RetryHandlerConfig struct {
	MaxRetries       int           `json:"max_retries"`
	BaseDelay        time.Duration `json:"base_delay"`
	MaxDelay         time.Duration `json:"max_delay"`
	EnableJitter     bool          `json:"enable_jitter"`
	RetryStatusCodes []int         `json:"retry_status_codes"`
}

// DefaultRetryHandlerConfig retries rate limiting and transient server
// errors a few times. Used for notification webhooks, never for page fetches.
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		MaxDelay:     10 * time.Second,
		EnableJitter: true,
		RetryStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// RetryHandler re-sends a request with exponential backoff when the
// transport fails or the server answers with one of the retry status codes.
// A Retry-After header in seconds overrides the computed delay, capped at
// MaxDelay.
type RetryHandler struct {
	cfg       RetryHandlerConfig
	retryable map[int]struct{}
	logger    zerolog.Logger
}

func NewRetryHandler(cfg RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	retryable := make(map[int]struct{}, len(cfg.RetryStatusCodes))
	for _, code := range cfg.RetryStatusCodes {
		retryable[code] = struct{}{}
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &RetryHandler{
		cfg:       cfg,
		retryable: retryable,
		logger:    logger.With().Str("component", "RetryHandler").Logger(),
	}
}

// ShouldRetry reports whether a response with statusCode on the given
// zero-based attempt earns another try.
func (rh *RetryHandler) ShouldRetry(statusCode int, attempt int) bool {
	if attempt >= rh.cfg.MaxRetries {
		return false
	}
	_, ok := rh.retryable[statusCode]
	return ok
}

// CalculateDelay returns BaseDelay doubled per attempt, capped at MaxDelay,
// plus up to 10% jitter when enabled.
func (rh *RetryHandler) CalculateDelay(attempt int) time.Duration {
	delay := rh.cfg.BaseDelay
	for i := 0; i < attempt && delay < rh.cfg.MaxDelay; i++ {
		delay *= 2
	}
	if delay > rh.cfg.MaxDelay {
		delay = rh.cfg.MaxDelay
	}
	if rh.cfg.EnableJitter && delay >= 10 {
		delay += rand.N(delay / 10)
	}
	return delay
}

// DoWithRetry runs doFunc until it succeeds, returns a non-retryable status
// or runs out of attempts. The request body is buffered so every attempt
// sends it in full.
func (rh *RetryHandler) DoWithRetry(ctx context.Context, doFunc func(*HTTPRequest) (*HTTPResponse, error), req *HTTPRequest) (*HTTPResponse, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, WrapError(err, "failed to buffer request body")
		}
		body = b
	}

	for attempt := 0; ; attempt++ {
		attemptReq := *req
		if body != nil {
			attemptReq.Body = bytes.NewReader(body)
		}

		resp, err := doFunc(&attemptReq)
		var delay time.Duration
		switch {
		case err != nil:
			if attempt >= rh.cfg.MaxRetries || ctx.Err() != nil {
				return nil, WrapError(err, "all retry attempts failed")
			}
			delay = rh.CalculateDelay(attempt)
			rh.logger.Debug().Err(err).Str("url", req.URL).Int("attempt", attempt+1).Dur("delay", delay).Msg("Request failed, retrying")

		case rh.ShouldRetry(resp.StatusCode, attempt):
			delay = rh.retryAfter(resp, attempt)
			rh.logger.Warn().
				Str("url", req.URL).
				Int("status_code", resp.StatusCode).
				Int("attempt", attempt+1).
				Int("max_retries", rh.cfg.MaxRetries).
				Dur("delay", delay).
				Msg("Retryable status, waiting before retry")

		default:
			if _, retryable := rh.retryable[resp.StatusCode]; retryable {
				return resp, WrapError(NewHTTPErrorWithURL(resp.StatusCode, string(resp.Body), req.URL), "all retry attempts failed")
			}
			return resp, nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (rh *RetryHandler) retryAfter(resp *HTTPResponse, attempt int) time.Duration {
	if v, ok := resp.Headers["Retry-After"]; ok {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, rh.cfg.MaxDelay)
		}
	}
	return rh.CalculateDelay(attempt)
}
