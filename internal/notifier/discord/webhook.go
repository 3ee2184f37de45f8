package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aleister1102/keywatch/internal/httpclient"
	"github.com/rs/zerolog"
)

// WebhookClient posts payloads to one webhook URL.
type WebhookClient struct {
	logger     zerolog.Logger
	httpClient *httpclient.HTTPClient
	webhookURL string
}

func NewWebhookClient(webhookURL string, httpClient *httpclient.HTTPClient, logger zerolog.Logger) (*WebhookClient, error) {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid discord webhook url: %w", err)
	}
	return &WebhookClient{
		logger:     logger.With().Str("component", "DiscordWebhook").Logger(),
		httpClient: httpClient,
		webhookURL: webhookURL,
	}, nil
}

// Send delivers payload. Discord answers 204 on success; anything non-2xx
// comes back as *httpclient.HTTPError.
func (c *WebhookClient) Send(ctx context.Context, payload Payload) error {
	if err := c.httpClient.DoJSON(ctx, http.MethodPost, c.webhookURL, payload, nil); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return fmt.Errorf("discord webhook: %w", err)
	}
	c.logger.Debug().Int("embeds", len(payload.Embeds)).Msg("Discord notification sent")
	return nil
}
