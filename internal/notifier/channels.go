package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/httpclient"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/notifier/discord"
	"github.com/rs/zerolog"
)

// LogChannel writes notifications to the application log. It is always
// present so a match is visible even without external channels.
type LogChannel struct {
	logger zerolog.Logger
}

// NewLogChannel creates a LogChannel.
func NewLogChannel(logger zerolog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With().Str("channel", "log").Logger()}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, n models.Notification) error {
	c.logger.Info().
		Str("id", n.ID).
		Str("url", n.URL).
		Str("keyword", n.Keyword).
		Msg(n.Title)
	return nil
}

// DiscordChannel posts notifications as webhook embeds.
type DiscordChannel struct {
	client   *discord.WebhookClient
	username string
	roleIDs  []string
	color    int
}

// NewDiscordChannel creates a DiscordChannel from the notification settings.
func NewDiscordChannel(cfg config.NotificationConfig, httpClient *httpclient.HTTPClient, logger zerolog.Logger) (*DiscordChannel, error) {
	client, err := discord.NewWebhookClient(cfg.DiscordWebhookURL, httpClient, logger)
	if err != nil {
		return nil, err
	}
	return &DiscordChannel{
		client:   client,
		username: cfg.DiscordUsername,
		roleIDs:  cfg.MentionRoleIDs,
		color:    parseHexColor(cfg.BadgeColor),
	}, nil
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Send(ctx context.Context, n models.Notification) error {
	payload, err := c.buildPayload(n, time.Now())
	if err != nil {
		return err
	}
	return c.client.Send(ctx, payload)
}

func (c *DiscordChannel) buildPayload(n models.Notification, now time.Time) (discord.Payload, error) {
	embed, err := discord.NewEmbedBuilder().
		Title(truncate(n.Title, discord.MaxTitleLength)).
		Description(truncate(n.Message, discord.MaxDescriptionLength)).
		Link(n.URL).
		Color(c.color).
		Timestamp(now).
		Field("Keyword", truncate(n.Keyword, discord.MaxFieldValueLength), true).
		Field("Page", truncate(n.URL, discord.MaxFieldValueLength), false).
		Footer("keywatch").
		Build()
	if err != nil {
		return discord.Payload{}, fmt.Errorf("building discord embed: %w", err)
	}

	payload := discord.Payload{Username: c.username, Embeds: []discord.Embed{embed}}
	return payload.WithRoleMentions(c.roleIDs), nil
}

// BuildChannels assembles the channels enabled in cfg. The log channel is
// always first.
func BuildChannels(cfg config.NotificationConfig, httpClient *httpclient.HTTPClient, logger zerolog.Logger) ([]Channel, error) {
	channels := []Channel{NewLogChannel(logger)}

	if cfg.DiscordWebhookURL != "" {
		dc, err := NewDiscordChannel(cfg, httpClient, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, dc)
	}
	if cfg.Email.Enabled {
		channels = append(channels, NewEmailChannel(cfg.Email))
	}
	return channels, nil
}

func parseHexColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0xFF0000
	}
	return int(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
