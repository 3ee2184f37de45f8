package config

// NotificationConfig defines where first-time matches are announced. The
// badge is always kept; Discord and email are optional channels.
type NotificationConfig struct {
	BadgeColor        string      `json:"badge_color,omitempty" yaml:"badge_color,omitempty" validate:"omitempty,hexcolor"`
	DiscordWebhookURL string      `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	DiscordUsername   string      `json:"discord_username,omitempty" yaml:"discord_username,omitempty"`
	MentionRoleIDs    []string    `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty"`
	Email             EmailConfig `json:"email,omitempty" yaml:"email,omitempty"`
}

// EmailConfig configures the SMTP notification channel
type EmailConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	Host       string   `json:"host,omitempty" yaml:"host,omitempty" validate:"required_if=Enabled true"`
	Port       int      `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username   string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password   string   `json:"password,omitempty" yaml:"password,omitempty"`
	From       string   `json:"from,omitempty" yaml:"from,omitempty" validate:"omitempty,email"`
	To         []string `json:"to,omitempty" yaml:"to,omitempty" validate:"omitempty,dive,email"`
	Encryption string   `json:"encryption,omitempty" yaml:"encryption,omitempty" validate:"omitempty,oneof=none starttls ssl_tls"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		BadgeColor:      DefaultBadgeColor,
		DiscordUsername: DefaultDiscordUsername,
		MentionRoleIDs:  []string{},
		Email: EmailConfig{
			Port:       DefaultSMTPPort,
			Encryption: "starttls",
		},
	}
}
