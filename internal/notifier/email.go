package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/wneessen/go-mail"
)

// EmailChannel sends notifications over SMTP.
type EmailChannel struct {
	cfg config.EmailConfig
}

// NewEmailChannel creates an EmailChannel.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

// Send dials the configured server and delivers one message.
func (c *EmailChannel) Send(ctx context.Context, n models.Notification) error {
	m, err := c.buildMessage(n)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(c.cfg.Encryption)),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

func (c *EmailChannel) buildMessage(n models.Notification) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(c.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if len(c.cfg.To) == 0 {
		return nil, fmt.Errorf("no email recipients configured")
	}
	for _, to := range c.cfg.To {
		if err := m.AddTo(to); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}

	m.Subject(n.Title)
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("%s\n\nKeyword: %s\nPage: %s\n", n.Message, n.Keyword, n.URL))
	return m, nil
}

// tlsPolicyFromEncryption converts the encryption setting to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
