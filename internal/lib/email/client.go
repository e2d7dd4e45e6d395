// Package email sends transactional email through Resend.
package email

import (
	"context"
	"fmt"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

const defaultFrom = "Storefront <onboarding@resend.dev>"

// Client renders templates and sends them. Without an API key it only logs
// what it would have sent.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}
	if c.from == "" {
		c.from = defaultFrom
	}
	if cfg.Integration.ResendAPIKey != "" {
		c.client = resend.NewClient(cfg.Integration.ResendAPIKey)
	}
	return c
}

// Enabled reports whether emails are actually delivered.
func (c *Client) Enabled() bool {
	return c.client != nil
}

func (c *Client) SendEmail(ctx context.Context, to, subject string, templateName Template, data map[string]string) error {
	html, err := Render(templateName, data)
	if err != nil {
		return err
	}

	if c.client == nil {
		c.logger.Info().
			Str("to", to).
			Str("template", string(templateName)).
			Msg("email delivery disabled, skipping send")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := c.client.Emails.SendWithContext(ctx, params); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to send %s email", templateName))
	}

	return nil
}
