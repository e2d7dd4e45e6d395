package email

import "context"

func (c *Client) SendWelcomeEmail(ctx context.Context, to, firstName string) error {
	data := map[string]string{
		"UserFirstName": firstName,
		"AppName":       "Storefront",
	}

	return c.SendEmail(ctx, to, "Welcome to Storefront!", TemplateWelcome, data)
}
