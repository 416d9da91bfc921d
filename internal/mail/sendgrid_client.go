package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridClient implements Sender using SendGrid.
type SendGridClient struct {
	apiKey   string
	fromName string
	fromAddr string
}

func NewSendGridClient(apiKey, fromName, fromAddr string) *SendGridClient {
	return &SendGridClient{apiKey: apiKey, fromName: fromName, fromAddr: fromAddr}
}

func (c *SendGridClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if c.fromAddr == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, c.fromAddr),
		subject,
		sgmail.NewEmail("", to),
		htmlBody,
		htmlBody,
	)

	client := sendgrid.NewSendClient(c.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s",
			response.StatusCode, response.Body)
	}

	log.Printf("[sendgrid] mail sent: status=%d to=%s subject=%s",
		response.StatusCode, to, subject)

	return nil
}
