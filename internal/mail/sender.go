package mail

import "context"

// Sender delivers a single transactional email. The HTML body is rendered
// locally before the call; implementations only transport it.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
