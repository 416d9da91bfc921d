package payment

import (
	"context"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

// Event type names as delivered by the processor.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventChargeSucceeded  = "charge.succeeded"
	EventChargeFailed     = "charge.failed"
	EventChargeRefunded   = "charge.refunded"
)

// MetadataCartKey is the session metadata key holding the resolved cart as a
// JSON object of canonical key -> quantity. The reconciler reads it back to
// decrement stock without string-matching line-item descriptions.
const MetadataCartKey = "cart"

// Session is the slice of the processor's hosted-session state this system
// cares about. The full object stays with the processor.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Shipping      string
	Metadata      map[string]string
}

type LineItem struct {
	Description    string
	Quantity       int64
	AmountSubtotal int64
	AmountTotal    int64
}

type SessionParams struct {
	Items               []domain.ResolvedLineItem
	CustomerEmail       string
	SuccessURL          string
	CancelURL           string
	ShippingCountries   []string
	AllowPromotionCodes bool
	Metadata            map[string]string
}

// Event is a verified inbound notification. SessionID is empty for event
// types that do not carry a checkout session.
type Event struct {
	ID        string
	Type      string
	SessionID string
	Session   *Session
}

// Processor is the external payment collaborator. VerifyEvent takes the raw,
// unparsed request body: signature verification must happen before any
// content is interpreted.
type Processor interface {
	CreateSession(ctx context.Context, params *SessionParams) (*Session, error)
	SessionLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
