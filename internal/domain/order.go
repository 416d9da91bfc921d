package domain

import "time"

type OrderItem struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
}

// OrderRecord is written exactly once per payment session, on the first
// observed completion event. Once written it is immutable.
type OrderRecord struct {
	SessionID     string      `json:"session_id"`
	PaymentStatus string      `json:"payment_status"`
	AmountTotal   int64       `json:"amount_total"`
	Currency      string      `json:"currency"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	Shipping      string      `json:"shipping,omitempty"`
	Items         []OrderItem `json:"items"`
	RecordedAt    time.Time   `json:"recorded_at"`
}
