package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeClient implements Processor against the Stripe API. Outbound calls
// run through a circuit breaker so a wedged processor fails fast instead of
// tying up request handlers.
type StripeClient struct {
	api           *client.API
	webhookSecret string
	cb            *gobreaker.CircuitBreaker[any]
}

func NewStripeClient(apiKey, webhookSecret string) *StripeClient {
	api := &client.API{}
	api.Init(apiKey, nil)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StripeClient{api: api, webhookSecret: webhookSecret, cb: cb}
}

func (c *StripeClient) CreateSession(ctx context.Context, params *SessionParams) (*Session, error) {
	p := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	p.Context = ctx

	if params.CustomerEmail != "" {
		p.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.AllowPromotionCodes {
		p.AllowPromotionCodes = stripe.Bool(true)
	}
	if len(params.ShippingCountries) > 0 {
		p.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(params.ShippingCountries),
		}
	}
	for key, value := range params.Metadata {
		p.AddMetadata(key, value)
	}

	for _, item := range params.Items {
		li := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
		}
		if item.PriceRef != "" {
			li.Price = stripe.String(item.PriceRef)
		} else {
			li.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.DisplayName),
				},
			}
		}
		p.LineItems = append(p.LineItems, li)
	}

	v, err := c.cb.Execute(func() (any, error) {
		return c.api.CheckoutSessions.New(p)
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return convertSession(v.(*stripe.CheckoutSession)), nil
}

func (c *StripeClient) SessionLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	v, err := c.cb.Execute(func() (any, error) {
		params := &stripe.CheckoutSessionListLineItemsParams{
			Session: stripe.String(sessionID),
		}
		params.Context = ctx

		var items []LineItem
		iter := c.api.CheckoutSessions.ListLineItems(params)
		for iter.Next() {
			li := iter.LineItem()
			items = append(items, LineItem{
				Description:    li.Description,
				Quantity:       li.Quantity,
				AmountSubtotal: li.AmountSubtotal,
				AmountTotal:    li.AmountTotal,
			})
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list session line items: %w", err)
	}

	return v.([]LineItem), nil
}

// VerifyEvent checks the signature over the raw body against the webhook
// secret, then extracts the slice of the event this system consumes.
func (c *StripeClient) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type == EventSessionCompleted {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = cs.ID
		out.Session = convertSession(&cs)
	}

	return out, nil
}

func convertSession(cs *stripe.CheckoutSession) *Session {
	s := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}
	if cs.CustomerDetails != nil {
		if cs.CustomerDetails.Email != "" {
			s.CustomerEmail = cs.CustomerDetails.Email
		}
		s.Shipping = formatAddress(cs.CustomerDetails.Name, cs.CustomerDetails.Address)
	}
	return s
}

func formatAddress(name string, addr *stripe.Address) string {
	if addr == nil {
		return name
	}
	parts := []string{name, addr.Line1, addr.Line2, addr.City, addr.PostalCode, addr.Country}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
