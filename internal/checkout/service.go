package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvrbrth/nvrbrth-backend1/internal/catalog"
	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
)

// Policy carries the deployment's session-creation flags.
type Policy struct {
	SuccessURL          string
	CancelURL           string
	ShippingCountries   []string
	AllowPromotionCodes bool
}

// Service resolves a cart and opens a hosted-payment session for it.
type Service struct {
	resolver  *catalog.Resolver
	processor payment.Processor
	policy    Policy
}

func NewService(resolver *catalog.Resolver, processor payment.Processor, policy Policy) *Service {
	return &Service{resolver: resolver, processor: processor, policy: policy}
}

// CreateSession resolves every cart line, then asks the processor for a
// hosted session. The resolved cart is embedded as metadata so the
// reconciler can decrement stock without re-deriving identifiers from
// line-item descriptions.
func (s *Service) CreateSession(ctx context.Context, cart []domain.CartLine, customerEmail string) (*payment.Session, error) {
	items, err := s.resolver.BuildLineItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	metadata, err := cartMetadata(items)
	if err != nil {
		return nil, err
	}

	session, err := s.processor.CreateSession(ctx, &payment.SessionParams{
		Items:               items,
		CustomerEmail:       customerEmail,
		SuccessURL:          s.policy.SuccessURL,
		CancelURL:           s.policy.CancelURL,
		ShippingCountries:   s.policy.ShippingCountries,
		AllowPromotionCodes: s.policy.AllowPromotionCodes,
		Metadata:            metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	return session, nil
}

// cartMetadata encodes catalog-backed lines as canonical key -> quantity.
// Price-reference lines have no tracked stock and are left out.
func cartMetadata(items []domain.ResolvedLineItem) (map[string]string, error) {
	cart := make(map[string]int)
	for _, item := range items {
		if item.PriceRef != "" {
			continue
		}
		cart[item.CanonicalKey] = item.Quantity
	}
	if len(cart) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("encode cart metadata: %w", err)
	}
	return map[string]string{payment.MetadataCartKey: string(encoded)}, nil
}
