package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

const (
	// MaxQuantity caps a single line's quantity after merging duplicates.
	MaxQuantity = 10

	// PriceRefPrefix marks an identifier as a processor-side price reference.
	// Such lines bypass catalog lookup and pass through verbatim.
	PriceRefPrefix = "price_"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// UnresolvedItemError names the canonical key that failed catalog lookup.
type UnresolvedItemError struct {
	Key string
}

func (e *UnresolvedItemError) Error() string {
	return fmt.Sprintf("unresolved cart item %q", e.Key)
}

// OutOfStockError names the canonical key whose tracked stock cannot cover
// the requested quantity.
type OutOfStockError struct {
	Key string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %q", e.Key)
}

// Resolver maps client-supplied cart lines to priced line items. It owns
// identifier normalization and the alias table; prices only ever come from
// the backing store.
type Resolver struct {
	store   Store
	aliases map[string]string
}

func NewResolver(store Store, aliases map[string]string) *Resolver {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Resolver{store: store, aliases: aliases}
}

// Normalize lower-cases the identifier, strips a trailing size/variant token
// after the last ':' and resolves it through the alias table. It is total and
// deterministic; unknown keys are only detected at lookup time.
func (r *Resolver) Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndex(key, ":"); i >= 0 {
		key = key[:i]
	}
	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	return key
}

// BuildLineItems resolves a whole cart or fails naming the first offending
// key. Quantities are clamped to [1, MaxQuantity]; duplicate keys are merged
// (first occurrence keeps its position, quantities are summed before the
// clamp). Lines carrying a price reference skip lookup entirely.
func (r *Resolver) BuildLineItems(ctx context.Context, cart []domain.CartLine) ([]domain.ResolvedLineItem, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	type pending struct {
		key      string
		priceRef string
		qty      int
	}

	var order []pending
	index := map[string]int{}
	for _, line := range cart {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}

		raw := strings.TrimSpace(line.Identifier)
		var p pending
		if strings.HasPrefix(raw, PriceRefPrefix) {
			p = pending{key: raw, priceRef: raw, qty: qty}
		} else {
			p = pending{key: r.Normalize(raw), qty: qty}
		}

		if i, seen := index[p.key]; seen {
			order[i].qty += p.qty
			continue
		}
		index[p.key] = len(order)
		order = append(order, p)
	}
	for i := range order {
		if order[i].qty > MaxQuantity {
			order[i].qty = MaxQuantity
		}
	}

	var keys []string
	for _, p := range order {
		if p.priceRef == "" {
			keys = append(keys, p.key)
		}
	}

	var entries map[string]domain.CatalogEntry
	if len(keys) > 0 {
		var err error
		entries, err = r.store.Entries(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup: %w", err)
		}
	}

	items := make([]domain.ResolvedLineItem, 0, len(order))
	for _, p := range order {
		if p.priceRef != "" {
			items = append(items, domain.ResolvedLineItem{
				CanonicalKey: p.key,
				PriceRef:     p.priceRef,
				Quantity:     p.qty,
			})
			continue
		}

		entry, ok := entries[p.key]
		if !ok {
			return nil, &UnresolvedItemError{Key: p.key}
		}
		// No reservation here: stock is only decremented on confirmed
		// payment, so two carts may both pass for the last unit.
		if entry.Tracked() && *entry.Stock <= 0 {
			return nil, &OutOfStockError{Key: p.key}
		}
		items = append(items, domain.ResolvedLineItem{
			CanonicalKey: entry.CanonicalKey,
			DisplayName:  entry.DisplayName,
			UnitAmount:   entry.UnitAmount,
			Currency:     entry.Currency,
			Quantity:     p.qty,
		})
	}

	return items, nil
}
