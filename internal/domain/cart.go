package domain

// CartLine is a single client-supplied cart entry. Untrusted: the identifier
// may be a catalog SKU, a friendly alias, or a processor price reference, and
// the quantity may be garbage.
type CartLine struct {
	Identifier string `json:"identifier"`
	Quantity   int    `json:"quantity"`
}

// CatalogEntry is the server-owned, priceable record for a product variant.
// Stock is nil when stock is not tracked for the entry.
type CatalogEntry struct {
	CanonicalKey string
	DisplayName  string
	UnitAmount   int64  // minor units, never negative
	Currency     string // lowercase ISO 4217
	Stock        *int
}

// Tracked reports whether the entry carries a tracked stock count.
func (e CatalogEntry) Tracked() bool {
	return e.Stock != nil
}

// ResolvedLineItem is the only shape allowed to cross into a session-creation
// request. Price data always comes from the catalog, never from the client.
// PriceRef is set instead of the price fields when the client supplied a
// direct processor price reference.
type ResolvedLineItem struct {
	CanonicalKey string
	DisplayName  string
	UnitAmount   int64
	Currency     string
	Quantity     int
	PriceRef     string
}
