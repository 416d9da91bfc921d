package catalog

import (
	"context"
	"errors"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

var (
	ErrNotFound          = errors.New("catalog entry not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store is the authority for catalog entries and their tracked stock. Entries
// is a batched lookup: callers pass de-duplicated keys and get back only the
// keys that exist. CompareAndDecrement is the sole mutation path; callers
// never touch stock counts directly.
type Store interface {
	Entries(ctx context.Context, keys []string) (map[string]domain.CatalogEntry, error)
	CompareAndDecrement(ctx context.Context, key string, qty int) error
}
