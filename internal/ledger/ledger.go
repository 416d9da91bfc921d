package ledger

import (
	"context"
	"errors"
	"io"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateSession = errors.New("order for this session already exists")
)

// Ledger is the keyed order store: one immutable OrderRecord per session id.
// Keying by session id is what makes reconciliation idempotent; the old
// append-only journal survives only as an export format.
type Ledger interface {
	Record(ctx context.Context, rec *domain.OrderRecord) error
	Get(ctx context.Context, sessionID string) (*domain.OrderRecord, error)
	ExportJournal(ctx context.Context, w io.Writer) error
	Close() error
}
