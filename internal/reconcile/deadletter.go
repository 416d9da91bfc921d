package reconcile

import (
	"context"
	"log"
	"time"
)

// Failure is a reconciliation side effect that was swallowed to keep the
// webhook acknowledgement contract. Operators replay these; losing them
// silently was the old design's main operational gap.
type Failure struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	EventType  string    `json:"event_type"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

type DeadLetter interface {
	Publish(ctx context.Context, f Failure) error
}

// LogDeadLetter is the fallback channel when no broker is configured.
type LogDeadLetter struct{}

func (LogDeadLetter) Publish(_ context.Context, f Failure) error {
	log.Printf("dead-letter: session=%s event=%s stage=%s reason=%s",
		f.SessionID, f.EventType, f.Stage, f.Reason)
	return nil
}
