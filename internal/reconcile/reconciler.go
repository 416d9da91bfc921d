package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvrbrth/nvrbrth-backend1/internal/catalog"
	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
	"github.com/nvrbrth/nvrbrth-backend1/internal/ledger"
	"github.com/nvrbrth/nvrbrth-backend1/internal/mail"
	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
)

// Reconciler turns verified payment events into local side effects: stock
// decrement, order record, confirmation email. Delivery is at-least-once, so
// everything here must be idempotent per session id.
type Reconciler struct {
	processor  payment.Processor
	store      catalog.Store
	ledger     ledger.Ledger
	sender     mail.Sender
	deadletter DeadLetter

	mu       sync.Mutex
	statuses map[string]domain.SessionStatus
	locks    map[string]*sync.Mutex
}

func NewReconciler(processor payment.Processor, store catalog.Store, l ledger.Ledger, sender mail.Sender, dl DeadLetter) *Reconciler {
	return &Reconciler{
		processor:  processor,
		store:      store,
		ledger:     l,
		sender:     sender,
		deadletter: dl,
		statuses:   make(map[string]domain.SessionStatus),
		locks:      make(map[string]*sync.Mutex),
	}
}

// HandleEvent dispatches one verified event. It never returns an error: the
// webhook must be acknowledged once the signature checks out, so failures
// are logged and dead-lettered instead of propagated.
func (r *Reconciler) HandleEvent(ctx context.Context, ev *payment.Event) {
	switch ev.Type {
	case payment.EventSessionCompleted:
		r.handleCompleted(ctx, ev)
	case payment.EventChargeSucceeded:
		r.observe(ctx, ev, domain.SessionStatusChargeSucceeded)
	case payment.EventChargeFailed:
		r.observe(ctx, ev, domain.SessionStatusChargeFailed)
	case payment.EventChargeRefunded:
		r.observe(ctx, ev, domain.SessionStatusRefunded)
	default:
		// Unknown types are acknowledged and ignored; rejecting them
		// would only cause the processor to retry forever.
		log.Printf("ignoring event %s of type %s", ev.ID, ev.Type)
	}
}

func (r *Reconciler) handleCompleted(ctx context.Context, ev *payment.Event) {
	if ev.Session == nil {
		r.fail(ctx, ev, "decode", "completed event without session payload")
		return
	}
	sessionID := ev.SessionID

	unlock := r.lockSession(sessionID)
	defer unlock()

	if !r.transition(ctx, ev, sessionID, domain.SessionStatusCompleted) {
		return
	}

	if _, err := r.ledger.Get(ctx, sessionID); err == nil {
		log.Printf("order for session %s already exists, skipping", sessionID)
		return
	} else if !errors.Is(err, ledger.ErrOrderNotFound) {
		r.fail(ctx, ev, "ledger_read", err.Error())
		return
	}

	// Line-item detail is best effort: a fetch failure must not abort the
	// event, or the processor would retry it indefinitely.
	var items []domain.OrderItem
	detail, err := r.processor.SessionLineItems(ctx, sessionID)
	if err != nil {
		log.Printf("line-item fetch failed for session %s: %v", sessionID, err)
		r.fail(ctx, ev, "line_items", err.Error())
	}
	for _, li := range detail {
		items = append(items, domain.OrderItem{
			Description:    li.Description,
			Quantity:       li.Quantity,
			AmountSubtotal: li.AmountSubtotal,
			AmountTotal:    li.AmountTotal,
		})
	}

	r.decrementStock(ctx, ev)

	rec := &domain.OrderRecord{
		SessionID:     sessionID,
		PaymentStatus: ev.Session.PaymentStatus,
		AmountTotal:   ev.Session.AmountTotal,
		Currency:      ev.Session.Currency,
		CustomerEmail: ev.Session.CustomerEmail,
		Shipping:      ev.Session.Shipping,
		Items:         items,
		RecordedAt:    time.Now().UTC(),
	}
	if err := r.ledger.Record(ctx, rec); err != nil {
		if errors.Is(err, ledger.ErrDuplicateSession) {
			log.Printf("order for session %s already exists, skipping", sessionID)
			return
		}
		r.fail(ctx, ev, "record", err.Error())
		return
	}

	r.sendConfirmation(ctx, ev, rec)
}

// decrementStock walks the cart embedded in the session metadata. Missing
// keys are skipped; shortfalls are dead-lettered but do not stop the event.
func (r *Reconciler) decrementStock(ctx context.Context, ev *payment.Event) {
	raw, ok := ev.Session.Metadata[payment.MetadataCartKey]
	if !ok || raw == "" {
		return
	}

	var cart map[string]int
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		r.fail(ctx, ev, "stock", "bad cart metadata: "+err.Error())
		return
	}

	for key, qty := range cart {
		err := r.store.CompareAndDecrement(ctx, key, qty)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrNotFound):
			log.Printf("stock decrement: key %s not in catalog, skipping", key)
		default:
			r.fail(ctx, ev, "stock", key+": "+err.Error())
		}
	}
}

func (r *Reconciler) sendConfirmation(ctx context.Context, ev *payment.Event, rec *domain.OrderRecord) {
	if rec.CustomerEmail == "" {
		return
	}

	body, err := mail.RenderConfirmation(rec)
	if err != nil {
		r.fail(ctx, ev, "email", err.Error())
		return
	}

	subject := "Your order " + rec.SessionID
	if err := r.sender.Send(ctx, rec.CustomerEmail, subject, body); err != nil {
		log.Printf("confirmation email failed for session %s: %v", rec.SessionID, err)
		r.fail(ctx, ev, "email", err.Error())
	}
}

// observe records a terminal-adjacent transition for the audit trail. No
// side effects beyond the trace and the state check.
func (r *Reconciler) observe(ctx context.Context, ev *payment.Event, next domain.SessionStatus) {
	log.Printf("observed event %s type=%s session=%s", ev.ID, ev.Type, ev.SessionID)
	if ev.SessionID == "" {
		return
	}

	unlock := r.lockSession(ev.SessionID)
	defer unlock()
	r.transition(ctx, ev, ev.SessionID, next)
}

// transition enforces the session state machine. Illegal transitions are
// dead-lettered and the event is dropped. Caller holds the session lock.
func (r *Reconciler) transition(ctx context.Context, ev *payment.Event, sessionID string, next domain.SessionStatus) bool {
	r.mu.Lock()
	current, seen := r.statuses[sessionID]
	r.mu.Unlock()
	if !seen {
		current = domain.SessionStatusInitiated
	}

	if current == next {
		// Redelivery of the same observation; the per-stage idempotency
		// checks handle it.
		return true
	}
	if !domain.CanTransitionTo(current, next) {
		r.fail(ctx, ev, "transition", string(current)+" -> "+string(next))
		return false
	}

	r.mu.Lock()
	r.statuses[sessionID] = next
	r.mu.Unlock()
	return true
}

func (r *Reconciler) lockSession(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Reconciler) fail(ctx context.Context, ev *payment.Event, stage, reason string) {
	f := Failure{
		ID:         uuid.NewString(),
		SessionID:  ev.SessionID,
		EventType:  ev.Type,
		Stage:      stage,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.deadletter.Publish(ctx, f); err != nil {
		log.Printf("dead-letter publish failed (stage=%s session=%s): %v", stage, f.SessionID, err)
	}
}
