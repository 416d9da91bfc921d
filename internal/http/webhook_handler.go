package http

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
)

const maxWebhookBody = 1 << 16 // 64KB, well above any event the processor sends

// EventVerifier verifies the signature over a raw webhook body.
type EventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (*payment.Event, error)
}

// EventHandler consumes a verified event. It must not fail the request:
// acknowledging is what stops the processor's retries.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *payment.Event)
}

type WebhookHandler struct {
	verifier  EventVerifier
	events    EventHandler
	sigHeader string
}

func NewWebhookHandler(verifier EventVerifier, events EventHandler, sigHeader string) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, events: events, sigHeader: sigHeader}
}

type WebhookResponseDTO struct {
	Received bool `json:"received"`
}

// POST /webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	// The raw, unparsed body goes to verification; nothing is interpreted
	// before the signature checks out.
	ev, err := h.verifier.VerifyEvent(payload, r.Header.Get(h.sigHeader))
	if err != nil {
		log.Printf("webhook signature rejected (request_id=%s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	h.events.HandleEvent(r.Context(), ev)

	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true})
}
