package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nvrbrth/nvrbrth-backend1/internal/ledger"
)

type OrdersHandler struct {
	ledger  ledger.Ledger
	timeout time.Duration
}

func NewOrdersHandler(l ledger.Ledger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{ledger: l, timeout: timeout}
}

type OrderItemDTO struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
}

type OrderSummaryDTO struct {
	SessionID     string         `json:"session_id"`
	PaymentStatus string         `json:"payment_status"`
	AmountTotal   int64          `json:"amount_total"`
	Currency      string         `json:"currency"`
	Items         []OrderItemDTO `json:"items"`
	RecordedAt    string         `json:"recorded_at"`
}

// GET /api/v1/orders/{sessionID}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}

	rec, err := h.ledger.Get(ctx, sessionID)
	if errors.Is(err, ledger.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "no order for this session")
		return
	}
	if err != nil {
		log.Printf("order lookup failed (request_id=%s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	items := make([]OrderItemDTO, 0, len(rec.Items))
	for _, item := range rec.Items {
		items = append(items, OrderItemDTO{
			Description:    item.Description,
			Quantity:       item.Quantity,
			AmountSubtotal: item.AmountSubtotal,
			AmountTotal:    item.AmountTotal,
		})
	}

	respondJSON(w, http.StatusOK, OrderSummaryDTO{
		SessionID:     rec.SessionID,
		PaymentStatus: rec.PaymentStatus,
		AmountTotal:   rec.AmountTotal,
		Currency:      rec.Currency,
		Items:         items,
		RecordedAt:    rec.RecordedAt.Format(time.RFC3339),
	})
}
