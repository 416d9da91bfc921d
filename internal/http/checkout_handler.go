package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/nvrbrth/nvrbrth-backend1/internal/catalog"
	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
)

// SessionCreator is the slice of the checkout service this handler needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, cart []domain.CartLine, customerEmail string) (*payment.Session, error)
}

type CheckoutHandler struct {
	service SessionCreator
	timeout time.Duration
}

func NewCheckoutHandler(service SessionCreator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{service: service, timeout: timeout}
}

type CheckoutRequestDTO struct {
	Cart          []domain.CartLine `json:"cart"`
	CustomerEmail string            `json:"customer_email"`
}

type CheckoutResponseDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.service.CreateSession(ctx, req.Cart, req.CustomerEmail)
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	})
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var unresolved *catalog.UnresolvedItemError
	var outOfStock *catalog.OutOfStockError

	switch {
	case errors.Is(err, catalog.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "EMPTY_CART", "cart is empty")
	case errors.As(err, &unresolved):
		respondError(w, http.StatusBadRequest, "UNRESOLVED_ITEM:"+unresolved.Key, err.Error())
	case errors.As(err, &outOfStock):
		respondError(w, http.StatusBadRequest, "OUT_OF_STOCK:"+outOfStock.Key, err.Error())
	default:
		log.Printf("checkout failed (request_id=%s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "processor_unavailable", "could not create payment session")
	}
}
