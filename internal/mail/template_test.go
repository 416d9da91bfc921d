package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

func TestRenderConfirmation(t *testing.T) {
	rec := &domain.OrderRecord{
		SessionID:   "cs_1",
		AmountTotal: 7000,
		Currency:    "gbp",
		Items: []domain.OrderItem{
			{Description: "VEIN hoodie", Quantity: 2, AmountTotal: 7000},
		},
		RecordedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	body, err := RenderConfirmation(rec)
	require.NoError(t, err)

	assert.Contains(t, body, "cs_1")
	assert.Contains(t, body, "2026-03-01")
	assert.Contains(t, body, "VEIN hoodie")
	assert.Contains(t, body, "GBP 70.00")
}

func TestRenderConfirmation_EscapesHTML(t *testing.T) {
	rec := &domain.OrderRecord{
		SessionID: "cs_1",
		Items: []domain.OrderItem{
			{Description: `<script>alert("x")</script>`, Quantity: 1},
		},
	}

	body, err := RenderConfirmation(rec)
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{3500, "gbp", "GBP 35.00"},
		{5, "gbp", "GBP 0.05"},
		{0, "usd", "USD 0.00"},
		{-150, "eur", "EUR -1.50"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.minor, tt.currency))
	}
}
