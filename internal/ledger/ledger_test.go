package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

func setupTestRepository(t *testing.T) *Repository {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("../../migrations"))
	return repo
}

func testRecord(sessionID string) *domain.OrderRecord {
	return &domain.OrderRecord{
		SessionID:     sessionID,
		PaymentStatus: "paid",
		AmountTotal:   7000,
		Currency:      "gbp",
		CustomerEmail: "void@nvrbrth.com",
		Items: []domain.OrderItem{
			{Description: "VEIN hoodie", Quantity: 2, AmountSubtotal: 7000, AmountTotal: 7000},
		},
		RecordedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRecordAndGet(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, testRecord("cs_test_1")))

	got, err := repo.Get(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.Equal(t, int64(7000), got.AmountTotal)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "VEIN hoodie", got.Items[0].Description)
}

func TestRecord_DuplicateSession(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	first := testRecord("cs_test_1")
	require.NoError(t, repo.Record(ctx, first))

	second := testRecord("cs_test_1")
	second.AmountTotal = 99999
	assert.ErrorIs(t, repo.Record(ctx, second), ErrDuplicateSession)

	got, err := repo.Get(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.AmountTotal, "stored record is immutable")
}

func TestGet_NotFound(t *testing.T) {
	repo := setupTestRepository(t)

	got, err := repo.Get(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, got)
}

func TestExportJournal(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	first := testRecord("cs_test_1")
	first.RecordedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := testRecord("cs_test_2")
	second.RecordedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, second))
	require.NoError(t, repo.Record(ctx, first))

	var buf bytes.Buffer
	require.NoError(t, repo.ExportJournal(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec domain.OrderRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "cs_test_1", rec.SessionID, "export is ordered oldest first")
}

func TestExportJournal_Empty(t *testing.T) {
	repo := setupTestRepository(t)

	var buf bytes.Buffer
	require.NoError(t, repo.ExportJournal(context.Background(), &buf))
	assert.Empty(t, buf.String())
}
