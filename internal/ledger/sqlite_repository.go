package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// Record inserts the order exactly once. A second insert for the same session
// id reports ErrDuplicateSession and leaves the stored record untouched.
func (r *Repository) Record(ctx context.Context, rec *domain.OrderRecord) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (session_id, payment_status, amount_total, currency, customer_email, shipping, items, recorded_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(session_id) DO NOTHING`

	res, insertErr := r.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.PaymentStatus,
		rec.AmountTotal,
		rec.Currency,
		rec.CustomerEmail,
		rec.Shipping,
		itemsJSON,
		rec.RecordedAt)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateSession
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, sessionID string) (*domain.OrderRecord, error) {
	query := `SELECT session_id, payment_status, amount_total, currency, customer_email, shipping, items, recorded_at
	          FROM orders WHERE session_id = ?`

	rec, err := scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by session id: %w", err)
	}
	return rec, nil
}

// ExportJournal writes every order as one JSON line, oldest first. This is
// the migration/export view of the ledger, not its read path.
func (r *Repository) ExportJournal(ctx context.Context, w io.Writer) error {
	query := `SELECT session_id, payment_status, amount_total, currency, customer_email, shipping, items, recorded_at
	          FROM orders ORDER BY recorded_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	enc := json.NewEncoder(w)
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return fmt.Errorf("scan order row: %w", err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode order: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.OrderRecord, error) {
	var rec domain.OrderRecord
	var itemsJSON []byte
	if err := row.Scan(
		&rec.SessionID,
		&rec.PaymentStatus,
		&rec.AmountTotal,
		&rec.Currency,
		&rec.CustomerEmail,
		&rec.Shipping,
		&itemsJSON,
		&rec.RecordedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &rec, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
