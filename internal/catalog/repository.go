package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

// Repository implements Store over a sqlite database.
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
		MigrationsTable: "catalog_schema_migrations",
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

func (r *Repository) Entries(ctx context.Context, keys []string) (map[string]domain.CatalogEntry, error) {
	if len(keys) == 0 {
		return map[string]domain.CatalogEntry{}, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}

	query := fmt.Sprintf(
		`SELECT canonical_key, display_name, unit_amount, currency, stock
		 FROM catalog_entries WHERE canonical_key IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.CatalogEntry, len(keys))
	for rows.Next() {
		var entry domain.CatalogEntry
		var stock sql.NullInt64
		if err := rows.Scan(&entry.CanonicalKey, &entry.DisplayName, &entry.UnitAmount, &entry.Currency, &stock); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if stock.Valid {
			v := int(stock.Int64)
			entry.Stock = &v
		}
		result[entry.CanonicalKey] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (r *Repository) CompareAndDecrement(ctx context.Context, key string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE catalog_entries SET stock = stock - ?
		 WHERE canonical_key = ? AND stock IS NOT NULL AND stock >= ?`,
		qty, key, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// The guarded update matched nothing: distinguish missing key,
	// untracked stock and a genuine shortfall.
	var stock sql.NullInt64
	err = r.db.QueryRowContext(ctx,
		`SELECT stock FROM catalog_entries WHERE canonical_key = ?`, key).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	if !stock.Valid {
		return nil // untracked, nothing to decrement
	}
	return ErrInsufficientStock
}

func (r *Repository) Close() error {
	return r.db.Close()
}
