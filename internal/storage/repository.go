package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"kpidash/internal/core"

	_ "modernc.org/sqlite"
)

// MemoryDSN is an in-memory SQLite database shared by every connection of
// the process. Nothing is written to disk.
const MemoryDSN = "file:kpidash?mode=memory&cache=shared"

// SQLiteRepository serves the sample tables from SQLite.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository opens dsn, seeds it through the embedded migrations and
// returns a repository. An empty dsn selects MemoryDSN and a nil logger uses
// slog.Default.
func NewSQLiteRepository(dsn string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dsn == "" {
		dsn = MemoryDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The shared in-memory database lives as long as one connection stays open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool. For the in-memory DSN this drops the data.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CategoryTable implements data.CategoryReader.
func (r *SQLiteRepository) CategoryTable(ctx context.Context) ([]core.CategoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, value FROM category_values ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query category values: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryRecord
	for rows.Next() {
		var rec core.CategoryRecord
		if err := rows.Scan(&rec.Category, &rec.Value); err != nil {
			return nil, fmt.Errorf("scan category value: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category values: %w", err)
	}

	table, err := core.NewCategoryTable(out)
	if err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}
	r.logger.DebugContext(ctx, "Category table loaded from SQLite", "rows", len(table))
	return table, nil
}

// TimeSeries implements data.SeriesReader.
func (r *SQLiteRepository) TimeSeries(ctx context.Context) ([]core.TimeSeriesRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT month_end, sales FROM monthly_sales ORDER BY month_end`)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	var out []core.TimeSeriesRecord
	for rows.Next() {
		var (
			day   string
			sales int64
		)
		if err := rows.Scan(&day, &sales); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("parse month end %q: %w", day, err)
		}
		out = append(out, core.TimeSeriesRecord{Date: date, Sales: sales})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly sales: %w", err)
	}

	series, err := core.NewTimeSeries(out)
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	return series, nil
}
