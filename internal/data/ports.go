package data

import (
	"context"

	"kpidash/internal/core"
)

// Ports for the sample data backends.
type (
	// CategoryReader returns the category/value table in insertion order.
	CategoryReader interface {
		CategoryTable(ctx context.Context) ([]core.CategoryRecord, error)
	}

	// SeriesReader returns the monthly sales series in chronological order.
	SeriesReader interface {
		TimeSeries(ctx context.Context) ([]core.TimeSeriesRecord, error)
	}

	// Store provides both tables that feed the dashboard.
	Store interface {
		CategoryReader
		SeriesReader
	}
)
