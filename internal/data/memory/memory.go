package memory

import (
	"context"
	"fmt"

	"kpidash/internal/core"
	"kpidash/internal/data"
)

// Store serves fixed in-memory tables. It is read-only after construction.
type Store struct {
	categories []core.CategoryRecord
	series     []core.TimeSeriesRecord
}

// New validates both tables and returns a store holding private copies.
func New(categories []core.CategoryRecord, series []core.TimeSeriesRecord) (*Store, error) {
	cats, err := core.NewCategoryTable(categories)
	if err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}
	ts, err := core.NewTimeSeries(series)
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	return &Store{categories: cats, series: ts}, nil
}

// NewSample returns a store with the compiled-in sample data.
func NewSample() *Store {
	s, err := New(data.SampleCategories(), data.SampleSeries())
	if err != nil {
		// sample data is compiled in; failing here is a programming error
		panic(err)
	}
	return s
}

// CategoryTable returns a copy of the category table.
func (s *Store) CategoryTable(_ context.Context) ([]core.CategoryRecord, error) {
	return append([]core.CategoryRecord(nil), s.categories...), nil
}

// TimeSeries returns a copy of the monthly series.
func (s *Store) TimeSeries(_ context.Context) ([]core.TimeSeriesRecord, error) {
	return append([]core.TimeSeriesRecord(nil), s.series...), nil
}
