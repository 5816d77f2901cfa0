package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SeriesLength is the fixed number of monthly points in a time series.
const SeriesLength = 12

type (
	// CategoryRecord is one row of the category/value table.
	CategoryRecord struct {
		Category string `json:"category" yaml:"category"`
		Value    int64  `json:"value" yaml:"value"`
	}

	// TimeSeriesRecord is one monthly point. Date is the last day of the month, UTC.
	TimeSeriesRecord struct {
		Date  time.Time `json:"date" yaml:"date"`
		Sales int64     `json:"sales" yaml:"sales"`
	}

	// Metrics are derived from the full category table on every render pass.
	Metrics struct {
		Total   int64   `json:"total" yaml:"total"`
		Average float64 `json:"average" yaml:"average"`
	}
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrInvalidSeries     = errors.New("invalid time series")
)

// Validate checks a single record.
func (r CategoryRecord) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCategory)
	}
	return nil
}

// NewCategoryTable validates records and returns an independent copy.
// Category names must be unique.
func NewCategoryTable(records []CategoryRecord) ([]CategoryRecord, error) {
	seen := make(map[string]struct{}, len(records))
	out := make([]CategoryRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[r.Category]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, r.Category)
		}
		seen[r.Category] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// Categories returns the category names in table order.
func Categories(table []CategoryRecord) []string {
	names := make([]string, len(table))
	for i, r := range table {
		names[i] = r.Category
	}
	return names
}

// MonthEnd returns the last day of the given month at midnight UTC.
func MonthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// MonthlySeries builds a series of consecutive month ends starting at the
// month of start, one point per sales value.
func MonthlySeries(start time.Time, sales []int64) []TimeSeriesRecord {
	out := make([]TimeSeriesRecord, len(sales))
	for i, s := range sales {
		out[i] = TimeSeriesRecord{
			Date:  MonthEnd(start.Year(), start.Month()+time.Month(i)),
			Sales: s,
		}
	}
	return out
}

// NewTimeSeries validates a monthly series and returns an independent copy.
// It must hold exactly SeriesLength points, each one calendar month after the
// previous one.
func NewTimeSeries(records []TimeSeriesRecord) ([]TimeSeriesRecord, error) {
	if len(records) != SeriesLength {
		return nil, fmt.Errorf("%w: want %d points, got %d", ErrInvalidSeries, SeriesLength, len(records))
	}
	out := make([]TimeSeriesRecord, len(records))
	for i, r := range records {
		if r.Date.IsZero() {
			return nil, fmt.Errorf("%w: zero date at index %d", ErrInvalidSeries, i)
		}
		if i > 0 {
			prev := records[i-1].Date
			want := MonthEnd(prev.Year(), prev.Month()+1)
			if y, m, _ := r.Date.Date(); y != want.Year() || m != want.Month() {
				return nil, fmt.Errorf("%w: %s does not follow %s", ErrInvalidSeries,
					r.Date.Format("2006-01-02"), prev.Format("2006-01-02"))
			}
		}
		out[i] = r
	}
	return out, nil
}
