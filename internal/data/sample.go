// Package data defines the sample-data ports and the compiled-in sample values
// shared by every backend.
package data

import (
	"time"

	"kpidash/internal/core"
)

// SeriesStart is the month of the first time series point.
var SeriesStart = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

// SampleCategories returns the category/value table shown by the bar chart.
func SampleCategories() []core.CategoryRecord {
	return []core.CategoryRecord{
		{Category: "A", Value: 10},
		{Category: "B", Value: 15},
		{Category: "C", Value: 7},
		{Category: "D", Value: 22},
	}
}

// SampleSales returns the monthly sales values, one per month from SeriesStart.
func SampleSales() []int64 {
	return []int64{100, 200, 150, 300, 400, 350, 500, 600, 550, 700, 750, 800}
}

// SampleSeries returns the monthly sales series with month-end dates.
func SampleSeries() []core.TimeSeriesRecord {
	return core.MonthlySeries(SeriesStart, SampleSales())
}
