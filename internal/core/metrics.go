package core

// ComputeMetrics derives Total and Average from the full category table.
func ComputeMetrics(table []CategoryRecord) (Metrics, error) {
	if len(table) == 0 {
		return Metrics{}, ErrEmptyInput
	}
	var total int64
	for _, r := range table {
		total += r.Value
	}
	return Metrics{
		Total:   total,
		Average: float64(total) / float64(len(table)),
	}, nil
}

// TotalLabel is the Total formatted for a metric card.
func (m Metrics) TotalLabel() string { return FormatDollars(m.Total) }

// AverageLabel is the Average formatted for a metric card.
func (m Metrics) AverageLabel() string { return FormatDollarsFixed(m.Average) }
