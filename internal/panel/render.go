package panel

import (
	"fmt"
	"strconv"

	"kpidash/internal/core"
)

// DateLayout is the x-axis label format of time series charts.
const DateLayout = "2006-01-02"

// BarChart renders one bar per record in table order, x=Category, y=Value.
func BarChart(title string, table []core.CategoryRecord) (ChartSpec, error) {
	if len(table) == 0 {
		return ChartSpec{}, fmt.Errorf("bar chart %q: %w", title, core.ErrEmptyInput)
	}
	points := make([]Point, len(table))
	for i, r := range table {
		points[i] = Point{X: r.Category, Y: r.Value}
	}
	return ChartSpec{Type: ChartBar, Title: title, XField: "Category", YField: "Value", Points: points}, nil
}

// LineChart renders a single connected line, x=Date, y=Sales. Points keep the
// series order, which is chronological by construction.
func LineChart(title string, series []core.TimeSeriesRecord) (ChartSpec, error) {
	if len(series) == 0 {
		return ChartSpec{}, fmt.Errorf("line chart %q: %w", title, core.ErrEmptyInput)
	}
	points := make([]Point, len(series))
	for i, r := range series {
		points[i] = Point{X: r.Date.Format(DateLayout), Y: r.Sales}
	}
	return ChartSpec{Type: ChartLine, Title: title, XField: "Date", YField: "Sales", Points: points}, nil
}

// Table renders records as rows without reordering.
func Table(records []core.CategoryRecord) TableView {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Category, strconv.FormatInt(r.Value, 10)}
	}
	return TableView{Columns: []string{"Category", "Value"}, Rows: rows}
}

// MetricCardOf renders a pre-formatted KPI.
func MetricCardOf(label, value string) MetricCard {
	return MetricCard{Label: label, Value: value}
}

// TotalCard renders the Total KPI with integer currency formatting.
func TotalCard(m core.Metrics) MetricCard {
	return MetricCardOf("Total", m.TotalLabel())
}

// AverageCard renders the Average KPI with two-decimal currency formatting.
func AverageCard(m core.Metrics) MetricCard {
	return MetricCardOf("Average", m.AverageLabel())
}

// Text is a static passthrough.
func Text(style TextStyle, content string) TextBlock {
	return TextBlock{Style: style, Content: content}
}

// Select renders the category dropdown.
func Select(name, label string, options []string, selected string) SelectControl {
	return SelectControl{
		Name:     name,
		Label:    label,
		Options:  append([]string(nil), options...),
		Selected: selected,
	}
}

// Failure renders the fallback for a component whose render failed.
func Failure(component string, err error) ErrorPanel {
	msg := "unavailable"
	if err != nil {
		msg = err.Error()
	}
	return ErrorPanel{Component: component, Message: msg}
}
