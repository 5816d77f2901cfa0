package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpidash/internal/core"
	"kpidash/internal/data"
)

func TestBarChart_OneBarPerRecordInOrder(t *testing.T) {
	table := data.SampleCategories()
	spec, err := BarChart("Category Value Comparison", table)
	require.NoError(t, err)

	assert.Equal(t, ChartBar, spec.Type)
	assert.Equal(t, "Category", spec.XField)
	assert.Equal(t, "Value", spec.YField)
	assert.Equal(t, []Point{{"A", 10}, {"B", 15}, {"C", 7}, {"D", 22}}, spec.Points)
	assert.Equal(t, data.SampleCategories(), table, "input must not be mutated")
}

func TestBarChart_Empty(t *testing.T) {
	_, err := BarChart("empty", nil)
	assert.True(t, errors.Is(err, core.ErrEmptyInput), "got %v", err)
}

func TestLineChart_TwelveChronologicalPoints(t *testing.T) {
	spec, err := LineChart("Monthly Sales Trend", data.SampleSeries())
	require.NoError(t, err)

	require.Len(t, spec.Points, 12)
	assert.Equal(t, ChartLine, spec.Type)
	assert.Equal(t, Point{X: "2021-01-31", Y: 100}, spec.Points[0])
	assert.Equal(t, Point{X: "2021-12-31", Y: 800}, spec.Points[11])
	for i := 1; i < len(spec.Points); i++ {
		assert.Less(t, spec.Points[i-1].X, spec.Points[i].X)
	}
}

func TestLineChart_Empty(t *testing.T) {
	_, err := LineChart("empty", []core.TimeSeriesRecord{})
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestTable_KeepsOrder(t *testing.T) {
	view := Table([]core.CategoryRecord{{Category: "D", Value: 22}, {Category: "A", Value: 10}})
	assert.Equal(t, []string{"Category", "Value"}, view.Columns)
	assert.Equal(t, [][]string{{"D", "22"}, {"A", "10"}}, view.Rows)

	empty := Table(nil)
	assert.Empty(t, empty.Rows)
}

func TestMetricCards(t *testing.T) {
	m := core.Metrics{Total: 54, Average: 13.5}
	assert.Equal(t, MetricCard{Label: "Total", Value: "$54"}, TotalCard(m))
	assert.Equal(t, MetricCard{Label: "Average", Value: "$13.50"}, AverageCard(m))
}

func TestSelect_CopiesOptions(t *testing.T) {
	opts := []string{"A", "B"}
	s := Select("category", "Select Category", opts, "B")
	opts[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, s.Options)
	assert.Equal(t, "B", s.Selected)
}

func TestPanelConstructorsSetKind(t *testing.T) {
	assert.Equal(t, KindText, OfText("t", Text(StyleBody, "x")).Kind)
	assert.Equal(t, KindMetric, OfMetric("m", MetricCardOf("l", "v")).Kind)
	assert.Equal(t, KindTable, OfTable("tb", Table(nil)).Kind)
	assert.Equal(t, KindSelect, OfSelect("s", Select("n", "l", nil, "")).Kind)

	p := OfError("e", Failure("bar_chart", core.ErrEmptyInput))
	assert.Equal(t, KindError, p.Kind)
	assert.Equal(t, "empty input", p.Error.Message)
}
