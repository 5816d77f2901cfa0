package page

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpidash/internal/core"
	"kpidash/internal/data"
	"kpidash/internal/data/memory"
	"kpidash/internal/panel"
)

type failingStore struct{ err error }

func (f failingStore) CategoryTable(context.Context) ([]core.CategoryRecord, error) { return nil, f.err }
func (f failingStore) TimeSeries(context.Context) ([]core.TimeSeriesRecord, error) { return nil, f.err }

func newComposer() *Composer {
	return NewComposer(memory.NewSample(), DefaultContent(), nil)
}

func panelIDs(p Page) []string {
	var ids []string
	for _, pn := range p.Panels() {
		ids = append(ids, pn.ID)
	}
	return ids
}

func findPanel(t *testing.T, p Page, id string) panel.Panel {
	t.Helper()
	for _, pn := range p.Panels() {
		if pn.ID == id {
			return pn
		}
	}
	t.Fatalf("panel %q not found in %v", id, panelIDs(p))
	return panel.Panel{}
}

func TestCompose_FixedOrder(t *testing.T) {
	p, err := newComposer().Compose(context.Background(), "A")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"title",
		"overview_header", "overview", "chart_header", "bar_chart",
		"filters_header", "category_select", "filter_caption", "filtered_table",
		"kpi_header", "total_header", "total_card", "average_header", "average_card",
		"details",
		"trends_header", "line_chart",
		"footer",
	}, panelIDs(p))

	var names []string
	for _, r := range p.Regions {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{RegionHeader, RegionMain, RegionKPI, RegionDetails, RegionTrends, RegionFooter}, names)

	body, ok := p.Region(RegionMain)
	require.True(t, ok)
	require.Len(t, body.Columns, 2)
	assert.Equal(t, 3, body.Columns[0].Weight)
	assert.Equal(t, 1, body.Columns[1].Weight)

	details, ok := p.Region(RegionDetails)
	require.True(t, ok)
	assert.True(t, details.Expandable)
	assert.Equal(t, "Show More Details", details.Summary)
}

func TestCompose_Footer(t *testing.T) {
	p, err := newComposer().Compose(context.Background(), "A")
	require.NoError(t, err)

	footer := findPanel(t, p, "footer").Text
	require.NotNil(t, footer)
	assert.Equal(t, panel.StyleFooter, footer.Style)
	assert.Equal(t, "© 2024 Power BI-Inspired Streamlit Dashboard", footer.Content)
}

func TestCompose_SelectionC(t *testing.T) {
	p, err := newComposer().Compose(context.Background(), "C")
	require.NoError(t, err)

	tbl := findPanel(t, p, "filtered_table").Table
	require.NotNil(t, tbl)
	assert.Equal(t, [][]string{{"C", "7"}}, tbl.Rows)

	sel := findPanel(t, p, "category_select").Select
	assert.Equal(t, "C", sel.Selected)
	assert.Equal(t, []string{"A", "B", "C", "D"}, sel.Options)

	assert.Equal(t, "Displaying data for category: C", findPanel(t, p, "filter_caption").Text.Content)
}

func TestCompose_MetricsIgnoreSelection(t *testing.T) {
	c := newComposer()
	for _, cat := range []string{"A", "B", "C", "D"} {
		p, err := c.Compose(context.Background(), cat)
		require.NoError(t, err)
		assert.Equal(t, int64(54), p.Metrics.Total, cat)
		assert.Equal(t, "$54", findPanel(t, p, "total_card").Metric.Value, cat)
		assert.Equal(t, "$13.50", findPanel(t, p, "average_card").Metric.Value, cat)
	}
}

func TestCompose_LineChartPoints(t *testing.T) {
	p, err := newComposer().Compose(context.Background(), "A")
	require.NoError(t, err)

	chart := findPanel(t, p, "line_chart").Chart
	require.NotNil(t, chart)
	require.Len(t, chart.Points, 12)
	assert.Equal(t, panel.Point{X: "2021-01-31", Y: 100}, chart.Points[0])
	assert.Equal(t, int64(800), chart.Points[11].Y)
}

func TestCompose_EmptyTableYieldsErrorPanels(t *testing.T) {
	store, err := memory.New(nil, data.SampleSeries())
	require.NoError(t, err)

	p, err := NewComposer(store, DefaultContent(), nil).Compose(context.Background(), "")
	require.NoError(t, err, "panel failures must not fail the pass")

	failures := p.Failures()
	var components []string
	for _, f := range failures {
		components = append(components, f.Component)
	}
	assert.ElementsMatch(t, []string{"bar_chart", "total_card", "average_card"}, components)
	for _, f := range failures {
		assert.Contains(t, f.Message, core.ErrEmptyInput.Error())
	}

	// unaffected panels still render
	assert.Equal(t, panel.KindChart, findPanel(t, p, "line_chart").Kind)
	assert.Empty(t, findPanel(t, p, "filtered_table").Table.Rows)
}

func TestCompose_StoreFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewComposer(failingStore{err: boom}, DefaultContent(), nil).Compose(context.Background(), "A")
	assert.ErrorIs(t, err, boom)
}
