package page

import (
	"context"
	"fmt"
	"log/slog"

	"kpidash/internal/core"
	"kpidash/internal/data"
	"kpidash/internal/panel"
)

// SelectName is the form field the select control posts.
const SelectName = "category"

// Composer runs render passes against a data store.
type Composer struct {
	store   data.Store
	content Content
	logger  *slog.Logger
}

// NewComposer creates a composer. A nil logger uses slog.Default.
func NewComposer(store data.Store, content Content, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{store: store, content: content, logger: logger}
}

// Categories returns the selectable categories in table order.
func (c *Composer) Categories(ctx context.Context) ([]string, error) {
	table, err := c.store.CategoryTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read category table: %w", err)
	}
	return core.Categories(table), nil
}

// Compose builds the whole page for selection. Panels that cannot render are
// replaced by error panels; only a failing store fails the pass.
func (c *Composer) Compose(ctx context.Context, selection string) (Page, error) {
	table, err := c.store.CategoryTable(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("read category table: %w", err)
	}
	series, err := c.store.TimeSeries(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("read time series: %w", err)
	}

	ct := c.content
	text := func(id string, style panel.TextStyle, s string) panel.Panel {
		return panel.OfText(id, panel.Text(style, s))
	}

	// Metrics always reflect the full table, never the filtered subset.
	metrics, metricsErr := core.ComputeMetrics(table)

	header := Region{Name: RegionHeader, Columns: single(text("title", panel.StyleTitle, ct.Title))}

	overview := []panel.Panel{
		text("overview_header", panel.StyleHeader, ct.OverviewHeader),
		text("overview", panel.StyleBody, ct.Overview),
		text("chart_header", panel.StyleHeader, ct.ChartHeader),
	}
	if bar, err := panel.BarChart(ct.BarChartTitle, table); err != nil {
		overview = append(overview, c.failed(ctx, "bar_chart", err))
	} else {
		overview = append(overview, panel.OfChart("bar_chart", bar))
	}

	filters := []panel.Panel{
		text("filters_header", panel.StyleHeader, ct.FiltersHeader),
		panel.OfSelect("category_select", panel.Select(SelectName, ct.SelectLabel, core.Categories(table), selection)),
		text("filter_caption", panel.StyleBody, fmt.Sprintf(ct.FilterCaption, selection)),
		panel.OfTable("filtered_table", panel.Table(core.Filter(table, selection))),
	}

	body := Region{Name: RegionMain, Columns: []Column{
		{Weight: 3, Panels: overview},
		{Weight: 1, Panels: filters},
	}}

	totalCol := []panel.Panel{text("total_header", panel.StyleSubheader, ct.TotalHeader)}
	avgCol := []panel.Panel{text("average_header", panel.StyleSubheader, ct.AverageHeader)}
	if metricsErr != nil {
		totalCol = append(totalCol, c.failed(ctx, "total_card", metricsErr))
		avgCol = append(avgCol, c.failed(ctx, "average_card", metricsErr))
	} else {
		totalCol = append(totalCol, panel.OfMetric("total_card", panel.TotalCard(metrics)))
		avgCol = append(avgCol, panel.OfMetric("average_card", panel.AverageCard(metrics)))
	}
	kpi := Region{Name: RegionKPI, Columns: []Column{
		{Weight: 2, Panels: append([]panel.Panel{text("kpi_header", panel.StyleHeader, ct.KPIHeader)}, totalCol...)},
		{Weight: 2, Panels: avgCol},
	}}

	details := Region{
		Name:       RegionDetails,
		Expandable: true,
		Summary:    ct.DetailsSummary,
		Columns:    single(text("details", panel.StyleBody, ct.Details)),
	}

	trendPanels := []panel.Panel{text("trends_header", panel.StyleHeader, ct.TrendsHeader)}
	if line, err := panel.LineChart(ct.LineChartTitle, series); err != nil {
		trendPanels = append(trendPanels, c.failed(ctx, "line_chart", err))
	} else {
		trendPanels = append(trendPanels, panel.OfChart("line_chart", line))
	}
	trends := Region{Name: RegionTrends, Columns: single(trendPanels...)}

	footer := Region{Name: RegionFooter, Columns: single(text("footer", panel.StyleFooter, ct.Footer))}

	return Page{
		Title:     ct.Title,
		Selection: selection,
		Metrics:   metrics,
		Regions:   []Region{header, body, kpi, details, trends, footer},
	}, nil
}

func (c *Composer) failed(ctx context.Context, component string, err error) panel.Panel {
	c.logger.WarnContext(ctx, "Panel render failed", "panel", component, "error", err)
	return panel.OfError(component, panel.Failure(component, err))
}
