package http

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"kpidash/internal/config"
	"kpidash/internal/page"
	"kpidash/internal/panel"
)

// SVG canvas shared by both chart kinds.
const (
	chartWidth  = 640
	chartHeight = 320
	plotLeft    = 48
	plotRight   = 16
	plotTop     = 24
	plotBottom  = 40
	plotWidth   = chartWidth - plotLeft - plotRight
	plotHeight  = chartHeight - plotTop - plotBottom
	barFill     = 0.6
)

type (
	pageView struct {
		Title     string
		Selection string
		Theme     template.CSS
		Regions   []regionView
	}

	regionView struct {
		Name       string
		Expandable bool
		Summary    string
		Columns    []columnView
	}

	columnView struct {
		Weight int
		Panels []panelView
	}

	// panelView is a panel plus the drawing geometry of its chart, if any.
	panelView struct {
		panel.Panel
		Plot *chartView
	}

	chartView struct {
		Type      string
		Title     string
		XField    string
		YField    string
		Width     int
		Height    int
		BaselineY string
		PlotLeft  int
		PlotRight int
		MaxLabel  string
		Bars      []barView
		Polyline  string
		Markers   []markerView
	}

	barView struct {
		X, Y, Width, Height string
		LabelX, LabelY      string
		ValueY              string
		Label, Value        string
	}

	markerView struct {
		CX, CY         string
		LabelX, LabelY string
		Label, Tooltip string
	}
)

func newPageView(p page.Page, theme template.CSS) pageView {
	v := pageView{Title: p.Title, Selection: p.Selection, Theme: theme}
	for _, r := range p.Regions {
		rv := regionView{Name: r.Name, Expandable: r.Expandable, Summary: r.Summary}
		for _, c := range r.Columns {
			cv := columnView{Weight: c.Weight}
			for _, pn := range c.Panels {
				cv.Panels = append(cv.Panels, newPanelView(pn))
			}
			rv.Columns = append(rv.Columns, cv)
		}
		v.Regions = append(v.Regions, rv)
	}
	return v
}

func newPanelView(p panel.Panel) panelView {
	v := panelView{Panel: p}
	if p.Kind != panel.KindChart || p.Chart == nil {
		return v
	}
	switch p.Chart.Type {
	case panel.ChartBar:
		v.Plot = barChart(*p.Chart)
	case panel.ChartLine:
		v.Plot = lineChart(*p.Chart)
	}
	return v
}

func newChartView(spec panel.ChartSpec) *chartView {
	return &chartView{
		Type:      string(spec.Type),
		Title:     spec.Title,
		XField:    spec.XField,
		YField:    spec.YField,
		Width:     chartWidth,
		Height:    chartHeight,
		BaselineY: coord(plotTop + plotHeight),
		PlotLeft:  plotLeft,
		PlotRight: chartWidth - plotRight,
		MaxLabel:  strconv.FormatInt(maxY(spec.Points), 10),
	}
}

// barChart lays the bars out left to right in point order. Heights are a
// rounded percentage of the largest value; positive values never drop below
// 2% so they stay visible.
func barChart(spec panel.ChartSpec) *chartView {
	v := newChartView(spec)
	n := len(spec.Points)
	if n == 0 {
		return v
	}
	peak := maxY(spec.Points)
	slot := float64(plotWidth) / float64(n)
	width := slot * barFill
	for i, p := range spec.Points {
		h := float64(plotHeight) * float64(percentOf(p.Y, peak)) / 100
		x := plotLeft + slot*float64(i) + (slot-width)/2
		y := plotTop + float64(plotHeight) - h
		v.Bars = append(v.Bars, barView{
			X:      coord(x),
			Y:      coord(y),
			Width:  coord(width),
			Height: coord(h),
			LabelX: coord(x + width/2),
			LabelY: coord(plotTop + plotHeight + 18),
			ValueY: coord(y - 6),
			Label:  p.X,
			Value:  strconv.FormatInt(p.Y, 10),
		})
	}
	return v
}

// lineChart spaces points evenly along x and scales y linearly to the
// largest value.
func lineChart(spec panel.ChartSpec) *chartView {
	v := newChartView(spec)
	n := len(spec.Points)
	if n == 0 {
		return v
	}
	peak := maxY(spec.Points)
	coords := make([]string, 0, n)
	for i, p := range spec.Points {
		x := plotLeft + float64(plotWidth)/2
		if n > 1 {
			x = plotLeft + float64(plotWidth)*float64(i)/float64(n-1)
		}
		y := float64(plotTop + plotHeight)
		if peak > 0 && p.Y > 0 {
			y -= float64(plotHeight) * float64(p.Y) / float64(peak)
		}
		coords = append(coords, coord(x)+","+coord(y))
		v.Markers = append(v.Markers, markerView{
			CX:      coord(x),
			CY:      coord(y),
			LabelX:  coord(x),
			LabelY:  coord(plotTop + plotHeight + 18),
			Label:   axisLabel(p.X),
			Tooltip: p.X + ": " + strconv.FormatInt(p.Y, 10),
		})
	}
	v.Polyline = strings.Join(coords, " ")
	return v
}

// percentOf returns value as a rounded percentage of max, clamped to [0,100].
func percentOf(value, peak int64) int {
	if peak <= 0 || value <= 0 {
		return 0
	}
	width := int((value*100 + peak/2) / peak)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func maxY(points []panel.Point) int64 {
	var peak int64
	for _, p := range points {
		if p.Y > peak {
			peak = p.Y
		}
	}
	return peak
}

// axisLabel shortens a date label to its month name.
func axisLabel(x string) string {
	if t, err := time.Parse(panel.DateLayout, x); err == nil {
		return t.Format("Jan")
	}
	return x
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// themeCSS renders the theme as CSS custom properties. Values that could
// break out of the declaration fall back to the defaults.
func themeCSS(t config.Theme) template.CSS {
	def := config.DefaultTheme()
	pick := func(v, fallback string) string {
		if v == "" || strings.ContainsAny(v, ";{}<>\\") {
			return fallback
		}
		return v
	}
	var b strings.Builder
	b.WriteString(":root{")
	b.WriteString("--kpi-font:" + pick(t.FontFamily, def.FontFamily) + ";")
	b.WriteString("--kpi-bg:" + pick(t.Background, def.Background) + ";")
	b.WriteString("--kpi-text:" + pick(t.Text, def.Text) + ";")
	b.WriteString("--kpi-accent:" + pick(t.Accent, def.Accent) + ";")
	b.WriteString("}")
	return template.CSS(b.String())
}
