// Package textview prints a composed page to a terminal. Charts become
// horizontal ASCII bars, tables are column-aligned and the select control
// lists its options with the current one bracketed.
package textview

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"kpidash/internal/page"
	"kpidash/internal/panel"
)

// DefaultBarWidth is the length of the longest chart bar in characters.
const DefaultBarWidth = 40

// Options control terminal output.
type Options struct {
	BarWidth int
	NoColor  bool
}

type printer struct {
	w        io.Writer
	barWidth int
	err      error

	bold   *color.Color
	header *color.Color
	muted  *color.Color
	accent *color.Color
	value  *color.Color
	failed *color.Color
}

// Render writes p to w region by region, top to bottom.
func Render(w io.Writer, p page.Page, opts Options) error {
	if opts.BarWidth <= 0 {
		opts.BarWidth = DefaultBarWidth
	}
	pr := &printer{
		w:        w,
		barWidth: opts.BarWidth,
		bold:     color.New(color.Bold),
		header:   color.New(color.Bold, color.FgCyan),
		muted:    color.New(color.Faint),
		accent:   color.New(color.FgBlue),
		value:    color.New(color.Bold, color.FgGreen),
		failed:   color.New(color.FgRed),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{pr.bold, pr.header, pr.muted, pr.accent, pr.value, pr.failed} {
			c.DisableColor()
		}
	}

	for i, r := range p.Regions {
		if i > 0 {
			pr.printf("\n")
		}
		pr.region(r)
	}
	return pr.err
}

func (pr *printer) printf(format string, args ...any) {
	if pr.err != nil {
		return
	}
	if _, err := fmt.Fprintf(pr.w, format, args...); err != nil {
		pr.err = fmt.Errorf("textview: %w", err)
	}
}

func (pr *printer) region(r page.Region) {
	indent := ""
	if r.Expandable {
		pr.printf("%s\n", pr.bold.Sprint("> "+r.Summary))
		indent = "    "
	}
	for i, c := range r.Columns {
		if i > 0 {
			pr.printf("\n")
		}
		for _, p := range c.Panels {
			pr.panel(p, indent)
		}
	}
}

func (pr *printer) panel(p panel.Panel, indent string) {
	switch p.Kind {
	case panel.KindText:
		pr.text(*p.Text, indent)
	case panel.KindChart:
		pr.chart(*p.Chart, indent)
	case panel.KindTable:
		pr.table(*p.Table, indent)
	case panel.KindMetric:
		pr.printf("%s%s\n", indent, pr.value.Sprint(p.Metric.Value))
	case panel.KindSelect:
		pr.selectControl(*p.Select, indent)
	case panel.KindError:
		pr.printf("%s%s\n", indent, pr.failed.Sprintf("! %s unavailable: %s", p.Error.Component, p.Error.Message))
	}
}

func (pr *printer) text(t panel.TextBlock, indent string) {
	switch t.Style {
	case panel.StyleTitle:
		pr.printf("%s%s\n%s%s\n", indent, pr.bold.Sprint(t.Content), indent, strings.Repeat("=", len([]rune(t.Content))))
	case panel.StyleHeader:
		pr.printf("%s%s\n", indent, pr.header.Sprint(t.Content))
	case panel.StyleSubheader:
		pr.printf("%s%s\n", indent, pr.bold.Sprint(t.Content))
	case panel.StyleFooter:
		pr.printf("%s%s\n", indent, pr.muted.Sprint(t.Content))
	default:
		pr.printf("%s%s\n", indent, t.Content)
	}
}

func (pr *printer) chart(c panel.ChartSpec, indent string) {
	pr.printf("%s%s\n", indent, pr.bold.Sprint(c.Title))
	if len(c.Points) == 0 {
		pr.printf("%s%s\n", indent, pr.muted.Sprint("(no data)"))
		return
	}
	var peak int64
	labelWidth := 0
	for _, p := range c.Points {
		if p.Y > peak {
			peak = p.Y
		}
		if len(p.X) > labelWidth {
			labelWidth = len(p.X)
		}
	}
	for _, p := range c.Points {
		pr.printf("%s%-*s  %s %s\n", indent, labelWidth, p.X,
			pr.accent.Sprint(Bar(p.Y, peak, pr.barWidth)),
			strconv.FormatInt(p.Y, 10))
	}
}

func (pr *printer) table(t panel.TableView, indent string) {
	tbl := &table{headers: t.Columns, bold: pr.bold}
	for _, row := range t.Rows {
		tbl.addRow(row...)
	}
	if len(t.Rows) == 0 {
		tbl.addRow("(no rows)")
	}
	if pr.err == nil {
		if err := tbl.render(pr.w, indent); err != nil {
			pr.err = fmt.Errorf("textview: %w", err)
		}
	}
}

func (pr *printer) selectControl(s panel.SelectControl, indent string) {
	opts := make([]string, len(s.Options))
	for i, o := range s.Options {
		if o == s.Selected {
			opts[i] = pr.accent.Sprint("[" + o + "]")
		} else {
			opts[i] = " " + o + " "
		}
	}
	pr.printf("%s%s: %s\n", indent, s.Label, strings.Join(opts, " "))
}

// Bar returns a run of '#' whose length is value's share of peak scaled to
// width. Positive values get at least one character.
func Bar(value, peak int64, width int) string {
	if value <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	n := int((value*int64(width) + peak/2) / peak)
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("#", n)
}
