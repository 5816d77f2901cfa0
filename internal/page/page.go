// Package page composes panels into the dashboard layout. One call to
// Compose is one render pass: every panel is rebuilt from the store and the
// given selection, top to bottom.
package page

import (
	"kpidash/internal/core"
	"kpidash/internal/panel"
)

// Region names in page order.
const (
	RegionHeader  = "header"
	RegionMain    = "main"
	RegionKPI     = "kpi"
	RegionDetails = "details"
	RegionTrends  = "trends"
	RegionFooter  = "footer"
)

type (
	// Column is a vertical stack of panels. Weight is relative to sibling columns.
	Column struct {
		Weight int           `json:"weight" yaml:"weight"`
		Panels []panel.Panel `json:"panels" yaml:"panels"`
	}

	// Region is a horizontal band of the page.
	Region struct {
		Name       string   `json:"name" yaml:"name"`
		Expandable bool     `json:"expandable,omitempty" yaml:"expandable,omitempty"`
		Summary    string   `json:"summary,omitempty" yaml:"summary,omitempty"`
		Columns    []Column `json:"columns" yaml:"columns"`
	}

	// Page is the result of one render pass.
	Page struct {
		Title     string       `json:"title" yaml:"title"`
		Selection string       `json:"selection" yaml:"selection"`
		Metrics   core.Metrics `json:"metrics" yaml:"metrics"`
		Regions   []Region     `json:"regions" yaml:"regions"`
	}
)

// Panels returns every panel in display order.
func (p Page) Panels() []panel.Panel {
	var out []panel.Panel
	for _, r := range p.Regions {
		for _, c := range r.Columns {
			out = append(out, c.Panels...)
		}
	}
	return out
}

// Region returns the named region.
func (p Page) Region(name string) (Region, bool) {
	for _, r := range p.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Failures returns the error panels of the page.
func (p Page) Failures() []panel.ErrorPanel {
	var out []panel.ErrorPanel
	for _, pn := range p.Panels() {
		if pn.Kind == panel.KindError {
			out = append(out, *pn.Error)
		}
	}
	return out
}

func single(panels ...panel.Panel) []Column {
	return []Column{{Weight: 1, Panels: panels}}
}
