// Package panel maps data products to display artifacts. Every function is a
// pure mapping; inputs are never modified and nothing here draws pixels.
package panel

// Kind identifies the artifact a Panel carries.
type Kind string

const (
	KindChart  Kind = "chart"
	KindTable  Kind = "table"
	KindMetric Kind = "metric"
	KindText   Kind = "text"
	KindSelect Kind = "select"
	KindError  Kind = "error"
)

// ChartType is the chart family of a ChartSpec.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
)

// TextStyle is the typographic role of a TextBlock.
type TextStyle string

const (
	StyleTitle     TextStyle = "title"
	StyleHeader    TextStyle = "header"
	StyleSubheader TextStyle = "subheader"
	StyleBody      TextStyle = "body"
	StyleFooter    TextStyle = "footer"
)

type (
	// Point is one x/y pair. X is already formatted as the axis label.
	Point struct {
		X string `json:"x" yaml:"x"`
		Y int64  `json:"y" yaml:"y"`
	}

	// ChartSpec describes a chart for the host to draw.
	ChartSpec struct {
		Type   ChartType `json:"type" yaml:"type"`
		Title  string    `json:"title" yaml:"title"`
		XField string    `json:"x_field" yaml:"x_field"`
		YField string    `json:"y_field" yaml:"y_field"`
		Points []Point   `json:"points" yaml:"points"`
	}

	// TableView is a direct tabular display of records.
	TableView struct {
		Columns []string   `json:"columns" yaml:"columns"`
		Rows    [][]string `json:"rows" yaml:"rows"`
	}

	// MetricCard is a single KPI.
	MetricCard struct {
		Label string `json:"label" yaml:"label"`
		Value string `json:"value" yaml:"value"`
	}

	// TextBlock is static text with a typographic role.
	TextBlock struct {
		Style   TextStyle `json:"style" yaml:"style"`
		Content string    `json:"content" yaml:"content"`
	}

	// SelectControl is the dropdown the host binds to selection changes.
	SelectControl struct {
		Name     string   `json:"name" yaml:"name"`
		Label    string   `json:"label" yaml:"label"`
		Options  []string `json:"options" yaml:"options"`
		Selected string   `json:"selected" yaml:"selected"`
	}

	// ErrorPanel replaces a component whose render failed.
	ErrorPanel struct {
		Component string `json:"component" yaml:"component"`
		Message   string `json:"message" yaml:"message"`
	}

	// Panel is one display artifact. Exactly one payload field is set,
	// matching Kind.
	Panel struct {
		ID     string         `json:"id" yaml:"id"`
		Kind   Kind           `json:"kind" yaml:"kind"`
		Chart  *ChartSpec     `json:"chart,omitempty" yaml:"chart,omitempty"`
		Table  *TableView     `json:"table,omitempty" yaml:"table,omitempty"`
		Metric *MetricCard    `json:"metric,omitempty" yaml:"metric,omitempty"`
		Text   *TextBlock     `json:"text,omitempty" yaml:"text,omitempty"`
		Select *SelectControl `json:"select,omitempty" yaml:"select,omitempty"`
		Error  *ErrorPanel    `json:"error,omitempty" yaml:"error,omitempty"`
	}
)

// OfChart wraps a chart spec.
func OfChart(id string, c ChartSpec) Panel { return Panel{ID: id, Kind: KindChart, Chart: &c} }

// OfTable wraps a table view.
func OfTable(id string, t TableView) Panel { return Panel{ID: id, Kind: KindTable, Table: &t} }

// OfMetric wraps a metric card.
func OfMetric(id string, m MetricCard) Panel { return Panel{ID: id, Kind: KindMetric, Metric: &m} }

// OfText wraps a text block.
func OfText(id string, t TextBlock) Panel { return Panel{ID: id, Kind: KindText, Text: &t} }

// OfSelect wraps a select control.
func OfSelect(id string, s SelectControl) Panel { return Panel{ID: id, Kind: KindSelect, Select: &s} }

// OfError wraps an error panel.
func OfError(id string, e ErrorPanel) Panel { return Panel{ID: id, Kind: KindError, Error: &e} }
