package page

// Content holds the static copy of the page.
type Content struct {
	Title          string
	OverviewHeader string
	Overview       string
	ChartHeader    string
	BarChartTitle  string
	FiltersHeader  string
	SelectLabel    string
	FilterCaption  string // formatted with the selected category
	KPIHeader      string
	TotalHeader    string
	AverageHeader  string
	DetailsSummary string
	Details        string
	TrendsHeader   string
	LineChartTitle string
	Footer         string
}

// DefaultContent is the copy of the sample dashboard.
func DefaultContent() Content {
	return Content{
		Title:          "Power BI-Inspired Dashboard",
		OverviewHeader: "Overview",
		Overview: "This dashboard provides key metrics and performance indicators. " +
			"Use the filters to interact with the data.",
		ChartHeader:    "Category Value Comparison",
		BarChartTitle:  "Category Value Comparison",
		FiltersHeader:  "Filters",
		SelectLabel:    "Select Category",
		FilterCaption:  "Displaying data for category: %s",
		KPIHeader:      "Key Performance Indicators",
		TotalHeader:    "Total Value",
		AverageHeader:  "Average Value",
		DetailsSummary: "Show More Details",
		Details: "You can place additional metrics, trends, or detailed analysis here. " +
			"This section can include things like time series charts, " +
			"regional breakdowns, or predictive analytics.",
		TrendsHeader:   "Trends Over Time",
		LineChartTitle: "Monthly Sales Trend",
		Footer:         "© 2024 Power BI-Inspired Streamlit Dashboard",
	}
}
