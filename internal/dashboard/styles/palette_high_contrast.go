package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "thick",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Jobs: JobColors{
		Running:   "46",
		Pending:   "226",
		Succeeded: "117",
		Failed:    "196",
		Preempted: "208",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "236",
		TabActive:    "51",
		SelectedItem: "238",
		SortColumn:   "51",
		Warning:      "226",
	},
	Chart: ChartColors{
		Line:  "51",
		Axis:  "250",
		Label: "231",
		Pin:   "201",
	},
}
