package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Jobs: JobColors{
		Running:   "41",
		Pending:   "220",
		Succeeded: "110",
		Failed:    "203",
		Preempted: "214",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "238",
		TabActive:    "75",
		SelectedItem: "237",
		SortColumn:   "81",
		Warning:      "214",
	},
	Chart: ChartColors{
		Line:  "81",
		Axis:  "240",
		Label: "245",
		Pin:   "213",
	},
}
