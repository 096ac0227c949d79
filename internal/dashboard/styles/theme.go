// Package styles holds the dashboard color palettes and derived lipgloss styles.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/trainwatch/internal/models"
)

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// JobColors colors job and reservation states.
type JobColors struct {
	Running   string
	Pending   string
	Succeeded string
	Failed    string
	Preempted string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	TabActive    string
	SelectedItem string
	SortColumn   string
	Warning      string
}

// ChartColors defines metric chart colors.
type ChartColors struct {
	Line  string
	Axis  string
	Label string
	Pin   string
}

// Theme defines the dashboard style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "thick"

	Base   BaseColors
	Jobs   JobColors
	Chrome ChromeColors
	Chart  ChartColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Resolve returns the named theme, falling back to DefaultTheme.
func Resolve(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return DefaultTheme
}

// Border returns the lipgloss border for the theme's border style.
func (t Theme) Border() lipgloss.Border {
	switch t.BorderStyle {
	case "sharp":
		return lipgloss.NormalBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "thick":
		return lipgloss.ThickBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// JobStatusColor returns the color for a job status.
func (t Theme) JobStatusColor(status models.JobStatus) string {
	switch status {
	case models.JobRunning:
		return t.Jobs.Running
	case models.JobSucceeded:
		return t.Jobs.Succeeded
	case models.JobFailed:
		return t.Jobs.Failed
	case models.JobPreempted:
		return t.Jobs.Preempted
	default:
		return t.Jobs.Pending
	}
}

// ReservationStatusColor returns the color for a reservation status.
func (t Theme) ReservationStatusColor(status models.ReservationStatus) string {
	switch status {
	case models.ReservationActive:
		return t.Jobs.Running
	case models.ReservationScheduled:
		return t.Jobs.Pending
	default:
		return t.Base.Muted
	}
}
