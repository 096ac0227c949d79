package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/trainwatch/internal/listview"
)

// Metric names reported by training jobs.
const (
	MetricLoss       = "loss"
	MetricThroughput = "samples_per_sec"
)

// MetricPoint is one sample of a job metric.
type MetricPoint struct {
	JobID  string    `json:"job_id" yaml:"job_id"`
	Metric string    `json:"metric" yaml:"metric"`
	At     time.Time `json:"at" yaml:"at"`
	Value  float64   `json:"value" yaml:"value"`
}

// Annotation is a note pinned to a point on a job's metric timeline.
type Annotation struct {
	ID     string    `json:"id" yaml:"id"`
	JobID  string    `json:"job_id" yaml:"job_id"`
	At     time.Time `json:"at" yaml:"at"`
	Value  float64   `json:"value" yaml:"value"`
	Author string    `json:"author" yaml:"author"`
	Text   string    `json:"text" yaml:"text"`
}

// Validate checks the annotation fields.
func (a Annotation) Validate() error {
	errs := &ValidationErrors{}
	if strings.TrimSpace(a.JobID) == "" {
		errs.Add("job_id", ErrMissingJob)
	}
	if strings.TrimSpace(a.Text) == "" {
		errs.Add("text", ErrEmptyNote)
	}
	return errs.Err()
}

// AnnotationColumn names an annotation column. Text is displayed but not
// sortable.
type AnnotationColumn string

const (
	AnnColTime   AnnotationColumn = "time"
	AnnColJob    AnnotationColumn = "job"
	AnnColAuthor AnnotationColumn = "author"
	AnnColValue  AnnotationColumn = "value"
	AnnColText   AnnotationColumn = "text"
)

// AnnotationColumns is the display order of annotation columns.
var AnnotationColumns = []AnnotationColumn{AnnColTime, AnnColJob, AnnColAuthor, AnnColValue, AnnColText}

var annotationColumnTitles = map[AnnotationColumn]string{
	AnnColTime:   "TIME",
	AnnColJob:    "JOB",
	AnnColAuthor: "AUTHOR",
	AnnColValue:  "VALUE",
	AnnColText:   "NOTE",
}

func (c AnnotationColumn) Title() string { return annotationColumnTitles[c] }

// AnnotationSortFields returns the ordering for every sortable annotation column.
func AnnotationSortFields() map[AnnotationColumn]listview.Field[Annotation] {
	return map[AnnotationColumn]listview.Field[Annotation]{
		AnnColTime:   listview.OrderedField(func(a Annotation) int64 { return a.At.UnixNano() }),
		AnnColJob:    listview.OrderedField(func(a Annotation) string { return a.JobID }),
		AnnColAuthor: listview.OrderedField(func(a Annotation) string { return a.Author }),
		AnnColValue:  listview.OrderedField(func(a Annotation) float64 { return a.Value }),
	}
}

// Cell formats one annotation column for display.
func (a Annotation) Cell(col AnnotationColumn) string {
	switch col {
	case AnnColTime:
		return a.At.UTC().Format("01-02 15:04")
	case AnnColJob:
		return a.JobID
	case AnnColAuthor:
		if a.Author == "" {
			return "-"
		}
		return a.Author
	case AnnColValue:
		return fmt.Sprintf("%.4f", a.Value)
	case AnnColText:
		return a.Text
	default:
		return ""
	}
}
