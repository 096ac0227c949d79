package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/trainwatch/internal/listview"
)

// JobStatus is the scheduler state of a training job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobPreempted JobStatus = "preempted"
)

// severity orders statuses so that an ascending sort puts the runs that need
// attention first.
var jobSeverity = map[JobStatus]int{
	JobFailed:    0,
	JobPreempted: 1,
	JobRunning:   2,
	JobPending:   3,
	JobSucceeded: 4,
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	_, ok := jobSeverity[s]
	return ok
}

// Job is one distributed training run.
type Job struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Cluster  string    `json:"cluster" yaml:"cluster"`
	Owner    string    `json:"owner" yaml:"owner"`
	Status   JobStatus `json:"status" yaml:"status"`
	GPUs     int       `json:"gpus" yaml:"gpus"`
	Nodes    int       `json:"nodes" yaml:"nodes"`
	Progress float64   `json:"progress" yaml:"progress"`

	// Loss, GPUUtil and StartedAt stay nil until the job has run.
	Loss      *float64   `json:"loss,omitempty" yaml:"loss,omitempty"`
	GPUUtil   *float64   `json:"gpu_util,omitempty" yaml:"gpu_util,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

// Validate checks the job fields.
func (j Job) Validate() error {
	errs := &ValidationErrors{}
	if strings.TrimSpace(j.ID) == "" {
		errs.Add("id", ErrMissingID)
	}
	if !j.Status.Valid() {
		errs.Add("status", ErrInvalidStatus)
	}
	if j.GPUs < 0 {
		errs.Add("gpus", ErrNegativeGPUs)
	}
	return errs.Err()
}

// JobColumn names a sortable job column.
type JobColumn string

const (
	JobColName     JobColumn = "name"
	JobColCluster  JobColumn = "cluster"
	JobColOwner    JobColumn = "owner"
	JobColStatus   JobColumn = "status"
	JobColGPUs     JobColumn = "gpus"
	JobColProgress JobColumn = "progress"
	JobColLoss     JobColumn = "loss"
	JobColUtil     JobColumn = "util"
	JobColStarted  JobColumn = "started"
)

// JobColumns lists columns in display order.
var JobColumns = []JobColumn{
	JobColName, JobColCluster, JobColOwner, JobColStatus, JobColGPUs,
	JobColProgress, JobColLoss, JobColUtil, JobColStarted,
}

var jobColumnTitles = map[JobColumn]string{
	JobColName:     "NAME",
	JobColCluster:  "CLUSTER",
	JobColOwner:    "OWNER",
	JobColStatus:   "STATUS",
	JobColGPUs:     "GPUS",
	JobColProgress: "PROGRESS",
	JobColLoss:     "LOSS",
	JobColUtil:     "GPU UTIL",
	JobColStarted:  "STARTED",
}

func (c JobColumn) Title() string { return jobColumnTitles[c] }

// JobSortFields returns the ordering for every job column.
func JobSortFields() map[JobColumn]listview.Field[Job] {
	return map[JobColumn]listview.Field[Job]{
		JobColName:     listview.OrderedField(func(j Job) string { return strings.ToLower(j.Name) }),
		JobColCluster:  listview.OrderedField(func(j Job) string { return j.Cluster }),
		JobColOwner:    listview.OrderedField(func(j Job) string { return j.Owner }),
		JobColStatus:   listview.OrderedField(func(j Job) int { return jobSeverity[j.Status] }),
		JobColGPUs:     listview.OrderedField(func(j Job) int { return j.GPUs }),
		JobColProgress: listview.OrderedField(func(j Job) float64 { return j.Progress }),
		JobColLoss:     listview.OptionalField(func(j Job) (float64, bool) { return derefFloat(j.Loss) }),
		JobColUtil:     listview.OptionalField(func(j Job) (float64, bool) { return derefFloat(j.GPUUtil) }),
		JobColStarted:  listview.OptionalField(func(j Job) (int64, bool) { return unixOf(j.StartedAt) }),
	}
}

// Cell formats one column of the job for display.
func (j Job) Cell(col JobColumn) string {
	switch col {
	case JobColName:
		return j.Name
	case JobColCluster:
		return j.Cluster
	case JobColOwner:
		return j.Owner
	case JobColStatus:
		return string(j.Status)
	case JobColGPUs:
		return fmt.Sprintf("%d×%d", j.Nodes, gpusPerNode(j))
	case JobColProgress:
		return fmt.Sprintf("%3.0f%%", j.Progress*100)
	case JobColLoss:
		return formatOptional(j.Loss, "%.4f")
	case JobColUtil:
		if j.GPUUtil == nil {
			return "-"
		}
		return fmt.Sprintf("%.0f%%", *j.GPUUtil*100)
	case JobColStarted:
		if j.StartedAt == nil {
			return "-"
		}
		return j.StartedAt.UTC().Format("01-02 15:04")
	default:
		return ""
	}
}

func gpusPerNode(j Job) int {
	if j.Nodes <= 0 {
		return j.GPUs
	}
	return j.GPUs / j.Nodes
}

func derefFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func unixOf(t *time.Time) (int64, bool) {
	if t == nil {
		return 0, false
	}
	return t.UnixNano(), true
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
