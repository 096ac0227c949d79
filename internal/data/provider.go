// Package data serves the dashboard's jobs, reservations, metric series and
// annotations.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/trainwatch/internal/models"
)

// Provider abstracts fleet data access for the dashboard and CLI.
type Provider interface {
	// Jobs lists every job in source order.
	Jobs(ctx context.Context) ([]models.Job, error)
	// Job returns one job.
	Job(ctx context.Context, id string) (models.Job, error)
	// Reservations lists every reservation in source order.
	Reservations(ctx context.Context) ([]models.Reservation, error)
	// Series returns one metric of a job in time order.
	Series(ctx context.Context, jobID, metric string) ([]models.MetricPoint, error)
	// Annotations lists annotations. An empty jobID lists all of them.
	Annotations(ctx context.Context, jobID string) ([]models.Annotation, error)
	// AddAnnotation pins a note on the job's latest loss point.
	AddAnnotation(ctx context.Context, jobID, author, text string) (models.Annotation, error)
	// Logs returns the job's log tail.
	Logs(ctx context.Context, jobID string) (string, error)
	// Close releases resources.
	Close() error
}

// ErrUnknownJob is returned for job IDs the provider does not know.
var ErrUnknownJob = errors.New("unknown job")

// AnalysisInput gathers the text sent to the analysis service for a job.
func AnalysisInput(ctx context.Context, p Provider, jobID string) (logs, metrics string, err error) {
	job, err := p.Job(ctx, jobID)
	if err != nil {
		return "", "", err
	}
	logs, err = p.Logs(ctx, jobID)
	if err != nil {
		return "", "", err
	}
	loss, err := p.Series(ctx, jobID, models.MetricLoss)
	if err != nil {
		return "", "", err
	}
	return logs, SummarizeMetrics(job, loss), nil
}

// maxSummaryPoints bounds how many trailing points are listed.
const maxSummaryPoints = 12

// SummarizeMetrics renders a job and the tail of its loss curve as text.
func SummarizeMetrics(job models.Job, loss []models.MetricPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "job=%s cluster=%s status=%s gpus=%d nodes=%d progress=%.0f%%\n",
		job.Name, job.Cluster, job.Status, job.GPUs, job.Nodes, job.Progress*100)
	if job.GPUUtil != nil {
		fmt.Fprintf(&b, "gpu_util=%.0f%%\n", *job.GPUUtil*100)
	}
	if len(loss) == 0 {
		b.WriteString("no loss samples\n")
		return b.String()
	}
	start := max(0, len(loss)-maxSummaryPoints)
	for _, p := range loss[start:] {
		fmt.Fprintf(&b, "%s loss=%.4f\n", p.At.UTC().Format(time.RFC3339), p.Value)
	}
	return b.String()
}
