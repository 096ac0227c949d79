package data

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tOgg1/trainwatch/internal/models"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the seed data for a provider.
type Fixtures struct {
	Jobs         []models.Job         `yaml:"jobs"`
	Reservations []models.Reservation `yaml:"reservations"`
	Series       []SeriesSpec         `yaml:"series"`
	Annotations  []models.Annotation  `yaml:"annotations"`
	Logs         map[string]string    `yaml:"logs"`
}

// SeriesSpec describes a synthetic metric curve decaying from From to To.
type SeriesSpec struct {
	JobID    string        `yaml:"job_id"`
	Metric   string        `yaml:"metric"`
	Start    time.Time     `yaml:"start"`
	Interval time.Duration `yaml:"interval"`
	Points   int           `yaml:"points"`
	From     float64       `yaml:"from"`
	To       float64       `yaml:"to"`
	Noise    float64       `yaml:"noise"`
	// SpikeAt marks the point index from which the curve diverges.
	SpikeAt int `yaml:"spike_at,omitempty"`
}

// DefaultFixtures returns the embedded fixture set.
func DefaultFixtures() Fixtures {
	f, err := LoadFixtures(bytes.NewReader(defaultFixtures))
	if err != nil {
		panic(fmt.Sprintf("embedded fixtures are invalid: %v", err))
	}
	return f
}

// LoadFixtures parses and validates a fixture document.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixtures{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// LoadFixtureFile reads fixtures from path.
func LoadFixtureFile(path string) (Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer file.Close()
	return LoadFixtures(file)
}

// Validate checks every record and cross reference.
func (f Fixtures) Validate() error {
	errs := &models.ValidationErrors{}
	jobs := make(map[string]bool, len(f.Jobs))
	for i, job := range f.Jobs {
		if err := job.Validate(); err != nil {
			errs.Add(fmt.Sprintf("jobs[%d]", i), err)
		}
		jobs[job.ID] = true
	}
	for i, res := range f.Reservations {
		if err := res.Validate(); err != nil {
			errs.Add(fmt.Sprintf("reservations[%d]", i), err)
		}
	}
	for i, s := range f.Series {
		if !jobs[s.JobID] {
			errs.Add(fmt.Sprintf("series[%d].job_id", i), models.ErrMissingJob)
		}
		if s.Points < 0 || (s.Points > 1 && s.Interval <= 0) {
			errs.AddMessage(fmt.Sprintf("series[%d]", i), "needs a positive interval")
		}
	}
	for i, a := range f.Annotations {
		if err := a.Validate(); err != nil {
			errs.Add(fmt.Sprintf("annotations[%d]", i), err)
		} else if !jobs[a.JobID] {
			errs.Add(fmt.Sprintf("annotations[%d].job_id", i), models.ErrMissingJob)
		}
	}
	for id := range f.Logs {
		if !jobs[id] {
			errs.Add("logs."+id, models.ErrMissingJob)
		}
	}
	return errs.Err()
}

// Generate expands the spec into points. The output is deterministic.
func (s SeriesSpec) Generate() []models.MetricPoint {
	points := make([]models.MetricPoint, 0, s.Points)
	for i := 0; i < s.Points; i++ {
		frac := 0.0
		if s.Points > 1 {
			frac = float64(i) / float64(s.Points-1)
		}
		// Exponential approach to To, reaching it at the last point.
		decay := (math.Exp(-4*frac) - math.Exp(-4)) / (1 - math.Exp(-4))
		v := s.To + (s.From-s.To)*decay
		v += s.Noise * math.Sin(float64(i)*1.7)
		if s.SpikeAt > 0 && i >= s.SpikeAt {
			v += s.Noise * 10 * float64(i-s.SpikeAt+1)
		}
		points = append(points, models.MetricPoint{
			JobID:  s.JobID,
			Metric: s.Metric,
			At:     s.Start.Add(time.Duration(i) * s.Interval),
			Value:  v,
		})
	}
	return points
}
