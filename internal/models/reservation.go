package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/trainwatch/internal/listview"
)

// ReservationStatus is the lifecycle state of a GPU reservation.
type ReservationStatus string

const (
	ReservationScheduled ReservationStatus = "scheduled"
	ReservationActive    ReservationStatus = "active"
	ReservationExpired   ReservationStatus = "expired"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationScheduled, ReservationActive, ReservationExpired:
		return true
	}
	return false
}

// Reservation is a block of GPUs held for a team.
type Reservation struct {
	ID      string            `json:"id" yaml:"id"`
	Cluster string            `json:"cluster" yaml:"cluster"`
	Team    string            `json:"team" yaml:"team"`
	GPUType string            `json:"gpu_type" yaml:"gpu_type"`
	GPUs    int               `json:"gpus" yaml:"gpus"`
	Start   time.Time         `json:"start" yaml:"start"`
	End     time.Time         `json:"end" yaml:"end"`
	Status  ReservationStatus `json:"status" yaml:"status"`

	// Used is the share of reserved GPUs currently busy; nil unless active.
	Used *float64 `json:"used,omitempty" yaml:"used,omitempty"`
}

// Validate checks the reservation fields.
func (r Reservation) Validate() error {
	errs := &ValidationErrors{}
	if strings.TrimSpace(r.ID) == "" {
		errs.Add("id", ErrMissingID)
	}
	if !r.Status.Valid() {
		errs.Add("status", ErrInvalidStatus)
	}
	if r.GPUs < 0 {
		errs.Add("gpus", ErrNegativeGPUs)
	}
	if r.End.Before(r.Start) {
		errs.Add("end", ErrInvalidWindow)
	}
	return errs.Err()
}

// ReservationColumn names a sortable reservation column.
type ReservationColumn string

const (
	ResColTeam    ReservationColumn = "team"
	ResColCluster ReservationColumn = "cluster"
	ResColGPUType ReservationColumn = "gpu_type"
	ResColGPUs    ReservationColumn = "gpus"
	ResColStart   ReservationColumn = "start"
	ResColEnd     ReservationColumn = "end"
	ResColStatus  ReservationColumn = "status"
	ResColUsed    ReservationColumn = "used"
)

// ReservationColumns lists columns in display order.
var ReservationColumns = []ReservationColumn{
	ResColTeam, ResColCluster, ResColGPUType, ResColGPUs,
	ResColStart, ResColEnd, ResColStatus, ResColUsed,
}

var reservationColumnTitles = map[ReservationColumn]string{
	ResColTeam:    "TEAM",
	ResColCluster: "CLUSTER",
	ResColGPUType: "GPU",
	ResColGPUs:    "COUNT",
	ResColStart:   "START",
	ResColEnd:     "END",
	ResColStatus:  "STATUS",
	ResColUsed:    "USED",
}

func (c ReservationColumn) Title() string { return reservationColumnTitles[c] }

// ReservationSortFields returns the ordering for every reservation column.
func ReservationSortFields() map[ReservationColumn]listview.Field[Reservation] {
	return map[ReservationColumn]listview.Field[Reservation]{
		ResColTeam:    listview.OrderedField(func(r Reservation) string { return r.Team }),
		ResColCluster: listview.OrderedField(func(r Reservation) string { return r.Cluster }),
		ResColGPUType: listview.OrderedField(func(r Reservation) string { return r.GPUType }),
		ResColGPUs:    listview.OrderedField(func(r Reservation) int { return r.GPUs }),
		ResColStart:   listview.OrderedField(func(r Reservation) int64 { return r.Start.UnixNano() }),
		ResColEnd:     listview.OrderedField(func(r Reservation) int64 { return r.End.UnixNano() }),
		ResColStatus:  listview.OrderedField(func(r Reservation) string { return string(r.Status) }),
		ResColUsed:    listview.OptionalField(func(r Reservation) (float64, bool) { return derefFloat(r.Used) }),
	}
}

// Cell formats one column of the reservation for display.
func (r Reservation) Cell(col ReservationColumn) string {
	switch col {
	case ResColTeam:
		return r.Team
	case ResColCluster:
		return r.Cluster
	case ResColGPUType:
		return r.GPUType
	case ResColGPUs:
		return fmt.Sprintf("%d", r.GPUs)
	case ResColStart:
		return r.Start.UTC().Format("01-02 15:04")
	case ResColEnd:
		return r.End.UTC().Format("01-02 15:04")
	case ResColStatus:
		return string(r.Status)
	case ResColUsed:
		if r.Used == nil {
			return "-"
		}
		return fmt.Sprintf("%.0f%%", *r.Used*100)
	default:
		return ""
	}
}
