package model

import (
	"encoding/json"
	"time"
)

// RunStatus is the overall outcome of one pipeline run.
type RunStatus string

const (
	RunCompleted   RunStatus = "completed"
	RunCompletedWE RunStatus = "completed_with_errors"
	RunFailed      RunStatus = "failed"
)

// UnitFailure records one per-unit exclusion from a run.
type UnitFailure struct {
	EquipmentID string `json:"equipmentId"`
	Reason      string `json:"reason"`
}

// PipelineRun is the persisted run report: the single source of truth for
// what a run did. A partial run is never indistinguishable from a full one.
type PipelineRun struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	RunDate    time.Time     `gorm:"type:date;not null;index" json:"runDate"`
	StartedAt  time.Time     `gorm:"not null" json:"startedAt"`
	FinishedAt time.Time     `gorm:"not null" json:"finishedAt"`
	DurationMS int64         `gorm:"not null" json:"durationMs"`
	Attempted  int           `gorm:"not null" json:"attempted"`
	Succeeded  int           `gorm:"not null" json:"succeeded"`
	Failed     int           `gorm:"not null" json:"failed"`
	Status     RunStatus     `gorm:"size:32;not null;index" json:"status"`
	Failures   string        `gorm:"type:text" json:"-"`
	Error      string        `gorm:"size:512" json:"error,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// SetFailures serializes the per-unit failure list into the Failures column.
func (r *PipelineRun) SetFailures(failures []UnitFailure) {
	if len(failures) == 0 {
		r.Failures = "[]"
		return
	}
	data, err := json.Marshal(failures)
	if err != nil {
		r.Failures = "[]"
		return
	}
	r.Failures = string(data)
}

// FailureList deserializes the per-unit failure list.
func (r *PipelineRun) FailureList() []UnitFailure {
	var failures []UnitFailure
	if r.Failures == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(r.Failures), &failures); err != nil {
		return nil
	}
	return failures
}
