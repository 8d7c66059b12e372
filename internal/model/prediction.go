package model

import "time"

// PriorityTier is the discretization of the risk score that drives
// scheduling urgency.
type PriorityTier string

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
)

// tierRank orders tiers for minimum-priority comparisons; higher is more urgent.
var tierRank = map[PriorityTier]int{
	TierLow:      1,
	TierMedium:   2,
	TierHigh:     3,
	TierCritical: 4,
}

// AtLeast reports whether t is at least as urgent as min.
func (t PriorityTier) AtLeast(min PriorityTier) bool {
	return tierRank[t] >= tierRank[min]
}

// Valid reports whether t is one of the four known tiers.
func (t PriorityTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Prediction is the per-unit, per-run output of the two-stage classifier
// pipeline. At most one row exists per (equipment, run date): a re-run on the
// same day replaces the earlier set. Rows are never mutated, only superseded.
type Prediction struct {
	ID                  int64        `gorm:"autoIncrement;primaryKey" json:"id"`
	EquipmentID         string       `gorm:"size:64;not null;uniqueIndex:uniq_prediction_day" json:"equipmentId"`
	RunDate             time.Time    `gorm:"type:date;not null;uniqueIndex:uniq_prediction_day" json:"runDate"`
	RunID               string       `gorm:"size:36;not null;index" json:"runId"`
	CreatedAt           time.Time    `json:"createdAt"`
	ScreeningFlag       bool         `gorm:"not null" json:"screeningFlag"`
	ScreeningProb       float64      `gorm:"not null" json:"screeningProb"`
	PrioritizationFlag  bool         `gorm:"not null" json:"prioritizationFlag"`
	PrioritizationProb  float64      `gorm:"not null" json:"prioritizationProb"`
	RiskScore           float64      `gorm:"not null" json:"riskScore"`
	Priority            PriorityTier `gorm:"size:16;not null;index" json:"priority"`
	RecommendedAction   string       `gorm:"size:256;not null" json:"recommendedAction"`
}
