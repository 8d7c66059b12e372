package model

import "time"

// OutcomeLabel is one row of the external label-reconciliation feed: whether
// the unit actually failed within the prediction horizon measured from AsOf.
// The pipeline only reads these; when no labels cover the scored window the
// model-quality KPIs are omitted for that run rather than faked.
type OutcomeLabel struct {
	ID          int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	EquipmentID string    `gorm:"size:64;not null;uniqueIndex:uniq_outcome_day" json:"equipmentId"`
	AsOf        time.Time `gorm:"type:date;not null;uniqueIndex:uniq_outcome_day" json:"asOf"`
	Failed      bool      `gorm:"not null" json:"failed"`
	CreatedAt   time.Time `json:"createdAt"`
}
