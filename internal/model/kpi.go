package model

import "time"

// KPICategory groups metrics on the reporting surface.
type KPICategory string

const (
	KPIBusiness    KPICategory = "business"
	KPITechnical   KPICategory = "technical"
	KPIOperational KPICategory = "operational"
	KPIModel       KPICategory = "model"
)

// KPIStatus is the threshold bucket a metric value lands in against its target.
type KPIStatus string

const (
	StatusExcellent KPIStatus = "excellent"
	StatusGood      KPIStatus = "good"
	StatusWarning   KPIStatus = "warning"
	StatusCritical  KPIStatus = "critical"
)

// KPIMetric is one (name, measurement date) row. The full catalogue is
// recomputed each run; the historical series is retained for trend views.
type KPIMetric struct {
	ID              int64       `gorm:"autoIncrement;primaryKey" json:"id"`
	Name            string      `gorm:"size:64;not null;uniqueIndex:uniq_kpi_day" json:"name"`
	MeasurementDate time.Time   `gorm:"type:date;not null;uniqueIndex:uniq_kpi_day" json:"measurementDate"`
	Category        KPICategory `gorm:"size:16;not null;index" json:"category"`
	Value           float64     `gorm:"not null" json:"value"`
	Target          float64     `gorm:"not null" json:"target"`
	Status          KPIStatus   `gorm:"size:16;not null" json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
}
