package model

import (
	"fmt"
	"time"
)

// MaintenanceType is the closed enumeration of serviced-event categories.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenancePredictive MaintenanceType = "predictive"
)

// FailureSeverity is ordered: minor < moderate < critical.
type FailureSeverity string

const (
	SeverityMinor    FailureSeverity = "minor"
	SeverityModerate FailureSeverity = "moderate"
	SeverityCritical FailureSeverity = "critical"
)

// MaintenanceEvent is one row of the append-only service log.
// Rows are immutable once created.
type MaintenanceEvent struct {
	ID            int64           `gorm:"autoIncrement;primaryKey" json:"id"`
	EquipmentID   string          `gorm:"size:64;not null;index" json:"equipmentId"`
	EventDate     time.Time       `gorm:"not null;index" json:"eventDate"`
	Type          MaintenanceType `gorm:"size:16;not null" json:"type"`
	Cost          float64         `gorm:"not null" json:"cost"`
	DowntimeHours float64         `gorm:"not null" json:"downtimeHours"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Validate enforces the temporal and range invariants against the owning unit.
func (m *MaintenanceEvent) Validate(now time.Time, acquired time.Time) error {
	if m.EventDate.After(now) {
		return fmt.Errorf("maintenance event for %s dated %s is in the future", m.EquipmentID, m.EventDate.Format("2006-01-02"))
	}
	if m.EventDate.Before(acquired) {
		return fmt.Errorf("maintenance event for %s predates acquisition", m.EquipmentID)
	}
	if m.Cost < 0 {
		return fmt.Errorf("maintenance event for %s has negative cost", m.EquipmentID)
	}
	if m.DowntimeHours < 0 {
		return fmt.Errorf("maintenance event for %s has negative downtime", m.EquipmentID)
	}
	switch m.Type {
	case MaintenancePreventive, MaintenanceCorrective, MaintenancePredictive:
	default:
		return fmt.Errorf("maintenance event for %s has unknown type %q", m.EquipmentID, m.Type)
	}
	return nil
}

// FailureEvent is one row of the append-only breakdown log.
// Rows are immutable once created.
type FailureEvent struct {
	ID             int64           `gorm:"autoIncrement;primaryKey" json:"id"`
	EquipmentID    string          `gorm:"size:64;not null;index" json:"equipmentId"`
	FailureDate    time.Time       `gorm:"not null;index" json:"failureDate"`
	Severity       FailureSeverity `gorm:"size:16;not null" json:"severity"`
	RepairCost     float64         `gorm:"not null" json:"repairCost"`
	DowntimeHours  float64         `gorm:"not null" json:"downtimeHours"`
	WasPreventable bool            `gorm:"not null" json:"wasPreventable"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Validate enforces the temporal and range invariants against the owning unit.
func (f *FailureEvent) Validate(now time.Time, acquired time.Time) error {
	if f.FailureDate.After(now) {
		return fmt.Errorf("failure event for %s dated %s is in the future", f.EquipmentID, f.FailureDate.Format("2006-01-02"))
	}
	if f.FailureDate.Before(acquired) {
		return fmt.Errorf("failure event for %s predates acquisition", f.EquipmentID)
	}
	if f.RepairCost < 0 {
		return fmt.Errorf("failure event for %s has negative repair cost", f.EquipmentID)
	}
	if f.DowntimeHours < 0 {
		return fmt.Errorf("failure event for %s has negative downtime", f.EquipmentID)
	}
	switch f.Severity {
	case SeverityMinor, SeverityModerate, SeverityCritical:
	default:
		return fmt.Errorf("failure event for %s has unknown severity %q", f.EquipmentID, f.Severity)
	}
	return nil
}
