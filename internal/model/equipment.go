package model

import (
	"fmt"
	"time"
)

// EquipmentStatus flags whether a unit is still part of the active roster.
// Units are never deleted, only retired.
type EquipmentStatus string

const (
	EquipmentActive  EquipmentStatus = "active"
	EquipmentRetired EquipmentStatus = "retired"
)

// Equipment represents one physical unit of the fleet.
type Equipment struct {
	ID              string          `gorm:"primaryKey;size:64" json:"id"`
	Category        string          `gorm:"size:64;not null;index" json:"category"`
	Brand           string          `gorm:"size:64" json:"brand"`
	ManufactureYear int             `gorm:"not null" json:"manufactureYear"`
	AcquisitionDate time.Time       `gorm:"not null" json:"acquisitionDate"`
	OperatingHours  int64           `gorm:"not null" json:"operatingHours"`
	LastServiceDate *time.Time      `json:"lastServiceDate"`
	Location        string          `gorm:"size:128" json:"location"`
	Status          EquipmentStatus `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Validate checks the record invariants before it may enter a pipeline run.
func (e *Equipment) Validate(now time.Time) error {
	if e.ID == "" {
		return fmt.Errorf("equipment has empty identifier")
	}
	if e.OperatingHours < 0 {
		return fmt.Errorf("equipment %s: operating hours %d is negative", e.ID, e.OperatingHours)
	}
	if e.AcquisitionDate.After(now) {
		return fmt.Errorf("equipment %s: acquisition date %s is in the future", e.ID, e.AcquisitionDate.Format("2006-01-02"))
	}
	if e.ManufactureYear <= 0 || e.ManufactureYear > now.Year() {
		return fmt.Errorf("equipment %s: implausible manufacture year %d", e.ID, e.ManufactureYear)
	}
	return nil
}

// AgeYears returns the unit age in whole years as of now.
func (e *Equipment) AgeYears(now time.Time) int {
	return now.Year() - e.ManufactureYear
}
