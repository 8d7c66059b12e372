package model

import "time"

// TaskStatus is the lifecycle state of a scheduled maintenance action.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskScheduled  TaskStatus = "scheduled"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// MaintenanceTask is one scheduled action derived from a Prediction. The
// decision engine creates tasks in state pending; scheduling and completion
// collaborators move them through the rest of the lifecycle.
type MaintenanceTask struct {
	ID            int64        `gorm:"autoIncrement;primaryKey" json:"id"`
	EquipmentID   string       `gorm:"size:64;not null;index" json:"equipmentId"`
	PredictionID  int64        `gorm:"not null;index" json:"predictionId"`
	ScheduledDate time.Time    `gorm:"type:date;not null;index" json:"scheduledDate"`
	Priority      PriorityTier `gorm:"size:16;not null" json:"priority"`
	Status        TaskStatus   `gorm:"size:16;not null;default:pending;index" json:"status"`
	EstimatedCost float64      `gorm:"not null" json:"estimatedCost"`
	Technician    *string      `gorm:"size:128" json:"technician"`
	CompletedAt   *time.Time   `json:"completedAt"`
	ActualCost    *float64     `json:"actualCost"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
