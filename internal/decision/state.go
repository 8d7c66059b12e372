package decision

import (
	"fmt"

	"fleet-maintenance-backend/internal/model"
)

// taskTransitions is the forward state machine for maintenance tasks.
// The pending -> completed edge covers emergency same-day resolutions; the
// store keeps both timestamps so that shortcut stays auditable.
var taskTransitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskPending:    {model.TaskScheduled, model.TaskCancelled, model.TaskCompleted},
	model.TaskScheduled:  {model.TaskInProgress, model.TaskCancelled},
	model.TaskInProgress: {model.TaskCompleted},
	model.TaskCompleted:  {},
	model.TaskCancelled:  {},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to model.TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change on a task.
func Transition(task *model.MaintenanceTask, to model.TaskStatus) error {
	if !CanTransition(task.Status, to) {
		return fmt.Errorf("illegal task transition %s -> %s for equipment %s", task.Status, to, task.EquipmentID)
	}
	task.Status = to
	return nil
}
