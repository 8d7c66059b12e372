package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/model"
)

// Store defines the storage boundary of the prediction pipeline: read-only
// input collections on one side, an all-or-nothing run commit on the other.
type Store interface {
	DB() *gorm.DB

	ActiveEquipment(ctx context.Context) ([]model.Equipment, error)
	MaintenanceEvents(ctx context.Context) ([]model.MaintenanceEvent, error)
	FailureEvents(ctx context.Context) ([]model.FailureEvent, error)
	Tasks(ctx context.Context) ([]model.MaintenanceTask, error)

	// PastPredictions returns predictions made strictly before the given
	// run date, for reconciliation against outcome labels.
	PastPredictions(ctx context.Context, before time.Time) ([]model.Prediction, error)
	Outcomes(ctx context.Context, before time.Time) ([]model.OutcomeLabel, error)

	// CommitRun persists one run's complete output set in a single
	// transaction, replacing any earlier same-day predictions and their
	// still-pending tasks. Either everything lands or nothing does.
	CommitRun(ctx context.Context, run *model.PipelineRun,
		preds []model.Prediction, tasks []model.MaintenanceTask, kpis []model.KPIMetric) error

	// SaveRun records a run report outside CommitRun, used for runs that
	// failed before producing any output set.
	SaveRun(ctx context.Context, run *model.PipelineRun) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) ActiveEquipment(ctx context.Context) ([]model.Equipment, error) {
	var equipment []model.Equipment
	err := s.db.WithContext(ctx).
		Where("status = ?", model.EquipmentActive).
		Order("id").
		Find(&equipment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment roster: %w", err)
	}
	return equipment, nil
}

func (s *gormStore) MaintenanceEvents(ctx context.Context) ([]model.MaintenanceEvent, error) {
	var events []model.MaintenanceEvent
	if err := s.db.WithContext(ctx).Order("equipment_id, event_date").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load maintenance events: %w", err)
	}
	return events, nil
}

func (s *gormStore) FailureEvents(ctx context.Context) ([]model.FailureEvent, error) {
	var events []model.FailureEvent
	if err := s.db.WithContext(ctx).Order("equipment_id, failure_date").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load failure events: %w", err)
	}
	return events, nil
}

func (s *gormStore) Tasks(ctx context.Context) ([]model.MaintenanceTask, error) {
	var tasks []model.MaintenanceTask
	if err := s.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load maintenance tasks: %w", err)
	}
	return tasks, nil
}

func (s *gormStore) PastPredictions(ctx context.Context, before time.Time) ([]model.Prediction, error) {
	var preds []model.Prediction
	err := s.db.WithContext(ctx).
		Where("run_date < ?", dateOnly(before)).
		Order("equipment_id, run_date").
		Find(&preds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load past predictions: %w", err)
	}
	return preds, nil
}

func (s *gormStore) Outcomes(ctx context.Context, before time.Time) ([]model.OutcomeLabel, error) {
	var outcomes []model.OutcomeLabel
	err := s.db.WithContext(ctx).
		Where("as_of < ?", dateOnly(before)).
		Find(&outcomes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load outcome labels: %w", err)
	}
	return outcomes, nil
}

func (s *gormStore) CommitRun(ctx context.Context, run *model.PipelineRun,
	preds []model.Prediction, tasks []model.MaintenanceTask, kpis []model.KPIMetric) error {

	runDate := dateOnly(run.RunDate)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A same-day re-run replaces, never duplicates: drop the earlier
		// prediction set and the pending tasks it spawned.
		var staleIDs []int64
		if err := tx.Model(&model.Prediction{}).
			Where("run_date = ?", runDate).
			Pluck("id", &staleIDs).Error; err != nil {
			return fmt.Errorf("failed to find same-day predictions: %w", err)
		}
		if len(staleIDs) > 0 {
			if err := tx.Where("prediction_id IN ? AND status = ?", staleIDs, model.TaskPending).
				Delete(&model.MaintenanceTask{}).Error; err != nil {
				return fmt.Errorf("failed to delete superseded tasks: %w", err)
			}
			if err := tx.Where("id IN ?", staleIDs).Delete(&model.Prediction{}).Error; err != nil {
				return fmt.Errorf("failed to delete superseded predictions: %w", err)
			}
		}
		if err := tx.Where("measurement_date = ?", runDate).Delete(&model.KPIMetric{}).Error; err != nil {
			return fmt.Errorf("failed to delete superseded KPI rows: %w", err)
		}

		// Insert predictions first so tasks can reference the row IDs.
		// Predictions and tasks are parallel slices built by the orchestrator.
		if len(preds) != len(tasks) {
			return fmt.Errorf("prediction/task count mismatch: %d vs %d", len(preds), len(tasks))
		}
		for i := range preds {
			preds[i].RunDate = runDate
			if err := tx.Create(&preds[i]).Error; err != nil {
				return fmt.Errorf("failed to insert prediction for %s: %w", preds[i].EquipmentID, err)
			}
			tasks[i].PredictionID = preds[i].ID
			if err := tx.Create(&tasks[i]).Error; err != nil {
				return fmt.Errorf("failed to insert task for %s: %w", tasks[i].EquipmentID, err)
			}
		}

		for i := range kpis {
			kpis[i].MeasurementDate = runDate
			if err := tx.Create(&kpis[i]).Error; err != nil {
				return fmt.Errorf("failed to insert KPI %s: %w", kpis[i].Name, err)
			}
		}

		run.RunDate = runDate
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to insert run report: %w", err)
		}
		return nil
	})
}

func (s *gormStore) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	run.RunDate = dateOnly(run.RunDate)
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// dateOnly truncates to midnight UTC so same-day comparisons are exact.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
