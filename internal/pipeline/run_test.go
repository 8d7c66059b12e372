package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/classifier"
	"fleet-maintenance-backend/internal/model"
)

// fakeStore is an in-memory Store that records what the orchestrator commits.
type fakeStore struct {
	equipment   []model.Equipment
	maintenance []model.MaintenanceEvent
	failures    []model.FailureEvent
	tasks       []model.MaintenanceTask
	pastPreds   []model.Prediction
	outcomes    []model.OutcomeLabel

	loadErr error

	committedRun   *model.PipelineRun
	committedPreds []model.Prediction
	committedTasks []model.MaintenanceTask
	committedKPIs  []model.KPIMetric
	savedRun       *model.PipelineRun
}

func (f *fakeStore) DB() *gorm.DB { return nil }

func (f *fakeStore) ActiveEquipment(ctx context.Context) ([]model.Equipment, error) {
	return f.equipment, f.loadErr
}
func (f *fakeStore) MaintenanceEvents(ctx context.Context) ([]model.MaintenanceEvent, error) {
	return f.maintenance, nil
}
func (f *fakeStore) FailureEvents(ctx context.Context) ([]model.FailureEvent, error) {
	return f.failures, nil
}
func (f *fakeStore) Tasks(ctx context.Context) ([]model.MaintenanceTask, error) {
	return f.tasks, nil
}
func (f *fakeStore) PastPredictions(ctx context.Context, before time.Time) ([]model.Prediction, error) {
	return f.pastPreds, nil
}
func (f *fakeStore) Outcomes(ctx context.Context, before time.Time) ([]model.OutcomeLabel, error) {
	return f.outcomes, nil
}
func (f *fakeStore) CommitRun(ctx context.Context, run *model.PipelineRun,
	preds []model.Prediction, tasks []model.MaintenanceTask, kpis []model.KPIMetric) error {
	f.committedRun = run
	f.committedPreds = preds
	f.committedTasks = tasks
	f.committedKPIs = kpis
	return nil
}
func (f *fakeStore) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	f.savedRun = run
	return nil
}

// fakeClassifier returns a fixed probability per equipment ID.
type fakeClassifier struct {
	name      string
	probs     map[string]float64
	threshold float64
	err       error
}

func (f *fakeClassifier) Name() string      { return f.name }
func (f *fakeClassifier) FeatureCount() int { return 1 }
func (f *fakeClassifier) Predict(fv model.FeatureVector) (classifier.Prediction, error) {
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	p := f.probs[fv.EquipmentID]
	return classifier.Prediction{Flag: p >= f.threshold, Probability: p}, nil
}

func testEquipment(id string, year int) model.Equipment {
	return model.Equipment{
		ID:              id,
		Category:        "tractor",
		Brand:           "FieldWorks",
		Location:        "north",
		ManufactureYear: year,
		AcquisitionDate: time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC),
		OperatingHours:  1000,
		Status:          model.EquipmentActive,
	}
}

func newTestOrchestrator(s *fakeStore, screening, prioritization classifier.BinaryClassifier) *Orchestrator {
	cfg := config.Default()
	cfg.Pipeline.Concurrency = 4
	o := NewOrchestrator(cfg, s, screening, prioritization, nil)
	o.now = func() time.Time { return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC) }
	return o
}

func TestRunOnceHappyPath(t *testing.T) {
	s := &fakeStore{
		equipment: []model.Equipment{
			testEquipment("EQ-1", 2016),
			testEquipment("EQ-2", 2022),
			testEquipment("EQ-3", 2019),
		},
	}
	screening := &fakeClassifier{name: "screening", threshold: 0.3,
		probs: map[string]float64{"EQ-1": 0.9, "EQ-2": 0.1, "EQ-3": 0.5}}
	prioritization := &fakeClassifier{name: "prioritization", threshold: 0.5,
		probs: map[string]float64{"EQ-1": 0.72, "EQ-2": 0.05, "EQ-3": 0.45}}

	o := newTestOrchestrator(s, screening, prioritization)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, model.RunCompleted, run.Status)
	assert.Equal(t, 3, run.Attempted)
	assert.Equal(t, 3, run.Succeeded)
	assert.Equal(t, 0, run.Failed)
	assert.NotEmpty(t, run.ID)

	// Output is sorted by equipment ID regardless of worker completion order.
	require.Len(t, res.Predictions, 3)
	assert.Equal(t, "EQ-1", res.Predictions[0].EquipmentID)
	assert.Equal(t, "EQ-2", res.Predictions[1].EquipmentID)
	assert.Equal(t, "EQ-3", res.Predictions[2].EquipmentID)

	// Risk 72 lands in the critical tier with its own schedule and cost.
	assert.Equal(t, 72.0, res.Predictions[0].RiskScore)
	assert.Equal(t, model.TierCritical, res.Predictions[0].Priority)
	assert.Equal(t, 500.0, res.Tasks[0].EstimatedCost)
	assert.Equal(t, model.TierLow, res.Predictions[1].Priority)

	// Everything went through a single commit, KPIs included.
	require.NotNil(t, s.committedRun)
	assert.Equal(t, run.ID, s.committedRun.ID)
	assert.NotEmpty(t, s.committedKPIs)
	assert.Nil(t, s.savedRun)
}

func TestRunOnceIsolatesInvalidUnits(t *testing.T) {
	bad := testEquipment("EQ-BAD", 2020)
	bad.OperatingHours = -5

	s := &fakeStore{
		equipment: []model.Equipment{testEquipment("EQ-1", 2018), bad},
	}
	screening := &fakeClassifier{name: "screening", threshold: 0.5, probs: map[string]float64{"EQ-1": 0.6}}
	prioritization := &fakeClassifier{name: "prioritization", threshold: 0.5, probs: map[string]float64{"EQ-1": 0.3}}

	o := newTestOrchestrator(s, screening, prioritization)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, model.RunCompletedWE, run.Status)
	assert.Equal(t, 2, run.Attempted)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)

	failures := run.FailureList()
	require.Len(t, failures, 1)
	assert.Equal(t, "EQ-BAD", failures[0].EquipmentID)
	assert.Contains(t, failures[0].Reason, "negative")

	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "EQ-1", res.Predictions[0].EquipmentID)
}

func TestRunOnceEmptyRosterFails(t *testing.T) {
	s := &fakeStore{}
	screening := &fakeClassifier{name: "screening"}
	prioritization := &fakeClassifier{name: "prioritization"}

	o := newTestOrchestrator(s, screening, prioritization)
	res, err := o.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunFailed))

	// An empty roster is a failed run with zero counts, not a trivially
	// successful empty one, and the report is still persisted.
	require.NotNil(t, res.Run)
	assert.Equal(t, model.RunFailed, res.Run.Status)
	assert.Zero(t, res.Run.Attempted)
	assert.Zero(t, res.Run.Succeeded)
	require.NotNil(t, s.savedRun)
	assert.Nil(t, s.committedRun)
}

func TestRunOnceAllUnitsInvalidFails(t *testing.T) {
	bad1 := testEquipment("EQ-1", 2020)
	bad1.OperatingHours = -1
	bad2 := testEquipment("EQ-2", 2020)
	bad2.ManufactureYear = 0

	s := &fakeStore{equipment: []model.Equipment{bad1, bad2}}
	o := newTestOrchestrator(s, &fakeClassifier{name: "s"}, &fakeClassifier{name: "p"})

	res, err := o.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunFailed))
	assert.Equal(t, model.RunFailed, res.Run.Status)
	assert.Nil(t, s.committedRun)
	require.NotNil(t, s.savedRun)
}

func TestRunOnceAbortsOnConfigurationError(t *testing.T) {
	s := &fakeStore{
		equipment: []model.Equipment{testEquipment("EQ-1", 2018), testEquipment("EQ-2", 2019)},
	}
	screening := &fakeClassifier{
		name: "screening",
		err:  fmt.Errorf("model expects feature absent from vector: %w", model.ErrConfiguration),
	}
	prioritization := &fakeClassifier{name: "prioritization", probs: map[string]float64{}}

	o := newTestOrchestrator(s, screening, prioritization)
	res, err := o.RunOnce(context.Background())

	// A shape mismatch is a deployment defect: the whole run aborts instead
	// of excluding units one by one.
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Equal(t, model.RunFailed, res.Run.Status)
	assert.Nil(t, s.committedRun)
	require.NotNil(t, s.savedRun)
}

func TestRunOnceLoadErrorFailsRun(t *testing.T) {
	s := &fakeStore{loadErr: errors.New("connection refused")}
	o := newTestOrchestrator(s, &fakeClassifier{name: "s"}, &fakeClassifier{name: "p"})

	res, err := o.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.RunFailed, res.Run.Status)
	assert.Contains(t, res.Run.Error, "connection refused")
}
