package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/classifier"
	"fleet-maintenance-backend/internal/decision"
	"fleet-maintenance-backend/internal/features"
	"fleet-maintenance-backend/internal/kpi"
	"fleet-maintenance-backend/internal/metrics"
	"fleet-maintenance-backend/internal/model"
	"fleet-maintenance-backend/internal/store"
)

// ErrRunFailed marks a run that produced no successful predictions, which is
// a run-level failure distinct from per-unit exclusions.
var ErrRunFailed = errors.New("pipeline run failed")

// Result is everything one run produced. Tasks carry their assigned row IDs
// after the commit, so the notification worker can reference them.
type Result struct {
	Run         *model.PipelineRun
	Predictions []model.Prediction
	Tasks       []model.MaintenanceTask
}

// Orchestrator sequences feature building, the two classifier stages, the
// decision engine and the KPI calculator over the full active roster. The
// classifier handles are passed in, never ambient globals, so tests can
// substitute fakes.
type Orchestrator struct {
	cfg            *config.Config
	store          store.Store
	screening      classifier.BinaryClassifier
	prioritization classifier.BinaryClassifier
	engine         *decision.Engine
	calc           *kpi.Calculator
	encoding       *features.Encoding // nil: derive from the roster each run
	now            func() time.Time
}

// NewOrchestrator wires a pipeline run from its collaborators. enc may be nil
// when no persisted encoding table is deployed.
func NewOrchestrator(cfg *config.Config, s store.Store,
	screening, prioritization classifier.BinaryClassifier, enc *features.Encoding) *Orchestrator {
	return &Orchestrator{
		cfg:            cfg,
		store:          s,
		screening:      screening,
		prioritization: prioritization,
		engine:         decision.NewEngine(cfg.Decision),
		calc:           kpi.NewCalculator(cfg.KPI),
		encoding:       enc,
		now:            time.Now,
	}
}

// unitInput is one equipment unit with its slice of the event logs.
type unitInput struct {
	equipment   model.Equipment
	maintenance []model.MaintenanceEvent
	failures    []model.FailureEvent
}

// unitOutput is the per-unit result; exactly one of (pred+task), failure or
// fatal is meaningful.
type unitOutput struct {
	pred    model.Prediction
	task    model.MaintenanceTask
	failure *model.UnitFailure
	fatal   error
}

// RunOnce executes one full pipeline cycle and persists its outputs. Unit
// failures are isolated; configuration errors and a zero-success roster abort
// the run. The returned run report is always populated, even on failure.
func (o *Orchestrator) RunOnce(ctx context.Context) (*Result, error) {
	started := o.now().UTC()
	runDate := dayOf(started)
	run := &model.PipelineRun{
		ID:        uuid.NewString(),
		RunDate:   runDate,
		StartedAt: started,
	}
	run.SetFailures(nil)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.RunTimeout)
	defer cancel()

	res, err := o.execute(ctx, run, runDate)
	if err != nil {
		run.Status = model.RunFailed
		if run.Error == "" {
			run.Error = err.Error()
		}
		o.finish(run)
		if saveErr := o.store.SaveRun(context.Background(), run); saveErr != nil {
			log.Printf("Error saving failed run report %s: %v", run.ID, saveErr)
		}
		metrics.RunsTotal.WithLabelValues(string(model.RunFailed)).Inc()
		return &Result{Run: run}, err
	}

	metrics.RunsTotal.WithLabelValues(string(run.Status)).Inc()
	metrics.RunDuration.Observe(float64(run.DurationMS) / 1000)
	return res, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *model.PipelineRun, runDate time.Time) (*Result, error) {
	equipment, err := o.store.ActiveEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	if len(equipment) == 0 {
		return nil, fmt.Errorf("%w: active roster is empty", ErrRunFailed)
	}

	maintenance, err := o.store.MaintenanceEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading maintenance log: %w", err)
	}
	failureLog, err := o.store.FailureEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading failure log: %w", err)
	}

	run.Attempted = len(equipment)
	units, unitFailures := o.prepare(runDate, equipment, maintenance, failureLog)

	enc := o.encoding
	if enc == nil {
		enc = features.BuildEncoding(equipment)
	}
	builder := features.NewBuilder(o.cfg.Features, enc)

	preds, tasks, workFailures, err := o.processUnits(ctx, builder, run.ID, runDate, units)
	if err != nil {
		return nil, err
	}
	unitFailures = append(unitFailures, workFailures...)

	run.Succeeded = len(preds)
	run.Failed = len(unitFailures)
	run.SetFailures(unitFailures)
	for _, f := range unitFailures {
		log.Printf("Run %s: unit %s excluded: %s", run.ID, f.EquipmentID, f.Reason)
		metrics.UnitsProcessed.WithLabelValues("failed").Inc()
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: no unit produced a prediction (%d attempted)", ErrRunFailed, run.Attempted)
	}
	metrics.UnitsProcessed.WithLabelValues("succeeded").Add(float64(len(preds)))
	for _, p := range preds {
		metrics.PredictionsByTier.WithLabelValues(string(p.Priority)).Inc()
	}

	// KPI aggregation runs only after the per-unit join barrier above:
	// several metrics are fleet-wide.
	kpis, err := o.computeKPIs(ctx, runDate, equipment, maintenance, failureLog, preds, tasks)
	if err != nil {
		return nil, err
	}

	if run.Failed > 0 {
		run.Status = model.RunCompletedWE
	} else {
		run.Status = model.RunCompleted
	}
	o.finish(run)

	if err := o.store.CommitRun(ctx, run, preds, tasks, kpis); err != nil {
		return nil, fmt.Errorf("committing run outputs: %w", err)
	}
	log.Printf("Run %s %s: %d attempted, %d succeeded, %d failed in %dms",
		run.ID, run.Status, run.Attempted, run.Succeeded, run.Failed, run.DurationMS)

	return &Result{Run: run, Predictions: preds, Tasks: tasks}, nil
}

// prepare validates each unit and carves the shared event logs into per-unit
// slices. Invalid units are excluded; invalid events are dropped from their
// unit with a log line but do not exclude the unit itself.
func (o *Orchestrator) prepare(now time.Time, equipment []model.Equipment,
	maintenance []model.MaintenanceEvent, failures []model.FailureEvent) ([]unitInput, []model.UnitFailure) {

	maintByUnit := make(map[string][]model.MaintenanceEvent, len(equipment))
	for _, m := range maintenance {
		maintByUnit[m.EquipmentID] = append(maintByUnit[m.EquipmentID], m)
	}
	failByUnit := make(map[string][]model.FailureEvent, len(equipment))
	for _, f := range failures {
		failByUnit[f.EquipmentID] = append(failByUnit[f.EquipmentID], f)
	}

	units := make([]unitInput, 0, len(equipment))
	var excluded []model.UnitFailure
	for _, eq := range equipment {
		if err := eq.Validate(now); err != nil {
			excluded = append(excluded, model.UnitFailure{EquipmentID: eq.ID, Reason: err.Error()})
			continue
		}
		u := unitInput{equipment: eq}
		for _, m := range maintByUnit[eq.ID] {
			if err := m.Validate(now, eq.AcquisitionDate); err != nil {
				log.Printf("Dropping maintenance event %d: %v", m.ID, err)
				continue
			}
			u.maintenance = append(u.maintenance, m)
		}
		for _, f := range failByUnit[eq.ID] {
			if err := f.Validate(now, eq.AcquisitionDate); err != nil {
				log.Printf("Dropping failure event %d: %v", f.ID, err)
				continue
			}
			u.failures = append(u.failures, f)
		}
		units = append(units, u)
	}
	return units, excluded
}

// processUnits fans the roster out over a bounded worker pool. Per-unit
// computations are independent, so order of execution does not matter; the
// output is re-sorted by equipment ID for deterministic commits.
func (o *Orchestrator) processUnits(ctx context.Context, builder *features.Builder,
	runID string, runDate time.Time, units []unitInput) ([]model.Prediction, []model.MaintenanceTask, []model.UnitFailure, error) {

	jobs := make(chan unitInput)
	results := make(chan unitOutput)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Pipeline.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				results <- o.processUnit(builder, runID, runDate, u)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range units {
			select {
			case jobs <- u:
			case <-workerCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	type pair struct {
		pred model.Prediction
		task model.MaintenanceTask
	}
	var pairs []pair
	var failures []model.UnitFailure
	var fatal error
	for out := range results {
		switch {
		case out.fatal != nil:
			if fatal == nil {
				fatal = out.fatal
				cancelWorkers()
			}
		case out.failure != nil:
			failures = append(failures, *out.failure)
		default:
			pairs = append(pairs, pair{pred: out.pred, task: out.task})
		}
	}
	if fatal != nil {
		return nil, nil, nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: run budget exceeded: %v", ErrRunFailed, err)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pred.EquipmentID < pairs[j].pred.EquipmentID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].EquipmentID < failures[j].EquipmentID })

	preds := make([]model.Prediction, len(pairs))
	tasks := make([]model.MaintenanceTask, len(pairs))
	for i, p := range pairs {
		preds[i] = p.pred
		tasks[i] = p.task
	}
	return preds, tasks, failures, nil
}

func (o *Orchestrator) processUnit(builder *features.Builder, runID string, runDate time.Time, u unitInput) unitOutput {
	fv := builder.Build(runDate, u.equipment, u.maintenance, u.failures)

	screening, err := o.screening.Predict(fv)
	if err != nil {
		return o.classifyError(u.equipment.ID, err)
	}
	prioritization, err := o.prioritization.Predict(fv)
	if err != nil {
		return o.classifyError(u.equipment.ID, err)
	}

	pred, task, err := o.engine.Decide(u.equipment.ID, runID, runDate,
		struct {
			Flag        bool
			Probability float64
		}{screening.Flag, screening.Probability},
		struct {
			Flag        bool
			Probability float64
		}{prioritization.Flag, prioritization.Probability})
	if err != nil {
		return o.classifyError(u.equipment.ID, err)
	}
	return unitOutput{pred: pred, task: task}
}

// classifyError separates fatal configuration defects from recoverable
// per-unit problems.
func (o *Orchestrator) classifyError(equipmentID string, err error) unitOutput {
	if errors.Is(err, model.ErrConfiguration) {
		return unitOutput{fatal: err}
	}
	return unitOutput{failure: &model.UnitFailure{EquipmentID: equipmentID, Reason: err.Error()}}
}

func (o *Orchestrator) computeKPIs(ctx context.Context, runDate time.Time,
	equipment []model.Equipment, maintenance []model.MaintenanceEvent, failures []model.FailureEvent,
	preds []model.Prediction, tasks []model.MaintenanceTask) ([]model.KPIMetric, error) {

	history, err := o.store.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading task history: %w", err)
	}
	pastPreds, err := o.store.PastPredictions(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("loading past predictions: %w", err)
	}
	outcomes, err := o.store.Outcomes(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("loading outcome labels: %w", err)
	}

	return o.calc.Compute(kpi.Inputs{
		Date:            runDate,
		Equipment:       equipment,
		Maintenance:     maintenance,
		Failures:        failures,
		Predictions:     preds,
		Tasks:           append(history, tasks...),
		PastPredictions: pastPreds,
		Outcomes:        outcomes,
	}), nil
}

func (o *Orchestrator) finish(run *model.PipelineRun) {
	run.FinishedAt = o.now().UTC()
	run.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
}

// dayOf truncates to midnight UTC; a run date is a calendar day, not an
// instant.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
