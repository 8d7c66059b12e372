// Package kpi computes the fixed catalogue of business, operational and
// model-quality metrics from a completed run plus the historical logs.
package kpi

import (
	"log"
	"time"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/model"
)

// Inputs is everything one KPI computation needs. All collections are
// read-only snapshots; the calculator itself holds no state between runs.
type Inputs struct {
	Date        time.Time
	Equipment   []model.Equipment
	Maintenance []model.MaintenanceEvent
	Failures    []model.FailureEvent
	Predictions []model.Prediction
	Tasks       []model.MaintenanceTask

	// PastPredictions and Outcomes come from the label-reconciliation feed.
	// When Outcomes is empty the model metrics are omitted, never faked.
	PastPredictions []model.Prediction
	Outcomes        []model.OutcomeLabel
}

// Calculator derives KPIMetric rows with deterministic formulas.
type Calculator struct {
	targets map[string]config.KPITarget
}

// NewCalculator merges the configured targets over the built-in table.
func NewCalculator(cfg config.KPIConfig) *Calculator {
	targets := make(map[string]config.KPITarget, len(defaultTargets))
	for name, t := range defaultTargets {
		targets[name] = t
	}
	for name, t := range cfg.Targets {
		targets[name] = t
	}
	return &Calculator{targets: targets}
}

// Compute emits the full metric catalogue for one run.
func (c *Calculator) Compute(in Inputs) []model.KPIMetric {
	metrics := make([]model.KPIMetric, 0, 24)

	metrics = append(metrics, c.businessMetrics(in)...)
	metrics = append(metrics, c.operationalMetrics(in)...)
	metrics = append(metrics, c.modelMetrics(in)...)

	return metrics
}

func (c *Calculator) businessMetrics(in Inputs) []model.KPIMetric {
	// Baseline: every historical event handled reactively at the mean
	// reactive cost. Blended: what was actually spent.
	var reactiveCosts []float64
	var blended float64
	for _, m := range in.Maintenance {
		blended += m.Cost
		if m.Type == model.MaintenanceCorrective {
			reactiveCosts = append(reactiveCosts, m.Cost)
		}
	}
	var failDowntime float64
	for _, f := range in.Failures {
		blended += f.RepairCost
		failDowntime += f.DowntimeHours
		reactiveCosts = append(reactiveCosts, f.RepairCost)
	}

	eventCount := len(in.Maintenance) + len(in.Failures)
	baseline := mean(reactiveCosts) * float64(eventCount)

	costReduction := 0.0
	if baseline > 0 {
		costReduction = (baseline - blended) / baseline * 100
	}

	meanFailDowntime := safeDiv(failDowntime, float64(len(in.Failures)))
	var prevented int
	var investment float64
	for _, p := range in.Predictions {
		if p.Priority == model.TierCritical || p.Priority == model.TierHigh {
			prevented++
		}
	}
	for _, t := range in.Tasks {
		investment += t.EstimatedCost
	}
	downtimeAvoided := float64(prevented) * meanFailDowntime

	savings := baseline - blended
	if savings < 0 {
		savings = 0
	}
	roi := safeDiv(savings, investment)

	return []model.KPIMetric{
		c.metric(in.Date, MetricCostReduction, model.KPIBusiness, costReduction),
		c.metric(in.Date, MetricDowntimeAvoided, model.KPIBusiness, downtimeAvoided),
		c.metric(in.Date, MetricROI, model.KPIBusiness, roi),
	}
}

func (c *Calculator) operationalMetrics(in Inputs) []model.KPIMetric {
	var preventive int
	for _, m := range in.Maintenance {
		if m.Type == model.MaintenancePreventive {
			preventive++
		}
	}
	preventiveRatio := safeDiv(float64(preventive), float64(len(in.Maintenance)))

	var totalHours int64
	for _, eq := range in.Equipment {
		totalHours += eq.OperatingHours
	}
	failCount := len(in.Failures)
	mtbf := float64(totalHours)
	if failCount > 0 {
		mtbf = float64(totalHours) / float64(failCount)
	}

	var repairHours float64
	for _, f := range in.Failures {
		repairHours += f.DowntimeHours
	}
	mttr := safeDiv(repairHours, float64(failCount))

	out := []model.KPIMetric{
		c.metric(in.Date, MetricPreventiveRatio, model.KPIOperational, preventiveRatio),
		c.metric(in.Date, MetricMTBF, model.KPIOperational, mtbf),
		c.metric(in.Date, MetricMTTR, model.KPIOperational, mttr),
	}

	// On-time completion needs closed tasks to judge; with none the metric
	// has no evidence and is omitted for the run.
	var completed, onTime int
	for _, t := range in.Tasks {
		if t.Status != model.TaskCompleted || t.CompletedAt == nil {
			continue
		}
		completed++
		if !t.CompletedAt.After(endOfDay(t.ScheduledDate)) {
			onTime++
		}
	}
	if completed > 0 {
		pct := float64(onTime) / float64(completed) * 100
		out = append(out, c.metric(in.Date, MetricTasksOnTime, model.KPIOperational, pct))
	}
	return out
}

func (c *Calculator) modelMetrics(in Inputs) []model.KPIMetric {
	if len(in.Outcomes) == 0 || len(in.PastPredictions) == 0 {
		log.Printf("KPI: no reconciled outcomes available, omitting model metrics for %s", in.Date.Format("2006-01-02"))
		return nil
	}

	labels := make(map[string]bool, len(in.Outcomes))
	for _, o := range in.Outcomes {
		labels[o.EquipmentID] = o.Failed
	}

	var out []model.KPIMetric
	for _, stage := range []struct {
		prefix string
		flag   func(model.Prediction) bool
	}{
		{"screening_", func(p model.Prediction) bool { return p.ScreeningFlag }},
		{"prioritization_", func(p model.Prediction) bool { return p.PrioritizationFlag }},
	} {
		var tp, fp, tn, fn float64
		matched := 0
		for _, p := range in.PastPredictions {
			actual, ok := labels[p.EquipmentID]
			if !ok {
				continue
			}
			matched++
			predicted := stage.flag(p)
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && !actual:
				tn++
			default:
				fn++
			}
		}
		if matched == 0 {
			continue
		}

		accuracy := (tp + tn) / float64(matched)
		precision := safeDiv(tp, tp+fp)
		recall := safeDiv(tp, tp+fn)
		f1 := safeDiv(2*precision*recall, precision+recall)
		fpr := safeDiv(fp, fp+tn)
		fnr := safeDiv(fn, fn+tp)

		out = append(out,
			c.metric(in.Date, stage.prefix+suffixAccuracy, model.KPIModel, accuracy),
			c.metric(in.Date, stage.prefix+suffixPrecision, model.KPIModel, precision),
			c.metric(in.Date, stage.prefix+suffixRecall, model.KPIModel, recall),
			c.metric(in.Date, stage.prefix+suffixF1, model.KPIModel, f1),
			c.metric(in.Date, stage.prefix+suffixFPR, model.KPIModel, fpr),
			c.metric(in.Date, stage.prefix+suffixFNR, model.KPIModel, fnr),
		)
	}
	return out
}

func (c *Calculator) metric(date time.Time, name string, cat model.KPICategory, value float64) model.KPIMetric {
	target := c.targets[name]
	return model.KPIMetric{
		Name:            name,
		MeasurementDate: date,
		Category:        cat,
		Value:           value,
		Target:          target.Target,
		Status:          classifyStatus(value, target.Target, target.HigherIsBetter),
	}
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
