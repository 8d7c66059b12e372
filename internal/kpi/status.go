package kpi

import (
	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/model"
)

// Metric names of the fixed KPI catalogue.
const (
	MetricCostReduction   = "cost_reduction_pct"
	MetricDowntimeAvoided = "downtime_avoided_hours"
	MetricROI             = "roi"

	MetricPreventiveRatio = "preventive_ratio"
	MetricMTBF            = "mtbf_hours"
	MetricMTTR            = "mttr_hours"
	MetricTasksOnTime     = "tasks_on_time_pct"
)

// Per-classifier model metric suffixes; prefixed with "screening_" or
// "prioritization_".
const (
	suffixAccuracy  = "accuracy"
	suffixPrecision = "precision"
	suffixRecall    = "recall"
	suffixF1        = "f1"
	suffixFPR       = "false_positive_rate"
	suffixFNR       = "false_negative_rate"
)

// defaultTargets holds the built-in target table. Config entries override
// individual metrics.
var defaultTargets = map[string]config.KPITarget{
	MetricCostReduction:   {Target: 25, HigherIsBetter: true},
	MetricDowntimeAvoided: {Target: 100, HigherIsBetter: true},
	MetricROI:             {Target: 2, HigherIsBetter: true},

	MetricPreventiveRatio: {Target: 0.6, HigherIsBetter: true},
	MetricMTBF:            {Target: 1000, HigherIsBetter: true},
	MetricMTTR:            {Target: 12, HigherIsBetter: false},
	MetricTasksOnTime:     {Target: 90, HigherIsBetter: true},

	"screening_" + suffixAccuracy:  {Target: 0.75, HigherIsBetter: true},
	"screening_" + suffixPrecision: {Target: 0.3, HigherIsBetter: true},
	"screening_" + suffixRecall:    {Target: 0.95, HigherIsBetter: true},
	"screening_" + suffixF1:        {Target: 0.45, HigherIsBetter: true},
	"screening_" + suffixFPR:       {Target: 0.4, HigherIsBetter: false},
	"screening_" + suffixFNR:       {Target: 0.05, HigherIsBetter: false},

	"prioritization_" + suffixAccuracy:  {Target: 0.85, HigherIsBetter: true},
	"prioritization_" + suffixPrecision: {Target: 0.8, HigherIsBetter: true},
	"prioritization_" + suffixRecall:    {Target: 0.7, HigherIsBetter: true},
	"prioritization_" + suffixF1:        {Target: 0.75, HigherIsBetter: true},
	"prioritization_" + suffixFPR:       {Target: 0.1, HigherIsBetter: false},
	"prioritization_" + suffixFNR:       {Target: 0.3, HigherIsBetter: false},
}

// classifyStatus buckets a value against its target. The comparison is pure
// and direction-aware, mirroring the health-score rubric style: fixed ratio
// bands, no side effects, no randomness.
func classifyStatus(value, target float64, higherIsBetter bool) model.KPIStatus {
	if target == 0 {
		// Degenerate target: any non-negative value counts as on-target.
		if value >= 0 {
			return model.StatusExcellent
		}
		return model.StatusCritical
	}
	ratio := value / target
	if higherIsBetter {
		switch {
		case ratio >= 1:
			return model.StatusExcellent
		case ratio >= 0.85:
			return model.StatusGood
		case ratio >= 0.6:
			return model.StatusWarning
		default:
			return model.StatusCritical
		}
	}
	switch {
	case ratio <= 1:
		return model.StatusExcellent
	case ratio <= 1.15:
		return model.StatusGood
	case ratio <= 1.4:
		return model.StatusWarning
	default:
		return model.StatusCritical
	}
}
