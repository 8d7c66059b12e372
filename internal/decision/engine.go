// Package decision converts classifier outputs into priority tiers, schedule
// dates and cost estimates.
package decision

import (
	"fmt"
	"time"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/model"
)

// Engine maps a risk score deterministically to a priority tier, a
// recommended action window and a flat estimated cost.
type Engine struct {
	cfg config.DecisionConfig
}

// NewEngine creates a decision engine from the configured threshold tables.
func NewEngine(cfg config.DecisionConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Tier assigns the priority tier for a risk score. Boundaries are closed on
// the lower tier: exactly 70 is High, exactly 40 is Medium, exactly 20 is
// Low. A score outside [0,100] means an upstream adapter defect, so it is
// rejected rather than clamped.
func (e *Engine) Tier(risk float64) (model.PriorityTier, error) {
	if risk < 0 || risk > 100 {
		return "", fmt.Errorf("risk score %v outside [0,100]: %w", risk, model.ErrConfiguration)
	}
	switch {
	case risk > e.cfg.RiskCritical:
		return model.TierCritical, nil
	case risk > e.cfg.RiskHigh:
		return model.TierHigh, nil
	case risk > e.cfg.RiskMedium:
		return model.TierMedium, nil
	default:
		return model.TierLow, nil
	}
}

// ActionDate returns the recommended action date for a tier, measured from
// the run date.
func (e *Engine) ActionDate(tier model.PriorityTier, runDate time.Time) time.Time {
	days := map[model.PriorityTier]int{
		model.TierCritical: e.cfg.OffsetDaysCritical,
		model.TierHigh:     e.cfg.OffsetDaysHigh,
		model.TierMedium:   e.cfg.OffsetDaysMedium,
		model.TierLow:      e.cfg.OffsetDaysLow,
	}[tier]
	return runDate.AddDate(0, 0, days)
}

// EstimatedCost returns the flat per-tier cost estimate.
func (e *Engine) EstimatedCost(tier model.PriorityTier) float64 {
	return map[model.PriorityTier]float64{
		model.TierCritical: e.cfg.CostCritical,
		model.TierHigh:     e.cfg.CostHigh,
		model.TierMedium:   e.cfg.CostMedium,
		model.TierLow:      e.cfg.CostLow,
	}[tier]
}

// Decide completes a prediction from the two classifier stages and emits the
// pending maintenance task derived from it. The returned task carries no
// prediction reference yet; the store links them when it assigns row IDs.
func (e *Engine) Decide(equipmentID, runID string, runDate time.Time,
	screening, prioritization struct {
		Flag        bool
		Probability float64
	}) (model.Prediction, model.MaintenanceTask, error) {

	risk := prioritization.Probability * 100
	tier, err := e.Tier(risk)
	if err != nil {
		return model.Prediction{}, model.MaintenanceTask{}, err
	}

	pred := model.Prediction{
		EquipmentID:        equipmentID,
		RunDate:            runDate,
		RunID:              runID,
		ScreeningFlag:      screening.Flag,
		ScreeningProb:      screening.Probability,
		PrioritizationFlag: prioritization.Flag,
		PrioritizationProb: prioritization.Probability,
		RiskScore:          risk,
		Priority:           tier,
		RecommendedAction:  recommendedAction(tier, e.ActionDate(tier, runDate)),
	}
	task := model.MaintenanceTask{
		EquipmentID:   equipmentID,
		ScheduledDate: e.ActionDate(tier, runDate),
		Priority:      tier,
		Status:        model.TaskPending,
		EstimatedCost: e.EstimatedCost(tier),
	}
	return pred, task, nil
}

func recommendedAction(tier model.PriorityTier, by time.Time) string {
	date := by.Format("2006-01-02")
	switch tier {
	case model.TierCritical:
		return "Immediate inspection required; service by " + date
	case model.TierHigh:
		return "Schedule corrective service by " + date
	case model.TierMedium:
		return "Plan preventive maintenance by " + date
	default:
		return "Routine check during next service window by " + date
	}
}
