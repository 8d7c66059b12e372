package features

import (
	"math"
	"time"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/model"
)

// Builder turns the raw equipment, maintenance and failure logs into one
// fixed-width feature vector per unit. It is pure: no I/O, no clock reads,
// so the same snapshot always yields byte-identical vectors.
type Builder struct {
	ageBounds   []int     // inclusive upper bounds of the first three age buckets
	usageBounds []float64 // inclusive upper bounds of the low and medium usage buckets
	encoding    *Encoding
}

// NewBuilder creates a feature builder with the configured bucket thresholds
// and a categorical encoding table.
func NewBuilder(cfg config.FeaturesConfig, enc *Encoding) *Builder {
	return &Builder{
		ageBounds:   cfg.AgeBucketYears,
		usageBounds: cfg.UsageBucketHoursPerYear,
		encoding:    enc,
	}
}

// Build produces the feature vector for one unit from its full history.
// Units with no history are expected: every historical aggregate stays 0 and
// the health score reflects only age and usage.
func (b *Builder) Build(now time.Time, eq model.Equipment, maint []model.MaintenanceEvent, failures []model.FailureEvent) model.FeatureVector {
	v := make(map[string]float64, 32)

	// Age and usage. An age of 0 counts as 1 year for every rate
	// denominator so first-season units do not divide by zero.
	age := eq.AgeYears(now)
	effAge := age
	if effAge < 1 {
		effAge = 1
	}
	hours := float64(eq.OperatingHours)
	intensity := hours / float64(effAge)

	v[model.FeatAgeYears] = float64(age)
	v[model.FeatAgeBucket] = float64(b.ageBucket(age))
	v[model.FeatUsageHours] = hours
	v[model.FeatUsageIntensity] = intensity
	v[model.FeatUsageBucket] = float64(b.usageBucket(intensity))

	// Maintenance aggregates over the full history.
	var maintCost, maintDowntime float64
	var preventive int
	costs := make([]float64, 0, len(maint))
	for _, m := range maint {
		maintCost += m.Cost
		maintDowntime += m.DowntimeHours
		costs = append(costs, m.Cost)
		if m.Type == model.MaintenancePreventive {
			preventive++
		}
	}
	maintCount := len(maint)
	v[model.FeatMaintCount] = float64(maintCount)
	v[model.FeatMaintTotalCost] = maintCost
	v[model.FeatMaintMeanCost] = safeDiv(maintCost, float64(maintCount))
	v[model.FeatMaintCostStddev] = stddev(costs)
	v[model.FeatMaintTotalDowntime] = maintDowntime
	v[model.FeatMaintMeanDowntime] = safeDiv(maintDowntime, float64(maintCount))
	v[model.FeatPreventiveCount] = float64(preventive)
	v[model.FeatPreventiveRatio] = safeDiv(float64(preventive), float64(maintCount))
	v[model.FeatMaintAnnualFreq] = float64(maintCount) / float64(effAge)

	// Failure aggregates over the full history.
	var repairCost, failDowntime float64
	var critical, preventable int
	for _, f := range failures {
		repairCost += f.RepairCost
		failDowntime += f.DowntimeHours
		if f.Severity == model.SeverityCritical {
			critical++
		}
		if f.WasPreventable {
			preventable++
		}
	}
	failCount := len(failures)
	failureRate := 0.0
	if hours > 0 {
		failureRate = float64(failCount) / (hours / 1000)
	}
	mtbf := hours / math.Max(float64(failCount), 1)

	v[model.FeatFailureCount] = float64(failCount)
	v[model.FeatFailureTotalCost] = repairCost
	v[model.FeatFailureMeanCost] = safeDiv(repairCost, float64(failCount))
	v[model.FeatFailureTotalDown] = failDowntime
	v[model.FeatFailureMeanDown] = safeDiv(failDowntime, float64(failCount))
	v[model.FeatCriticalCount] = float64(critical)
	v[model.FeatPreventableCount] = float64(preventable)
	v[model.FeatPreventableRatio] = safeDiv(float64(preventable), float64(failCount))
	v[model.FeatFailureRate] = failureRate
	v[model.FeatMTBF] = mtbf

	health := healthScore(age, failCount, critical, v[model.FeatPreventiveRatio], mtbf)
	v[model.FeatHealthScore] = health
	v[model.FeatHealthBucket] = float64(healthBucket(health))

	v[model.FeatCategoryCode] = float64(b.encoding.Code(FieldCategory, eq.Category))
	v[model.FeatBrandCode] = float64(b.encoding.Code(FieldBrand, eq.Brand))
	v[model.FeatLocationCode] = float64(b.encoding.Code(FieldLocation, eq.Location))

	return model.FeatureVector{EquipmentID: eq.ID, Values: v}
}

// healthScore is the designed 0-100 rubric, not a statistical fit. The exact
// weighting is part of the contract and has test parity with a worked
// example, so any change here must update those tests deliberately.
func healthScore(age, failCount, criticalCount int, preventiveRatio, mtbf float64) float64 {
	score := 100.0
	score -= math.Min(float64(age)*2, 30)
	score -= math.Min(float64(failCount)*5, 25)
	score -= math.Min(float64(criticalCount)*5, 20)
	score += preventiveRatio * 15
	score += math.Min(mtbf/1000, 10)
	return clamp(score, 0, 100)
}

func (b *Builder) ageBucket(age int) int {
	for i, bound := range b.ageBounds {
		if age <= bound {
			return i
		}
	}
	return len(b.ageBounds)
}

func (b *Builder) usageBucket(intensity float64) int {
	for i, bound := range b.usageBounds {
		if intensity <= bound {
			return i
		}
	}
	return len(b.usageBounds)
}

func healthBucket(score float64) int {
	switch {
	case score < 40:
		return 0
	case score < 60:
		return 1
	case score < 80:
		return 2
	default:
		return 3
	}
}

// stddev is the population standard deviation; zero for fewer than two values.
func stddev(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / n)
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
