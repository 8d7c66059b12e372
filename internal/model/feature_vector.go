package model

import "sort"

// Canonical feature names. The classifier artifacts reference features by
// these names, so they are part of the model-artifact contract.
const (
	FeatAgeYears           = "age_years"
	FeatAgeBucket          = "age_bucket"
	FeatUsageHours         = "usage_hours"
	FeatUsageIntensity     = "usage_intensity"
	FeatUsageBucket        = "usage_bucket"
	FeatMaintCount         = "maint_count"
	FeatMaintTotalCost     = "maint_total_cost"
	FeatMaintMeanCost      = "maint_mean_cost"
	FeatMaintCostStddev    = "maint_cost_stddev"
	FeatMaintTotalDowntime = "maint_total_downtime"
	FeatMaintMeanDowntime  = "maint_mean_downtime"
	FeatPreventiveCount    = "preventive_count"
	FeatPreventiveRatio    = "preventive_ratio"
	FeatMaintAnnualFreq    = "maint_annual_freq"
	FeatFailureCount       = "failure_count"
	FeatFailureTotalCost   = "failure_total_cost"
	FeatFailureMeanCost    = "failure_mean_cost"
	FeatFailureTotalDown   = "failure_total_downtime"
	FeatFailureMeanDown    = "failure_mean_downtime"
	FeatCriticalCount      = "critical_failure_count"
	FeatPreventableCount   = "preventable_count"
	FeatPreventableRatio   = "preventable_ratio"
	FeatFailureRate        = "failure_rate"
	FeatMTBF               = "mtbf"
	FeatHealthScore        = "health_score"
	FeatHealthBucket       = "health_bucket"
	FeatCategoryCode       = "category_code"
	FeatBrandCode          = "brand_code"
	FeatLocationCode       = "location_code"
)

// FeatureVector is the derived, ephemeral per-unit input to the classifiers.
// It is recomputed from the source logs on every run and never authoritative.
type FeatureVector struct {
	EquipmentID string
	Values      map[string]float64
}

// Get looks a feature up by name.
func (fv FeatureVector) Get(name string) (float64, bool) {
	v, ok := fv.Values[name]
	return v, ok
}

// Names returns the feature names in lexicographic order, so that any
// serialization of the vector is reproducible run to run.
func (fv FeatureVector) Names() []string {
	names := make([]string, 0, len(fv.Values))
	for name := range fv.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
