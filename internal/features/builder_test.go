package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/model"
)

func testFeaturesConfig() config.FeaturesConfig {
	return config.FeaturesConfig{
		AgeBucketYears:          []int{3, 7, 12},
		UsageBucketHoursPerYear: []float64{200, 500},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEncoding() *Encoding {
	return BuildEncoding([]model.Equipment{
		{ID: "EQ-1", Category: "harvester", Brand: "AgriCo", Location: "north"},
		{ID: "EQ-2", Category: "tractor", Brand: "FieldWorks", Location: "south"},
	})
}

func TestBuildHealthScoreWorkedExample(t *testing.T) {
	// A 2016 harvester with 3000 hours, 5 maintenance events of which 2
	// preventive, and 2 failures of which 1 critical must score 74.5:
	// 100 - 18 (age) - 10 (failures) - 5 (critical) + 6 (preventive) + 1.5 (MTBF).
	now := date(2025, time.June, 1)
	eq := model.Equipment{
		ID:              "EQ-1",
		Category:        "harvester",
		Brand:           "AgriCo",
		Location:        "north",
		ManufactureYear: 2016,
		AcquisitionDate: date(2016, time.March, 1),
		OperatingHours:  3000,
		Status:          model.EquipmentActive,
	}
	maint := []model.MaintenanceEvent{
		{EquipmentID: "EQ-1", EventDate: date(2018, time.May, 1), Type: model.MaintenancePreventive, Cost: 100},
		{EquipmentID: "EQ-1", EventDate: date(2019, time.May, 1), Type: model.MaintenancePreventive, Cost: 120},
		{EquipmentID: "EQ-1", EventDate: date(2020, time.May, 1), Type: model.MaintenanceCorrective, Cost: 300},
		{EquipmentID: "EQ-1", EventDate: date(2021, time.May, 1), Type: model.MaintenanceCorrective, Cost: 280},
		{EquipmentID: "EQ-1", EventDate: date(2022, time.May, 1), Type: model.MaintenancePredictive, Cost: 150},
	}
	failures := []model.FailureEvent{
		{EquipmentID: "EQ-1", FailureDate: date(2020, time.April, 1), Severity: model.SeverityCritical, RepairCost: 900},
		{EquipmentID: "EQ-1", FailureDate: date(2023, time.April, 1), Severity: model.SeverityMinor, RepairCost: 200},
	}

	b := NewBuilder(testFeaturesConfig(), testEncoding())
	fv := b.Build(now, eq, maint, failures)

	assert.Equal(t, 9.0, fv.Values[model.FeatAgeYears])
	assert.Equal(t, 1500.0, fv.Values[model.FeatMTBF])
	assert.Equal(t, 0.4, fv.Values[model.FeatPreventiveRatio])
	assert.InDelta(t, 74.5, fv.Values[model.FeatHealthScore], 1e-9)
	assert.Equal(t, 2.0, fv.Values[model.FeatHealthBucket]) // 60 <= 74.5 < 80
}

func TestBuildZeroHistory(t *testing.T) {
	now := date(2025, time.June, 1)
	eq := model.Equipment{
		ID:              "EQ-2",
		Category:        "tractor",
		Brand:           "FieldWorks",
		Location:        "south",
		ManufactureYear: 2025,
		AcquisitionDate: date(2025, time.January, 10),
		OperatingHours:  0,
		Status:          model.EquipmentActive,
	}

	b := NewBuilder(testFeaturesConfig(), testEncoding())
	fv := b.Build(now, eq, nil, nil)

	// First-season unit: every historical aggregate is 0, nothing divides
	// by zero, and the health score stays in range.
	assert.Equal(t, 0.0, fv.Values[model.FeatMaintCount])
	assert.Equal(t, 0.0, fv.Values[model.FeatMaintMeanCost])
	assert.Equal(t, 0.0, fv.Values[model.FeatFailureRate])
	assert.Equal(t, 0.0, fv.Values[model.FeatPreventableRatio])
	assert.Equal(t, 0.0, fv.Values[model.FeatUsageIntensity])
	score := fv.Values[model.FeatHealthScore]
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestBuildDeterministic(t *testing.T) {
	now := date(2025, time.June, 1)
	eq := model.Equipment{
		ID:              "EQ-1",
		Category:        "harvester",
		Brand:           "AgriCo",
		Location:        "north",
		ManufactureYear: 2019,
		AcquisitionDate: date(2019, time.March, 1),
		OperatingHours:  1200,
	}
	maint := []model.MaintenanceEvent{
		{EquipmentID: "EQ-1", EventDate: date(2021, time.May, 1), Type: model.MaintenancePreventive, Cost: 90, DowntimeHours: 4},
	}
	failures := []model.FailureEvent{
		{EquipmentID: "EQ-1", FailureDate: date(2022, time.April, 1), Severity: model.SeverityModerate, RepairCost: 400, DowntimeHours: 12, WasPreventable: true},
	}

	b := NewBuilder(testFeaturesConfig(), testEncoding())
	first := b.Build(now, eq, maint, failures)
	second := b.Build(now, eq, maint, failures)

	require.Equal(t, first.Names(), second.Names())
	for _, name := range first.Names() {
		assert.Equal(t, first.Values[name], second.Values[name], name)
	}
}

func TestAgeAndUsageBuckets(t *testing.T) {
	b := NewBuilder(testFeaturesConfig(), testEncoding())

	ageCases := []struct {
		age  int
		want int
	}{
		{0, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {12, 2}, {13, 3}, {40, 3},
	}
	for _, tc := range ageCases {
		assert.Equal(t, tc.want, b.ageBucket(tc.age), "age %d", tc.age)
	}

	usageCases := []struct {
		intensity float64
		want      int
	}{
		{0, 0}, {200, 0}, {200.5, 1}, {500, 1}, {501, 2}, {4000, 2},
	}
	for _, tc := range usageCases {
		assert.Equal(t, tc.want, b.usageBucket(tc.intensity), "intensity %f", tc.intensity)
	}
}

func TestHealthScoreClamping(t *testing.T) {
	// Old, failure-ridden unit with no redeeming history bottoms out at 0.
	score := healthScore(40, 10, 8, 0, 0)
	assert.Equal(t, 25.0, score) // 100 - 30 - 25 - 20 = 25, no clamping needed

	// All penalties capped plus no bonuses can never go negative.
	assert.GreaterOrEqual(t, healthScore(100, 100, 100, 0, 0), 0.0)
	// Bonuses can never push past 100.
	assert.LessOrEqual(t, healthScore(0, 0, 0, 1, 1e9), 100.0)
}

func TestEncodingStableAndUnknown(t *testing.T) {
	enc := testEncoding()

	// Codes follow sorted distinct order, independent of roster order.
	assert.Equal(t, 0, enc.Code(FieldCategory, "harvester"))
	assert.Equal(t, 1, enc.Code(FieldCategory, "tractor"))
	assert.Equal(t, 0, enc.Code(FieldBrand, "AgriCo"))
	assert.Equal(t, 1, enc.Code(FieldBrand, "FieldWorks"))

	// Values never seen at build time map to the sentinel -1.
	assert.Equal(t, -1, enc.Code(FieldCategory, "drone"))
	assert.Equal(t, -1, enc.Code(FieldLocation, "east"))
}

func TestEncodingRoundTrip(t *testing.T) {
	enc := testEncoding()
	path := t.TempDir() + "/encoding.json"
	require.NoError(t, enc.Save(path))

	loaded, err := LoadEncoding(path)
	require.NoError(t, err)
	assert.Equal(t, enc.Version, loaded.Version)
	assert.Equal(t, enc.Code(FieldCategory, "tractor"), loaded.Code(FieldCategory, "tractor"))
	assert.Equal(t, -1, loaded.Code(FieldBrand, "Unseen"))
}
