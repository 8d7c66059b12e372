package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-maintenance-backend/internal/model"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidArtifact(t *testing.T) {
	path := writeArtifact(t, `{
		"name": "screening_v3",
		"features": ["age_years", "failure_count"],
		"weights": [0.5, 1.2],
		"bias": -2.0,
		"threshold": 0.3
	}`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "screening_v3", m.Name())
	assert.Equal(t, 2, m.FeatureCount())
}

func TestLoadRejectsBadArtifacts(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "weights and features differ in length",
			body: `{"name":"m","features":["a","b"],"weights":[0.1],"bias":0,"threshold":0.5}`,
		},
		{
			name: "threshold above one",
			body: `{"name":"m","features":["a"],"weights":[0.1],"bias":0,"threshold":1.5}`,
		},
		{
			name: "threshold negative",
			body: `{"name":"m","features":["a"],"weights":[0.1],"bias":0,"threshold":-0.1}`,
		},
		{
			name: "empty feature list",
			body: `{"name":"m","features":[],"weights":[],"bias":0,"threshold":0.5}`,
		},
		{
			name: "missing name",
			body: `{"features":["a"],"weights":[0.1],"bias":0,"threshold":0.5}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, tc.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfiguration), "want configuration error, got %v", err)
		})
	}
}

func TestPredictLogistic(t *testing.T) {
	m := &LinearModel{
		ModelName: "test",
		Features:  []string{"age_years", "failure_count"},
		Weights:   []float64{0.1, 0.5},
		Bias:      -1.0,
		Threshold: 0.5,
	}

	fv := model.FeatureVector{
		EquipmentID: "EQ-1",
		Values:      map[string]float64{"age_years": 10, "failure_count": 4},
	}

	pred, err := m.Predict(fv)
	require.NoError(t, err)

	// z = -1 + 0.1*10 + 0.5*4 = 2
	want := 1 / (1 + math.Exp(-2.0))
	assert.InDelta(t, want, pred.Probability, 1e-12)
	assert.True(t, pred.Flag)
}

func TestPredictFlagAgainstThreshold(t *testing.T) {
	m := &LinearModel{
		ModelName: "test",
		Features:  []string{"x"},
		Weights:   []float64{1},
		Bias:      0,
		Threshold: 0.5,
	}

	// x = 0 gives p = 0.5 exactly; the flag fires at >= threshold.
	pred, err := m.Predict(model.FeatureVector{EquipmentID: "EQ-1", Values: map[string]float64{"x": 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, pred.Probability)
	assert.True(t, pred.Flag)

	pred, err = m.Predict(model.FeatureVector{EquipmentID: "EQ-1", Values: map[string]float64{"x": -1}})
	require.NoError(t, err)
	assert.False(t, pred.Flag)
}

func TestPredictMissingFeatureIsFatal(t *testing.T) {
	m := &LinearModel{
		ModelName: "test",
		Features:  []string{"age_years", "health_score"},
		Weights:   []float64{0.1, -0.2},
		Bias:      0,
		Threshold: 0.5,
	}

	fv := model.FeatureVector{EquipmentID: "EQ-1", Values: map[string]float64{"age_years": 5}}
	_, err := m.Predict(fv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), "health_score")
}

func TestPredictSanitizesNonFiniteValues(t *testing.T) {
	m := &LinearModel{
		ModelName: "test",
		Features:  []string{"a", "b"},
		Weights:   []float64{1, 1},
		Bias:      0,
		Threshold: 0.5,
	}

	fv := model.FeatureVector{
		EquipmentID: "EQ-1",
		Values:      map[string]float64{"a": math.NaN(), "b": math.Inf(1)},
	}

	// Both values substitute to 0: z = 0, p = 0.5.
	pred, err := m.Predict(fv)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pred.Probability)
	assert.False(t, math.IsNaN(pred.Probability))
}
