// Package classifier wraps the pre-trained, pre-serialized binary
// classifiers the pipeline consumes. No training happens here: an adapter's
// only responsibilities are input-shape validation against the loaded
// artifact and numeric sanitization of individual feature values.
package classifier

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"fleet-maintenance-backend/internal/model"
)

// Prediction is one classifier verdict for one unit.
type Prediction struct {
	Flag        bool
	Probability float64
}

// BinaryClassifier is the common capability of both pipeline stages. The
// screening and prioritization models are just two instances composed
// sequentially, never hard-coded by concrete type.
type BinaryClassifier interface {
	Name() string
	FeatureCount() int
	Predict(fv model.FeatureVector) (Prediction, error)
}

// LinearModel is a serialized logistic model: a named weight per feature, a
// bias and a decision threshold. The feature list doubles as the expected
// input shape.
type LinearModel struct {
	ModelName string    `json:"name"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"`
}

// Load reads a model artifact from disk. A malformed artifact is a
// deployment defect, so every validation failure wraps ErrConfiguration.
func Load(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model artifact %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	log.Printf("Loaded model %q from %s (%d features, threshold %.2f)", m.ModelName, path, len(m.Features), m.Threshold)
	return &m, nil
}

func (m *LinearModel) validate() error {
	if m.ModelName == "" {
		return fmt.Errorf("artifact has no name: %w", model.ErrConfiguration)
	}
	if len(m.Features) == 0 {
		return fmt.Errorf("artifact lists no features: %w", model.ErrConfiguration)
	}
	if len(m.Weights) != len(m.Features) {
		return fmt.Errorf("artifact has %d weights for %d features: %w", len(m.Weights), len(m.Features), model.ErrConfiguration)
	}
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("artifact threshold %v outside [0,1]: %w", m.Threshold, model.ErrConfiguration)
	}
	return nil
}

// Name returns the artifact name.
func (m *LinearModel) Name() string { return m.ModelName }

// FeatureCount returns the size of the input shape the model expects.
func (m *LinearModel) FeatureCount() int { return len(m.Features) }

// Predict runs inference on one feature vector. A feature the model expects
// but the vector lacks is a shape mismatch and therefore fatal; a NaN or
// infinite value is substituted with 0 and logged so one bad unit cannot
// crash the run.
func (m *LinearModel) Predict(fv model.FeatureVector) (Prediction, error) {
	z := m.Bias
	for i, name := range m.Features {
		v, ok := fv.Get(name)
		if !ok {
			return Prediction{}, fmt.Errorf("model %q expects feature %q absent from vector for %s: %w",
				m.ModelName, name, fv.EquipmentID, model.ErrConfiguration)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			log.Printf("Warning: model %q: non-finite value for feature %q of %s, substituting 0", m.ModelName, name, fv.EquipmentID)
			v = 0
		}
		z += m.Weights[i] * v
	}
	p := sigmoid(z)
	return Prediction{Flag: p >= m.Threshold, Probability: p}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
