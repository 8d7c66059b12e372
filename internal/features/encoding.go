package features

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"fleet-maintenance-backend/internal/model"
)

// Encoding field names for the string-valued categorical features.
const (
	FieldCategory = "category"
	FieldBrand    = "brand"
	FieldLocation = "location"
)

// Encoding is the versioned categorical lookup table. It is built once from
// sorted distinct values so that codes are reproducible across runs, and it
// can be persisted next to the model artifacts so that codes stay stable even
// when a later roster contains a different subset of values.
type Encoding struct {
	Version string                    `json:"version"`
	Fields  map[string]map[string]int `json:"fields"`
}

// BuildEncoding derives an encoding table from the distinct categorical
// values observed in the roster, sorted lexicographically per field.
func BuildEncoding(equipment []model.Equipment) *Encoding {
	distinct := map[string]map[string]struct{}{
		FieldCategory: {},
		FieldBrand:    {},
		FieldLocation: {},
	}
	for _, eq := range equipment {
		distinct[FieldCategory][eq.Category] = struct{}{}
		distinct[FieldBrand][eq.Brand] = struct{}{}
		distinct[FieldLocation][eq.Location] = struct{}{}
	}

	enc := &Encoding{Version: "derived", Fields: make(map[string]map[string]int, len(distinct))}
	for field, values := range distinct {
		sorted := make([]string, 0, len(values))
		for v := range values {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)
		codes := make(map[string]int, len(sorted))
		for i, v := range sorted {
			codes[v] = i
		}
		enc.Fields[field] = codes
	}
	return enc
}

// LoadEncoding reads a persisted encoding table.
func LoadEncoding(path string) (*Encoding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoding table: %w", err)
	}
	var enc Encoding
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encoding table: %w", err)
	}
	if len(enc.Fields) == 0 {
		return nil, fmt.Errorf("encoding table %s has no fields: %w", path, model.ErrConfiguration)
	}
	return &enc, nil
}

// Save persists the encoding table alongside the model artifacts.
func (e *Encoding) Save(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encoding table: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Code returns the integer code for a field value. Values the table has
// never seen map to -1 so they are distinguishable from every real code.
func (e *Encoding) Code(field, value string) int {
	codes, ok := e.Fields[field]
	if !ok {
		return -1
	}
	code, ok := codes[value]
	if !ok {
		return -1
	}
	return code
}
