package store

import (
	"encoding/json"
	"fmt"
	"math"
)

// marshalValues encodes a field value as a JSON array for storage.
// NaN and infinities have no JSON form and are rejected.
func marshalValues(v []float64) (string, error) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("marshal values: component %d is %v", i, x)
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues decodes a stored field value.
func unmarshalValues(text string) ([]float64, error) {
	var v []float64
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return v, nil
}
