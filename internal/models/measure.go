package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Measure is a numeric value that may be absent. The zero value is absent,
// which keeps "not measured" distinct from a measured zero.
type Measure struct {
	Value float64
	Valid bool
}

// Some returns a present Measure holding v.
func Some(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// None returns an absent Measure.
func None() Measure {
	return Measure{}
}

// Get returns the value and whether it is present.
func (m Measure) Get() (float64, bool) {
	return m.Value, m.Valid
}

func (m Measure) String() string {
	if !m.Valid {
		return "none"
	}
	return fmt.Sprintf("%g", m.Value)
}

// MarshalJSON encodes an absent Measure as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Measure{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode measure: %w", err)
	}
	*m = Some(v)
	return nil
}

func (m *Measure) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*m = Measure{}
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("decode measure: %w", err)
	}
	*m = Some(v)
	return nil
}
