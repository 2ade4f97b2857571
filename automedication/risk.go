// Package automedication selects self-medication questions for a substance
// and reduces the patient's answers to a risk score.
package automedication

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RiskLevel is an ordinal risk whose value is its score weight
type RiskLevel int

const (
	Green  RiskLevel = 0
	Orange RiskLevel = 5
	Red    RiskLevel = 10
)

// Weight returns the numeric score of the level
func (l RiskLevel) Weight() int {
	return int(l)
}

func (l RiskLevel) String() string {
	switch l {
	case Green:
		return "GREEN"
	case Orange:
		return "ORANGE"
	case Red:
		return "RED"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// Valid reports whether l is one of the defined levels
func (l RiskLevel) Valid() bool {
	return l == Green || l == Orange || l == Red
}

// ParseRiskLevel parses GREEN, ORANGE or RED, ignoring case
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GREEN":
		return Green, nil
	case "ORANGE":
		return Orange, nil
	case "RED":
		return Red, nil
	}
	return Green, fmt.Errorf("unknown risk level %q", s)
}

func (l RiskLevel) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", l)
	}
	return json.Marshal(l.String())
}

func (l *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("risk level must be a string: %w", err)
	}
	parsed, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l *RiskLevel) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseRiskLevel(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*l = parsed
	return nil
}

func (l RiskLevel) MarshalYAML() (any, error) {
	return l.String(), nil
}
