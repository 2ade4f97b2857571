package entities

// Substance is an active ingredient listed in a registry composition row.
type Substance struct {
	Code   string   `json:"codeSubstance"`
	Name   string   `json:"denominationSubstance"`
	Dosage string   `json:"dosage"`
	Class  string   `json:"classeTherapeutique,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}
