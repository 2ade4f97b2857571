package entities

// Drug is a brand-level catalog entry. Several registry entries that share the
// same canonical name and substance signature collapse into a single Drug.
type Drug struct {
	ID         string      `json:"cis"`
	Name       string      `json:"nom"`
	RawName    string      `json:"denomination"`
	Substances []Substance `json:"substances"`
}
