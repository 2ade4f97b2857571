package entities

// HeaderRow is one line of CIS_bdpm.txt reduced to the columns the catalog uses.
type HeaderRow struct {
	Cis  string
	Name string
}

// CompositionRow is one line of CIS_COMPO_bdpm.txt.
type CompositionRow struct {
	Cis                   string
	ElementPharmaceutique string
	CodeSubstance         string
	DenominationSubstance string
	Dosage                string
}

// DuplicateRecord describes a registry entry dropped during deduplication
// because an earlier entry already claimed the same brand and composition.
type DuplicateRecord struct {
	Name             string `json:"nom"`
	Signature        string `json:"signature"`
	KeptID           string `json:"keptCis"`
	DiscardedID      string `json:"discardedCis"`
	KeptRawName      string `json:"keptDenomination"`
	DiscardedRawName string `json:"discardedDenomination"`
}
