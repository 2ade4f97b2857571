package drugparser

import (
	"iter"

	"github.com/giygas/automedication-api/drugparser/entities"
)

// GroupSubstances groups composition rows by CIS code. The substances of each
// CIS keep the order in which their rows appear in the source.
func GroupSubstances(rows iter.Seq[entities.CompositionRow]) map[string][]entities.Substance {
	substancesByCis := make(map[string][]entities.Substance)

	for row := range rows {
		substancesByCis[row.Cis] = append(substancesByCis[row.Cis], entities.Substance{
			Code:   row.CodeSubstance,
			Name:   row.DenominationSubstance,
			Dosage: row.Dosage,
		})
	}

	return substancesByCis
}
