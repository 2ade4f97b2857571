package drugparser

import (
	"iter"
	"slices"
	"strings"

	"github.com/giygas/automedication-api/drugparser/entities"
)

// drugKey identifies a brand-level drug. Codes are joined with a NUL byte so
// a code containing '-' or '_' cannot collide with another composition.
type drugKey struct {
	name  string
	codes string
}

// DedupResult is the output of Deduplicate
type DedupResult struct {
	Drugs      []entities.Drug
	Duplicates []entities.DuplicateRecord
	// Rows whose name matched no target brand
	Skipped int
}

// Signature returns the sorted, hyphen-joined substance codes of substances.
// An empty composition has an empty signature.
func Signature(substances []entities.Substance) string {
	return strings.Join(sortedCodes(substances), "-")
}

func sortedCodes(substances []entities.Substance) []string {
	codes := make([]string, len(substances))
	for i, s := range substances {
		codes[i] = s.Code
	}
	slices.Sort(codes)
	return codes
}

// Deduplicate keeps the header rows whose name contains a target brand and
// merges rows sharing the same brand and substance signature. The first row
// seen for a key wins; later rows with the same key are reported in
// Duplicates and never modify the kept drug. Drugs are returned in the order
// their key was first seen.
func Deduplicate(headers iter.Seq[entities.HeaderRow], substancesByCis map[string][]entities.Substance, n *Normalizer) DedupResult {
	var result DedupResult
	index := make(map[drugKey]int)

	for row := range headers {
		name, ok := n.Match(row.Name)
		if !ok {
			result.Skipped++
			continue
		}

		substances := substancesByCis[row.Cis]
		codes := sortedCodes(substances)
		key := drugKey{name: name, codes: strings.Join(codes, "\x00")}

		if i, exists := index[key]; exists {
			kept := result.Drugs[i]
			result.Duplicates = append(result.Duplicates, entities.DuplicateRecord{
				Name:             name,
				Signature:        strings.Join(codes, "-"),
				KeptID:           kept.ID,
				DiscardedID:      row.Cis,
				KeptRawName:      kept.RawName,
				DiscardedRawName: row.Name,
			})
			continue
		}

		index[key] = len(result.Drugs)
		result.Drugs = append(result.Drugs, entities.Drug{
			ID:         row.Cis,
			Name:       name,
			RawName:    row.Name,
			Substances: append([]entities.Substance{}, substances...),
		})
	}

	return result
}
