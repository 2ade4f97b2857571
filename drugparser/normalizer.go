package drugparser

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTargetDrugs is the list of brands kept in the catalog
var DefaultTargetDrugs = []string{
	"DOLIPRANE", "CODOLIPRANE", "ADVIL", "KARDEGIC", "PREVISCAN", "XARELTO",
	"TAHOR", "CLAMOXYL", "AUGMENTIN", "SPASFON", "VENTOLINE",
	"LASILIX", "INEXIUM", "PLAVIX", "LEVOTHYROX", "MILLEPERTUIS",
}

// Normalizer maps raw registry denominations to canonical brand names.
type Normalizer struct {
	// longest first, so CODOLIPRANE is tested before DOLIPRANE
	targets []string
}

// NewNormalizer creates a normalizer for the given brand list.
// Brands are upper-cased, deduplicated and sorted by decreasing length.
func NewNormalizer(targets []string) *Normalizer {
	seen := make(map[string]bool, len(targets))
	sorted := make([]string, 0, len(targets))

	for _, t := range targets {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		sorted = append(sorted, t)
	}

	sort.Slice(sorted, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(sorted[i]), utf8.RuneCountInString(sorted[j])
		if li != lj {
			return li > lj
		}
		return sorted[i] < sorted[j]
	})

	return &Normalizer{targets: sorted}
}

// Targets returns the brand list in matching order
func (n *Normalizer) Targets() []string {
	return append([]string(nil), n.targets...)
}

// Match returns the longest brand contained in rawName, ignoring case
func (n *Normalizer) Match(rawName string) (string, bool) {
	folded := strings.ToUpper(rawName)
	for _, target := range n.targets {
		if strings.Contains(folded, target) {
			return target, true
		}
	}
	return "", false
}

// Normalize returns the canonical brand for rawName. When no brand matches,
// the leading run of letters is used instead, or the whole name if it does
// not start with a letter.
func (n *Normalizer) Normalize(rawName string) string {
	if brand, ok := n.Match(rawName); ok {
		return brand
	}
	return fallbackName(rawName)
}

func fallbackName(rawName string) string {
	trimmed := strings.TrimSpace(rawName)
	if trimmed == "" {
		// blank input still yields a key distinct from ""
		return strings.ToUpper(rawName)
	}

	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return !isLatinLetter(r)
	})

	switch end {
	case -1:
		return strings.ToUpper(trimmed)
	case 0:
		// "3M ..." and friends: nothing to cut on
		return strings.ToUpper(trimmed)
	default:
		return strings.TrimSpace(strings.ToUpper(trimmed[:end]))
	}
}

func isLatinLetter(r rune) bool {
	return unicode.IsLetter(r) && unicode.Is(unicode.Latin, r)
}
