package automedication

import "sort"

// SelectQuestions returns the questions of bank triggered by at least one of
// tags, sorted by ascending priority. Questions with equal priority keep their
// order in bank.
func SelectQuestions(tags []string, bank []Question) []Question {
	selected := []Question{}
	if len(tags) == 0 {
		return selected
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	for _, q := range bank {
		if q.Triggers(tagSet) {
			selected = append(selected, q)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Priority < selected[j].Priority
	})

	return selected
}
