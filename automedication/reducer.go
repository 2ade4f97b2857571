package automedication

// TriggeredRisk records a question answered "yes"
type TriggeredRisk struct {
	QuestionID  string    `json:"question_id"`
	Question    string    `json:"question"`
	Risk        RiskLevel `json:"risk"`
	Explanation string    `json:"explanation"`
}

// RiskResult is the outcome of an evaluation
type RiskResult struct {
	Score                 RiskLevel       `json:"score"`
	RiskLevel             int             `json:"risk_level"`
	TriggeredRisks        []TriggeredRisk `json:"triggered_risks"`
	SafeForSelfMedication bool            `json:"safe_for_self_medication"`
}

// Score folds the answers over questions in order. A question counts only
// when its id is present in answers with the value true; missing answers are
// treated as "no". Every "yes" is recorded in TriggeredRisks, and the score is
// the highest RiskIfYes among them, GREEN when there is none.
func Score(answers map[string]bool, questions []Question, lang Language) RiskResult {
	result := RiskResult{
		Score:          Green,
		RiskLevel:      Green.Weight(),
		TriggeredRisks: []TriggeredRisk{},
	}

	for _, q := range questions {
		if !answers[q.ID] {
			continue
		}

		if q.RiskIfYes > result.Score {
			result.Score = q.RiskIfYes
			result.RiskLevel = q.RiskIfYes.Weight()
		}

		result.TriggeredRisks = append(result.TriggeredRisks, TriggeredRisk{
			QuestionID:  q.ID,
			Question:    q.Text(lang),
			Risk:        q.RiskIfYes,
			Explanation: q.Explanation(lang),
		})
	}

	result.SafeForSelfMedication = result.Score == Green
	return result
}
