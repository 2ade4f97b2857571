package handlers

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/data"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/logging"
)

func TestMain(m *testing.M) {
	// rejected inputs are logged at Warn; keep test output readable
	logging.DefaultLoggingService = &logging.LoggingService{Logger: logging.NewDiscardLogger()}
	os.Exit(m.Run())
}

// ============================================================================
// MOCKS
// ============================================================================

type mockRiskService struct {
	tags      map[string][]string
	questions map[string][]automedication.Question
	err       error
	calls     int
}

func (m *mockRiskService) TagsForSubstance(ctx context.Context, code string) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.tags[code], nil
}

func (m *mockRiskService) QuestionsForSubstance(ctx context.Context, code string) ([]automedication.Question, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.questions[code], nil
}

func (m *mockRiskService) Evaluate(ctx context.Context, code string, answers map[string]bool, lang automedication.Language) (automedication.RiskResult, error) {
	m.calls++
	if m.err != nil {
		return automedication.RiskResult{}, m.err
	}
	return automedication.Score(answers, m.questions[code], lang), nil
}

type mockHealthChecker struct {
	status string
	code   int
}

func (m mockHealthChecker) HealthCheck(ctx context.Context) (string, map[string]any, int) {
	return m.status, map[string]any{"drugs": 2}, m.code
}

func (m mockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

var pregnancyQuestion = automedication.Question{
	ID:          "q_pregnancy",
	TextFR:      "Êtes-vous enceinte ?",
	TextES:      "¿Está embarazada?",
	TriggerTags: []string{"grossesse_ci"},
	RiskIfYes:   automedication.Red,
	Priority:    1,

	ExplanationFR: "Contre-indiqué pendant la grossesse.",
	ExplanationES: "Contraindicado durante el embarazo.",
}

var liverQuestion = automedication.Question{
	ID:          "q_liver",
	TextFR:      "Avez-vous une maladie du foie ?",
	TriggerTags: []string{"hepatotoxique"},
	RiskIfYes:   automedication.Orange,
	Priority:    3,
}

func testCatalogStore() *data.DataContainer {
	dc := data.NewDataContainer()
	dc.UpdateCatalog(catalog.New([]entities.Drug{
		{ID: "60234100", Name: "DOLIPRANE", RawName: "DOLIPRANE 1000 mg, comprimé", Substances: []entities.Substance{{Code: "02202", Name: "PARACÉTAMOL", Dosage: "1000 mg"}}},
		{ID: "61234567", Name: "ADVIL", RawName: "ADVIL 200 mg, comprimé enrobé", Substances: []entities.Substance{{Code: "01425", Name: "IBUPROFÈNE", Dosage: "200 mg"}}},
	}), nil)
	return dc
}

func defaultRisk() *mockRiskService {
	return &mockRiskService{
		tags: map[string][]string{
			"01425": {"ains", "grossesse_ci"},
			"02202": {"hepatotoxique"},
		},
		questions: map[string][]automedication.Question{
			"01425": {pregnancyQuestion},
			"02202": {liverQuestion},
		},
	}
}

func newTestHandler(risk *mockRiskService) *HTTPHandlerImpl {
	return NewHTTPHandler(
		testCatalogStore(),
		validatorForTests(),
		risk,
		mockHealthChecker{status: "healthy", code: http.StatusOK},
		1024,
	)
}
