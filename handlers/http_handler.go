// Package handlers serves the drug catalog and the automedication
// questionnaire over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/interfaces"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/metrics"
	"github.com/go-chi/chi/v5"
)

var (
	_ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)
	_ interfaces.RiskService = (*automedication.Service)(nil)
)

// HTTPHandlerImpl implements interfaces.HTTPHandler
type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.DataValidator
	risk      interfaces.RiskService
	health    interfaces.HealthChecker
	maxBody   int64
}

// NewHTTPHandler creates a handler. maxBody bounds the size of POST bodies.
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, risk interfaces.RiskService, health interfaces.HealthChecker, maxBody int64) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
		risk:      risk,
		health:    health,
		maxBody:   maxBody,
	}
}

// SearchResponse is returned by GET /v1/drugs/search
type SearchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []entities.Drug `json:"results"`
}

// TagsResponse is returned by GET /v1/substances/{code}/tags
type TagsResponse struct {
	SubstanceCode string   `json:"substance_code"`
	Tags          []string `json:"tags"`
}

// QuestionView is a question localized for the client
type QuestionView struct {
	ID          string                   `json:"id"`
	Text        string                   `json:"text"`
	TriggerTags []string                 `json:"trigger_tags"`
	RiskIfYes   automedication.RiskLevel `json:"risk_if_yes"`
	Priority    int                      `json:"priority"`
	Explanation string                   `json:"explanation,omitempty"`
}

// QuestionsResponse is returned by GET /v1/substances/{code}/questions
type QuestionsResponse struct {
	SubstanceCode string         `json:"substance_code"`
	Language      string         `json:"lang"`
	Questions     []QuestionView `json:"questions"`
}

// EvaluateRequest is the body of POST /v1/automedication/score
type EvaluateRequest struct {
	SubstanceCode string          `json:"substance_code"`
	Answers       map[string]bool `json:"answers"`
	Lang          string          `json:"lang"`
}

// SearchDrugs returns the catalog entries whose name or substances contain q
func (h *HTTPHandlerImpl) SearchDrugs(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := h.validator.ValidateInput(query); err != nil {
		logging.Warn("Rejected search query", "query", query, "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.dataStore.GetCatalog().Search(query)
	RespondWithJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

// FindDrugByID returns one catalog entry by CIS
func (h *HTTPHandlerImpl) FindDrugByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateDrugID(id); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	drug, ok := h.dataStore.GetCatalog().Get(id)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Drug not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, drug)
}

// SubstanceTags returns the risk tags of a substance
func (h *HTTPHandlerImpl) SubstanceTags(w http.ResponseWriter, r *http.Request) {
	code, ok := h.substanceCode(w, r)
	if !ok {
		return
	}

	tags, err := h.risk.TagsForSubstance(r.Context(), code)
	if err != nil {
		h.storeFailure(w, "tags", err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	RespondWithJSON(w, http.StatusOK, TagsResponse{SubstanceCode: code, Tags: tags})
}

// SubstanceQuestions returns the questions to ask before taking a substance
func (h *HTTPHandlerImpl) SubstanceQuestions(w http.ResponseWriter, r *http.Request) {
	code, ok := h.substanceCode(w, r)
	if !ok {
		return
	}

	lang, err := automedication.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := h.risk.QuestionsForSubstance(r.Context(), code)
	if err != nil {
		h.storeFailure(w, "questions", err)
		return
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, QuestionView{
			ID:          q.ID,
			Text:        q.Text(lang),
			TriggerTags: q.TriggerTags,
			RiskIfYes:   q.RiskIfYes,
			Priority:    q.Priority,
			Explanation: q.Explanation(lang),
		})
	}
	RespondWithJSON(w, http.StatusOK, QuestionsResponse{
		SubstanceCode: code,
		Language:      string(lang),
		Questions:     views,
	})
}

// EvaluateRisk scores the answers given for a substance
func (h *HTTPHandlerImpl) EvaluateRisk(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req EvaluateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.ValidateSubstanceCode(req.SubstanceCode); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateAnswers(req.Answers); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang, err := automedication.ParseLanguage(req.Lang)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.risk.Evaluate(r.Context(), req.SubstanceCode, req.Answers, lang)
	if err != nil {
		h.storeFailure(w, "evaluate", err)
		return
	}

	metrics.RiskEvaluationsTotal.WithLabelValues(result.Score.String()).Inc()
	RespondWithJSON(w, http.StatusOK, result)
}

// HealthCheck reports catalog and store health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.health.HealthCheck(r.Context())
	RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   details,
	})
}

func (h *HTTPHandlerImpl) substanceCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := chi.URLParam(r, "code")
	if err := h.validator.ValidateSubstanceCode(code); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return code, true
}

// storeFailure maps store errors to 503 and anything else to 500
func (h *HTTPHandlerImpl) storeFailure(w http.ResponseWriter, operation string, err error) {
	metrics.StoreErrorsTotal.WithLabelValues(operation).Inc()
	logging.Error("Automedication store request failed", "operation", operation, "error", err)

	if errors.Is(err, automedication.ErrStoreUnavailable) {
		RespondWithError(w, http.StatusServiceUnavailable, "Question store unavailable")
		return
	}
	RespondWithError(w, http.StatusInternalServerError, "Could not process the request")
}
