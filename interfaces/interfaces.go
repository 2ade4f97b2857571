// Package interfaces defines core abstractions for the automedication API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/drugparser/entities"
)

// DataQualityReport provides a summary of data quality issues of a catalog build
type DataQualityReport struct {
	DrugCount                 int
	DrugsWithoutSubstances    int
	DrugsWithoutSubstancesCIS []string
	DiscardedDuplicates       int
	// Duplicates whose raw names differ, i.e. where dropping one may lose information
	DivergentDuplicates []entities.DuplicateRecord
	MissingSources      []string
}

// DataStore defines the contract for catalog storage.
// Readers get whichever snapshot is current; updates swap the whole catalog.
type DataStore interface {
	GetCatalog() *catalog.Catalog
	GetBuildReport() *entities.BuildReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateCatalog(c *catalog.Catalog, report *entities.BuildReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for building a catalog from the registry files.
type Parser interface {
	ParseCatalog(ctx context.Context) (*catalog.Catalog, *entities.BuildReport, error)
}

// AnnotationSource provides the class and tags stored for each substance.
type AnnotationSource interface {
	SubstanceAnnotations(ctx context.Context) (map[string]automedication.SubstanceAnnotation, error)
}

// RiskService defines the self-medication operations exposed over HTTP.
type RiskService interface {
	TagsForSubstance(ctx context.Context, code string) ([]string, error)
	QuestionsForSubstance(ctx context.Context, code string) ([]automedication.Question, error)
	Evaluate(ctx context.Context, code string, answers map[string]bool, lang automedication.Language) (automedication.RiskResult, error)
}

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scheduler defines the contract for catalog rebuild scheduling.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	SearchDrugs(w http.ResponseWriter, r *http.Request)
	FindDrugByID(w http.ResponseWriter, r *http.Request)
	SubstanceTags(w http.ResponseWriter, r *http.Request)
	SubstanceQuestions(w http.ResponseWriter, r *http.Request)
	EvaluateRisk(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, the details to report and the HTTP code
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled rebuild time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for input and data validation.
type DataValidator interface {
	// ValidateInput validates a search query
	ValidateInput(input string) error

	// ValidateDrugID validates a CIS code
	ValidateDrugID(input string) error

	// ValidateSubstanceCode validates a substance code
	ValidateSubstanceCode(input string) error

	// ValidateAnswers validates the answer map of an evaluation request
	ValidateAnswers(answers map[string]bool) error

	// ReportDataQuality generates a data quality report for a catalog build
	ReportDataQuality(drugs []entities.Drug, report *entities.BuildReport) *DataQualityReport
}
