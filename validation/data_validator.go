// Package validation provides input validation and data quality reporting
// for the automedication API.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/interfaces"
)

const (
	maxQueryLength  = 50
	maxQueryWords   = 6
	maxCodeLength   = 20
	maxAnswers      = 100
	maxAnswerKeyLen = 64
	// how many CIS to keep in list fields of the report
	reportSampleSize = 10
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// letters (with French and Spanish accents), digits, spaces and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{Latin}0-9\s\-\.\+',%/]+$`)

	codeRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

	answerKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

	// strings.Contains is faster than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		"; ", "| ", "& ", "`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
	}
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidatorImpl {
	return &DataValidatorImpl{}
}

// ValidateInput validates a search query. One non-blank character is enough.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > maxQueryLength {
		return fmt.Errorf("input too long: maximum %d characters", maxQueryLength)
	}

	if len(strings.Fields(input)) > maxQueryWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxQueryWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, commas, plus, slash and percent signs are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateDrugID validates a CIS code
func (v *DataValidatorImpl) ValidateDrugID(input string) error {
	return validateCode(input, "CIS")
}

// ValidateSubstanceCode validates a substance code
func (v *DataValidatorImpl) ValidateSubstanceCode(input string) error {
	return validateCode(input, "substance code")
}

func validateCode(input, label string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%s cannot be empty", label)
	}
	if len(input) > maxCodeLength {
		return fmt.Errorf("%s too long: maximum %d characters", label, maxCodeLength)
	}
	if !codeRegex.MatchString(input) {
		return fmt.Errorf("%s contains invalid characters. Only letters and numbers are allowed", label)
	}
	return nil
}

// ValidateAnswers validates the answers of an evaluation request
func (v *DataValidatorImpl) ValidateAnswers(answers map[string]bool) error {
	if len(answers) > maxAnswers {
		return fmt.Errorf("too many answers: maximum %d allowed", maxAnswers)
	}
	for id := range answers {
		if id == "" {
			return fmt.Errorf("answer with empty question id")
		}
		if len(id) > maxAnswerKeyLen {
			return fmt.Errorf("question id too long: maximum %d characters", maxAnswerKeyLen)
		}
		if !answerKeyRegex.MatchString(id) {
			return fmt.Errorf("question id %q contains invalid characters", id)
		}
	}
	return nil
}

// ReportDataQuality summarizes a catalog build
func (v *DataValidatorImpl) ReportDataQuality(drugs []entities.Drug, report *entities.BuildReport) *interfaces.DataQualityReport {
	quality := &interfaces.DataQualityReport{
		DrugCount:                 len(drugs),
		DrugsWithoutSubstancesCIS: []string{},
		DivergentDuplicates:       []entities.DuplicateRecord{},
		MissingSources:            []string{},
	}

	for _, d := range drugs {
		if len(d.Substances) == 0 {
			quality.DrugsWithoutSubstances++
			if len(quality.DrugsWithoutSubstancesCIS) < reportSampleSize {
				quality.DrugsWithoutSubstancesCIS = append(quality.DrugsWithoutSubstancesCIS, d.ID)
			}
		}
	}

	if report == nil {
		return quality
	}

	quality.DiscardedDuplicates = len(report.Duplicates)
	quality.MissingSources = append(quality.MissingSources, report.MissingSources...)

	for _, dup := range report.Duplicates {
		if !strings.EqualFold(dup.KeptRawName, dup.DiscardedRawName) {
			quality.DivergentDuplicates = append(quality.DivergentDuplicates, dup)
		}
	}

	return quality
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
