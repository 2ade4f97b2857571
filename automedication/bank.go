package automedication

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_bank.yaml
var defaultBankYAML []byte

// BankSubstance is a substance entry of a question bank file
type BankSubstance struct {
	Code  string   `yaml:"code"`
	Name  string   `yaml:"name"`
	Class string   `yaml:"class"`
	Tags  []string `yaml:"tags"`
}

// Bank is the content of a question bank file
type Bank struct {
	Substances []BankSubstance
	Questions  []Question

	// indexes of questions decoded without risk_if_yes
	unscored map[int]bool
}

type bankFile struct {
	Substances []BankSubstance `yaml:"substances"`
	Questions  []bankQuestion  `yaml:"questions"`
}

// bankQuestion keeps risk_if_yes as a pointer so a missing level is not
// read as GREEN
type bankQuestion struct {
	ID            string     `yaml:"id"`
	TextFR        string     `yaml:"text_fr"`
	TextES        string     `yaml:"text_es"`
	TriggerTags   []string   `yaml:"trigger_tags"`
	RiskIfYes     *RiskLevel `yaml:"risk_if_yes"`
	Priority      int        `yaml:"priority"`
	ExplanationFR string     `yaml:"explanation_fr"`
	ExplanationES string     `yaml:"explanation_es"`
}

func (f bankFile) bank() *Bank {
	b := &Bank{
		Substances: f.Substances,
		Questions:  make([]Question, len(f.Questions)),
	}
	for i, q := range f.Questions {
		b.Questions[i] = Question{
			ID:            q.ID,
			TextFR:        q.TextFR,
			TextES:        q.TextES,
			TriggerTags:   q.TriggerTags,
			Priority:      q.Priority,
			ExplanationFR: q.ExplanationFR,
			ExplanationES: q.ExplanationES,
		}
		if q.RiskIfYes == nil {
			if b.unscored == nil {
				b.unscored = make(map[int]bool)
			}
			b.unscored[i] = true
			continue
		}
		b.Questions[i].RiskIfYes = *q.RiskIfYes
	}
	return b
}

// LoadBank decodes and validates a YAML question bank
func LoadBank(r io.Reader) (*Bank, error) {
	var file bankFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return &Bank{}, nil
		}
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	bank := file.bank()
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return bank, nil
}

// LoadBankFile loads a YAML question bank from path
func LoadBankFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()
	return LoadBank(f)
}

// DefaultBank returns the question bank shipped with the binary
func DefaultBank() (*Bank, error) {
	return LoadBank(bytes.NewReader(defaultBankYAML))
}

// Validate checks identifiers, trigger tags and that every decoded question
// has a risk level
func (b *Bank) Validate() error {
	ids := make(map[string]bool, len(b.Questions))
	for i, q := range b.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if ids[q.ID] {
			return fmt.Errorf("question %s: duplicate id", q.ID)
		}
		ids[q.ID] = true
		if strings.TrimSpace(q.TextFR) == "" {
			return fmt.Errorf("question %s: missing text_fr", q.ID)
		}
		if len(q.TriggerTags) == 0 {
			return fmt.Errorf("question %s: no trigger tags", q.ID)
		}
		if b.unscored[i] {
			return fmt.Errorf("question %s: missing risk_if_yes", q.ID)
		}
	}

	codes := make(map[string]bool, len(b.Substances))
	for i, s := range b.Substances {
		if strings.TrimSpace(s.Code) == "" {
			return fmt.Errorf("substance %d: missing code", i)
		}
		if codes[s.Code] {
			return fmt.Errorf("substance %s: duplicate code", s.Code)
		}
		codes[s.Code] = true
	}
	return nil
}
