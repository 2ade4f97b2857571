package automedication

import (
	"context"
	"fmt"
)

// TagStore resolves the risk tags of a substance
type TagStore interface {
	SubstanceTags(ctx context.Context, code string) ([]string, error)
}

// QuestionStore returns the question bank in its natural order
type QuestionStore interface {
	Questions(ctx context.Context) ([]Question, error)
}

// Store is the read side of the tag/question store
type Store interface {
	TagStore
	QuestionStore
}

// Service answers tag, question and scoring requests from a Store.
// Every call reads the store; nothing is cached.
type Service struct {
	store Store
}

// NewService creates a service over store
func NewService(store Store) *Service {
	return &Service{store: store}
}

// TagsForSubstance returns the tag set of code. An unknown substance has an
// empty tag set.
func (s *Service) TagsForSubstance(ctx context.Context, code string) ([]string, error) {
	tags, err := s.store.SubstanceTags(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("tags for substance %s: %w", code, err)
	}
	return uniq(tags), nil
}

// SelectQuestions returns the questions triggered by tags, by priority.
// The store is not queried when tags is empty.
func (s *Service) SelectQuestions(ctx context.Context, tags []string) ([]Question, error) {
	if len(tags) == 0 {
		return []Question{}, nil
	}

	bank, err := s.store.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return SelectQuestions(tags, bank), nil
}

// QuestionsForSubstance chains TagsForSubstance and SelectQuestions
func (s *Service) QuestionsForSubstance(ctx context.Context, code string) ([]Question, error) {
	tags, err := s.TagsForSubstance(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.SelectQuestions(ctx, tags)
}

// Evaluate selects the questions of code and scores answers against them
func (s *Service) Evaluate(ctx context.Context, code string, answers map[string]bool, lang Language) (RiskResult, error) {
	questions, err := s.QuestionsForSubstance(ctx, code)
	if err != nil {
		return RiskResult{}, err
	}
	return Score(answers, questions, lang), nil
}
