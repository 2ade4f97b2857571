package automedication

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrStoreUnavailable wraps failures of the underlying tag/question store
var ErrStoreUnavailable = errors.New("automedication store unavailable")

// SubstanceAnnotation is the stored metadata of a substance
type SubstanceAnnotation struct {
	Code  string
	Name  string
	Class string
	Tags  []string
}

// SQLiteStore keeps substance tags and the question bank in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenStore opens or creates the SQLite database at dbPath
func OpenStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newStore(db, dbPath)
}

// OpenMemory opens an in-memory store (for testing)
func OpenMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	return newStore(db, ":memory:")
}

func newStore(db *sql.DB, dbPath string) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS substances (
		code_sub TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS automedication_questions (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		text_fr TEXT NOT NULL,
		text_es TEXT NOT NULL DEFAULT '',
		trigger_tags TEXT NOT NULL DEFAULT '[]',
		risk_if_yes TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		explanation_fr TEXT NOT NULL DEFAULT '',
		explanation_es TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_questions_seq ON automedication_questions(seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Ping checks that the database answers
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// SubstanceTags returns the tags stored for code. An unknown code has no tags.
func (s *SQLiteStore) SubstanceTags(ctx context.Context, code string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT tags FROM substances WHERE code_sub = ?", code).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query tags for %s: %w", ErrStoreUnavailable, code, err)
	}

	tags, err := decodeTags(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", code, err)
	}
	return tags, nil
}

// SubstanceAnnotations returns every stored substance keyed by code
func (s *SQLiteStore) SubstanceAnnotations(ctx context.Context) (map[string]SubstanceAnnotation, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code_sub, name, class, tags FROM substances")
	if err != nil {
		return nil, fmt.Errorf("%w: query substances: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	annotations := make(map[string]SubstanceAnnotation)
	for rows.Next() {
		var a SubstanceAnnotation
		var raw string
		if err := rows.Scan(&a.Code, &a.Name, &a.Class, &raw); err != nil {
			return nil, fmt.Errorf("%w: scan substance: %w", ErrStoreUnavailable, err)
		}
		if a.Tags, err = decodeTags(raw); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", a.Code, err)
		}
		annotations[a.Code] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return annotations, nil
}

// Questions returns the whole question bank in load order
func (s *SQLiteStore) Questions(ctx context.Context) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text_fr, text_es, trigger_tags, risk_if_yes, priority, explanation_fr, explanation_es
		FROM automedication_questions
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query questions: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		var rawTags, rawRisk string
		if err := rows.Scan(&q.ID, &q.TextFR, &q.TextES, &rawTags, &rawRisk, &q.Priority, &q.ExplanationFR, &q.ExplanationES); err != nil {
			return nil, fmt.Errorf("%w: scan question: %w", ErrStoreUnavailable, err)
		}
		if q.TriggerTags, err = decodeTags(rawTags); err != nil {
			return nil, fmt.Errorf("decode trigger tags for %s: %w", q.ID, err)
		}
		if q.RiskIfYes, err = ParseRiskLevel(rawRisk); err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return questions, nil
}

// SeedBank replaces the question bank and upserts the substances of bank in
// a single transaction
func (s *SQLiteStore) SeedBank(ctx context.Context, bank *Bank) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := seedTx(ctx, tx, bank); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func seedTx(ctx context.Context, tx *sql.Tx, bank *Bank) error {
	for _, sub := range bank.Substances {
		tags, err := json.Marshal(uniq(sub.Tags))
		if err != nil {
			return fmt.Errorf("encode tags for %s: %w", sub.Code, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO substances (code_sub, name, class, tags) VALUES (?, ?, ?, ?)
			ON CONFLICT(code_sub) DO UPDATE SET name = excluded.name, class = excluded.class, tags = excluded.tags`,
			sub.Code, sub.Name, sub.Class, string(tags))
		if err != nil {
			return fmt.Errorf("upsert substance %s: %w", sub.Code, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM automedication_questions"); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for i, q := range bank.Questions {
		tags, err := json.Marshal(uniq(q.TriggerTags))
		if err != nil {
			return fmt.Errorf("encode trigger tags for %s: %w", q.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO automedication_questions
				(id, seq, text_fr, text_es, trigger_tags, risk_if_yes, priority, explanation_fr, explanation_es)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, i, q.TextFR, q.TextES, string(tags), q.RiskIfYes.String(), q.Priority, q.ExplanationFR, q.ExplanationES)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return uniq(tags), nil
}

// uniq drops empty and repeated tags, keeping first occurrences
func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
