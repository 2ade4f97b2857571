package automedication

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func seededStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory returned %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	bank, err := DefaultBank()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SeedBank(context.Background(), bank); err != nil {
		t.Fatalf("SeedBank returned %v", err)
	}
	return store
}

func TestStoreSubstanceTags(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tags, err := store.SubstanceTags(ctx, "01425")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"ains", "grossesse_ci", "antalgique"}; !reflect.DeepEqual(tags, want) {
		t.Errorf("expected %v, got %v", want, tags)
	}

	tags, err = store.SubstanceTags(ctx, "99999")
	if err != nil {
		t.Fatalf("unknown code returned %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("unknown code should have no tags, got %v", tags)
	}
}

func TestStoreQuestionsKeepBankOrder(t *testing.T) {
	store := seededStore(t)

	questions, err := store.Questions(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"q_pregnancy", "q_anticoagulant", "q_ulcer", "q_liver", "q_other_painkiller", "q_interactions"}
	if ids := questionIDs(questions); !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}

	q := questions[1]
	if q.RiskIfYes != Red || q.Priority != 2 || !reflect.DeepEqual(q.TriggerTags, []string{"anticoagulant", "ains"}) {
		t.Errorf("q_anticoagulant did not round-trip: %+v", q)
	}
	if q.TextES == "" || q.ExplanationFR == "" {
		t.Errorf("localized fields lost: %+v", q)
	}
}

func TestStoreSubstanceAnnotations(t *testing.T) {
	store := seededStore(t)

	byCode, err := store.SubstanceAnnotations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(byCode) != 5 {
		t.Errorf("expected 5 substances, got %d", len(byCode))
	}

	a := byCode["24321"]
	if a.Name != "RIVAROXABAN" || a.Class != "anticoagulant" || !reflect.DeepEqual(a.Tags, []string{"anticoagulant"}) {
		t.Errorf("unexpected annotation %+v", a)
	}
}

func TestStoreReseedReplacesQuestions(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	bank := &Bank{
		Substances: []BankSubstance{{Code: "02202", Name: "PARACÉTAMOL", Class: "antalgique", Tags: []string{"hepatotoxique", "", "hepatotoxique"}}},
		Questions: []Question{
			{ID: "q_only", TextFR: "Seule ?", TriggerTags: []string{"hepatotoxique"}, RiskIfYes: Orange, Priority: 1},
		},
	}
	if err := store.SeedBank(ctx, bank); err != nil {
		t.Fatal(err)
	}

	questions, err := store.Questions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ids := questionIDs(questions); !reflect.DeepEqual(ids, []string{"q_only"}) {
		t.Errorf("old questions survived a reseed: %v", ids)
	}

	tags, err := store.SubstanceTags(ctx, "02202")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tags, []string{"hepatotoxique"}) {
		t.Errorf("expected deduplicated tags, got %v", tags)
	}

	// substances absent from the new bank are kept
	if tags, _ := store.SubstanceTags(ctx, "01425"); len(tags) == 0 {
		t.Error("upsert should not remove other substances")
	}
}

func TestStoreClosedIsUnavailable(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
	ctx := context.Background()

	if err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Ping: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.SubstanceTags(ctx, "01425"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("SubstanceTags: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Questions(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Questions: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestOpenStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automedication.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore returned %v", err)
	}
	bank, _ := DefaultBank()
	if err := store.SeedBank(context.Background(), bank); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if reopened.Path() != path {
		t.Errorf("expected path %s, got %s", path, reopened.Path())
	}
	questions, err := reopened.Questions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 6 {
		t.Errorf("expected questions to persist, got %d", len(questions))
	}
}
