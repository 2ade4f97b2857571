package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/data"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/validation"
)

func TestMain(m *testing.M) {
	logging.DefaultLoggingService = &logging.LoggingService{Logger: logging.NewDiscardLogger()}
	os.Exit(m.Run())
}

type mockParser struct {
	drugs  []entities.Drug
	report *entities.BuildReport
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockParser) ParseCatalog(ctx context.Context) (*catalog.Catalog, *entities.BuildReport, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, nil, m.err
	}
	return catalog.New(m.drugs), m.report, nil
}

type mockAnnotations struct {
	byCode map[string]automedication.SubstanceAnnotation
	err    error
}

func (m mockAnnotations) SubstanceAnnotations(ctx context.Context) (map[string]automedication.SubstanceAnnotation, error) {
	return m.byCode, m.err
}

func sampleDrugs() []entities.Drug {
	return []entities.Drug{
		{ID: "60234100", Name: "DOLIPRANE", Substances: []entities.Substance{{Code: "02202", Name: "PARACÉTAMOL"}}},
		{ID: "61234567", Name: "ADVIL", Substances: []entities.Substance{{Code: "01425", Name: "IBUPROFÈNE"}}},
	}
}

func TestRebuildSwapsCatalog(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{drugs: sampleDrugs(), report: &entities.BuildReport{DrugCount: 2}}
	s := NewScheduler(dc, parser, nil, validation.NewDataValidator(), []string{"06:00"})

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild returned %v", err)
	}

	if dc.GetCatalog().Len() != 2 {
		t.Errorf("expected 2 drugs, got %d", dc.GetCatalog().Len())
	}
	if dc.GetBuildReport().DrugCount != 2 {
		t.Error("expected build report to be stored")
	}
	if dc.GetLastUpdated().IsZero() {
		t.Error("expected lastUpdated to be set")
	}
	if dc.IsUpdating() {
		t.Error("update flag should be released")
	}
}

func TestRebuildAnnotatesSubstances(t *testing.T) {
	dc := data.NewDataContainer()
	annotations := mockAnnotations{byCode: map[string]automedication.SubstanceAnnotation{
		"01425": {Code: "01425", Class: "AINS", Tags: []string{"ains", "grossesse_ci"}},
	}}
	s := NewScheduler(dc, &mockParser{drugs: sampleDrugs()}, annotations, validation.NewDataValidator(), nil)

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild returned %v", err)
	}

	advil, ok := dc.GetCatalog().Get("61234567")
	if !ok {
		t.Fatal("ADVIL missing from catalog")
	}
	if advil.Substances[0].Class != "AINS" || len(advil.Substances[0].Tags) != 2 {
		t.Errorf("expected annotated substance, got %+v", advil.Substances[0])
	}

	doliprane, _ := dc.GetCatalog().Get("60234100")
	if doliprane.Substances[0].Class != "" || doliprane.Substances[0].Tags != nil {
		t.Errorf("unknown substance should stay bare, got %+v", doliprane.Substances[0])
	}
}

func TestRebuildKeepsCatalogWhenAnnotationsFail(t *testing.T) {
	dc := data.NewDataContainer()
	annotations := mockAnnotations{err: automedication.ErrStoreUnavailable}
	s := NewScheduler(dc, &mockParser{drugs: sampleDrugs()}, annotations, validation.NewDataValidator(), nil)

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("annotation failure should not fail the rebuild: %v", err)
	}
	if dc.GetCatalog().Len() != 2 {
		t.Errorf("expected bare catalog to be served, got %d drugs", dc.GetCatalog().Len())
	}
}

func TestRebuildParserFailureKeepsPreviousCatalog(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{drugs: sampleDrugs()}
	s := NewScheduler(dc, parser, nil, validation.NewDataValidator(), nil)

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	parser.err = errors.New("registry file unreadable")
	if err := s.Rebuild(context.Background()); err == nil {
		t.Fatal("expected error from failing parser")
	}
	if dc.GetCatalog().Len() != 2 {
		t.Error("previous catalog should still be served")
	}
	if dc.IsUpdating() {
		t.Error("update flag should be released after failure")
	}
}

func TestRebuildSkipsWhenAlreadyRunning(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{drugs: sampleDrugs(), delay: 100 * time.Millisecond}
	s := NewScheduler(dc, parser, nil, validation.NewDataValidator(), nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Rebuild(context.Background())
		}()
	}
	wg.Wait()

	if calls := parser.calls.Load(); calls != 1 {
		t.Errorf("expected a single parse while a rebuild runs, got %d", calls)
	}
}

func TestStartFailsOnInitialBuildError(t *testing.T) {
	s := NewScheduler(data.NewDataContainer(), &mockParser{err: errors.New("boom")}, nil, validation.NewDataValidator(), []string{"06:00"})
	if err := s.Start(); err == nil {
		t.Error("expected Start to fail when the initial build fails")
	}
}

func TestStartAndStop(t *testing.T) {
	dc := data.NewDataContainer()
	s := NewScheduler(dc, &mockParser{drugs: sampleDrugs()}, nil, validation.NewDataValidator(), []string{"06:00", "18:00"})

	if err := s.Start(); err != nil {
		t.Fatalf("Start returned %v", err)
	}
	if dc.GetCatalog().Len() != 2 {
		t.Error("initial build should populate the catalog")
	}

	s.Stop()
	// second Stop must not panic
	s.Stop()
}
