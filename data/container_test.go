package data

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/drugparser/entities"
)

func sampleCatalog(names ...string) *catalog.Catalog {
	drugs := make([]entities.Drug, 0, len(names))
	for i, name := range names {
		drugs = append(drugs, entities.Drug{
			ID:         string(rune('1'+i)) + "0000000",
			Name:       name,
			Substances: []entities.Substance{{Code: "02202", Name: "PARACÉTAMOL"}},
		})
	}
	return catalog.New(drugs)
}

func TestNewDataContainer(t *testing.T) {
	dc := NewDataContainer()

	if dc.IsUpdating() {
		t.Error("NewDataContainer should not be updating")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("NewDataContainer should have zero lastUpdated time")
	}
	if dc.GetCatalog() == nil || dc.GetCatalog().Len() != 0 {
		t.Error("NewDataContainer should hold an empty, non-nil catalog")
	}
	if dc.GetBuildReport() == nil {
		t.Error("NewDataContainer should hold a non-nil build report")
	}
}

func TestUpdateCatalog(t *testing.T) {
	dc := NewDataContainer()
	report := &entities.BuildReport{DrugCount: 2}

	before := time.Now()
	dc.UpdateCatalog(sampleCatalog("DOLIPRANE", "ADVIL"), report)

	if got := dc.GetCatalog().Len(); got != 2 {
		t.Errorf("expected 2 drugs, got %d", got)
	}
	if dc.GetBuildReport() != report {
		t.Error("expected the stored report to be returned")
	}
	if dc.GetLastUpdated().Before(before) {
		t.Error("lastUpdated should be refreshed by UpdateCatalog")
	}
}

func TestUpdateCatalogNil(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateCatalog(sampleCatalog("DOLIPRANE"), nil)
	dc.UpdateCatalog(nil, nil)

	if dc.GetCatalog() == nil || dc.GetCatalog().Len() != 0 {
		t.Error("nil catalog should be replaced by an empty one")
	}
	if dc.GetBuildReport() == nil {
		t.Error("nil report should be replaced by an empty one")
	}
}

func TestServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	if !dc.GetServerStartTime().IsZero() {
		t.Error("server start time should initially be zero")
	}

	now := time.Now()
	dc.SetServerStartTime(now)
	if !dc.GetServerStartTime().Equal(now) {
		t.Errorf("expected %v, got %v", now, dc.GetServerStartTime())
	}
}

func TestBeginEndUpdate(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Fatal("first BeginUpdate should succeed")
	}
	if !dc.IsUpdating() {
		t.Error("container should be updating")
	}
	if dc.BeginUpdate() {
		t.Error("second BeginUpdate should fail while updating")
	}

	dc.EndUpdate()
	if dc.IsUpdating() {
		t.Error("container should not be updating after EndUpdate")
	}
	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should succeed again after EndUpdate")
	}
}

func TestBeginUpdateOnlyOneWinner(t *testing.T) {
	dc := NewDataContainer()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if dc.BeginUpdate() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("expected exactly one BeginUpdate winner, got %d", winners.Load())
	}
}

// Readers see either the old or the new snapshot, never a mix
func TestConcurrentReadsDuringSwap(t *testing.T) {
	dc := NewDataContainer()
	first := sampleCatalog("DOLIPRANE")
	second := sampleCatalog("DOLIPRANE", "ADVIL", "NUROFEN")
	dc.UpdateCatalog(first, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c := dc.GetCatalog()
				if n := c.Len(); n != 1 && n != 3 {
					t.Errorf("unexpected snapshot size %d", n)
					return
				}
				if len(c.Drugs()) != c.Len() {
					t.Error("snapshot drugs and length disagree")
					return
				}
			}
		}()
	}

	for i := range 100 {
		if i%2 == 0 {
			dc.UpdateCatalog(second, nil)
		} else {
			dc.UpdateCatalog(first, nil)
		}
	}
	close(stop)
	wg.Wait()
}
