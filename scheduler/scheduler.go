// Package scheduler rebuilds the drug catalog on a daily schedule and swaps
// it into the data store.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/interfaces"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/metrics"
	"github.com/go-co-op/gocron"
)

const (
	staleDataThreshold  = 25 * time.Hour
	healthCheckInterval = time.Hour
	rebuildTimeout      = 10 * time.Minute
)

var (
	_ interfaces.Scheduler        = (*Scheduler)(nil)
	_ interfaces.AnnotationSource = (*automedication.SQLiteStore)(nil)
)

// Scheduler handles catalog rebuilds and stale-data monitoring
type Scheduler struct {
	dataStore   interfaces.DataStore
	parser      interfaces.Parser
	annotations interfaces.AnnotationSource
	validator   interfaces.DataValidator
	times       []string
	scheduler   *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler running at the given "HH:MM" times.
// annotations may be nil, in which case substances are served without class
// and tags.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, annotations interfaces.AnnotationSource, validator interfaces.DataValidator, times []string) *Scheduler {
	return &Scheduler{
		dataStore:   dataStore,
		parser:      parser,
		annotations: annotations,
		validator:   validator,
		times:       times,
		scheduler:   gocron.NewScheduler(time.Local),
		stop:        make(chan struct{}),
	}
}

// Start builds the catalog once, then schedules the daily rebuilds
func (s *Scheduler) Start() error {
	if err := s.Rebuild(context.Background()); err != nil {
		logging.Error("Failed to perform initial catalog build", "error", err)
		return fmt.Errorf("initial catalog build failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(strings.Join(s.times, ";")).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()
		if err := s.Rebuild(ctx); err != nil {
			logging.Error("Scheduled catalog rebuild failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule rebuilds", "error", err)
		return fmt.Errorf("failed to schedule rebuilds: %w", err)
	}

	s.scheduler.StartAsync()
	go s.monitorFreshness()

	return nil
}

// Stop stops the scheduled jobs and the monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// Rebuild parses the registry files and swaps in the new catalog. It is a
// no-op when another rebuild is already running.
func (s *Scheduler) Rebuild(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog rebuild already in progress, skipping")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting catalog rebuild")
	start := time.Now()

	cat, report, err := s.parser.ParseCatalog(ctx)
	if err != nil {
		metrics.CatalogBuildsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to build catalog: %w", err)
	}

	cat = s.annotate(ctx, cat)

	quality := s.validator.ReportDataQuality(cat.Drugs(), report)
	logQuality(quality)

	s.dataStore.UpdateCatalog(cat, report)

	elapsed := time.Since(start)
	metrics.CatalogBuildsTotal.WithLabelValues("success").Inc()
	metrics.CatalogBuildDuration.Observe(elapsed.Seconds())
	metrics.CatalogDrugs.Set(float64(cat.Len()))
	metrics.CatalogDuplicates.Set(float64(quality.DiscardedDuplicates))
	metrics.CatalogLastBuild.SetToCurrentTime()

	logging.Info("Catalog rebuild completed", "duration", elapsed.String(), "drug_count", cat.Len())
	return nil
}

// annotate attaches the stored class and tags to each substance. A store
// failure keeps the bare catalog.
func (s *Scheduler) annotate(ctx context.Context, cat *catalog.Catalog) *catalog.Catalog {
	if s.annotations == nil {
		return cat
	}

	byCode, err := s.annotations.SubstanceAnnotations(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("annotations").Inc()
		logging.Warn("Could not load substance annotations, serving catalog without tags", "error", err)
		return cat
	}

	return cat.Annotate(func(code string) (string, []string, bool) {
		a, ok := byCode[code]
		return a.Class, a.Tags, ok
	})
}

func logQuality(q *interfaces.DataQualityReport) {
	if len(q.MissingSources) > 0 {
		logging.Warn("Registry files missing, catalog may be empty", "files", q.MissingSources)
	}
	if q.DiscardedDuplicates > 0 {
		logging.Info("Duplicate drugs discarded", "count", q.DiscardedDuplicates)
	}
	for _, d := range q.DivergentDuplicates {
		logging.Warn("Discarded duplicate differs from kept entry",
			"name", d.Name,
			"kept_cis", d.KeptID,
			"kept", d.KeptRawName,
			"discarded_cis", d.DiscardedID,
			"discarded", d.DiscardedRawName,
		)
	}
	if q.DrugsWithoutSubstances > 0 {
		logging.Warn("Drugs without substances",
			"count", q.DrugsWithoutSubstances,
			"cis_sample", q.DrugsWithoutSubstancesCIS,
		)
	}
}

// monitorFreshness warns when the catalog has not been rebuilt for too long
func (s *Scheduler) monitorFreshness() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if time.Since(s.dataStore.GetLastUpdated()) > staleDataThreshold {
				logging.Warn("Catalog hasn't been rebuilt in over 25 hours")
			}
		}
	}
}
