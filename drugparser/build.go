package drugparser

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/logging"
	"golang.org/x/sync/errgroup"
)

const (
	HeaderFileName      = "CIS_bdpm.txt"
	CompositionFileName = "CIS_COMPO_bdpm.txt"
)

// SourcePaths locates the two registry files
type SourcePaths struct {
	Headers      string
	Compositions string
}

// SourcesIn returns the standard file locations inside dataDir
func SourcesIn(dataDir string) SourcePaths {
	return SourcePaths{
		Headers:      filepath.Join(dataDir, HeaderFileName),
		Compositions: filepath.Join(dataDir, CompositionFileName),
	}
}

// BuildCatalog reads both registry files concurrently and returns a new
// catalog. Missing files produce an empty catalog and are listed in the
// report; unreadable files return an error wrapping ErrSourceUnreadable.
func BuildCatalog(ctx context.Context, paths SourcePaths, targets []string) (*catalog.Catalog, *entities.BuildReport, error) {
	start := time.Now()
	report := &entities.BuildReport{}

	var (
		headers         []entities.HeaderRow
		substancesByCis map[string][]entities.Substance
		headersMissing  bool
		composMissing   bool
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, found, err := openSource(paths.Headers)
		if err != nil {
			return err
		}
		if !found {
			headersMissing = true
			return nil
		}
		defer func() {
			if err := f.Close(); err != nil {
				logging.Warn("Failed to close registry file", "path", paths.Headers, "error", err)
			}
		}()

		rows, rr := HeaderRows(f)
		for row := range rows {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			headers = append(headers, row)
		}
		report.HeaderStats = rr.Stats()
		return rr.Err()
	})

	g.Go(func() error {
		f, found, err := openSource(paths.Compositions)
		if err != nil {
			return err
		}
		if !found {
			composMissing = true
			substancesByCis = map[string][]entities.Substance{}
			return nil
		}
		defer func() {
			if err := f.Close(); err != nil {
				logging.Warn("Failed to close registry file", "path", paths.Compositions, "error", err)
			}
		}()

		rows, rr := CompositionRows(f)
		substancesByCis = GroupSubstances(rows)
		report.CompositionStats = rr.Stats()
		return rr.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to read registry files: %w", err)
	}

	if headersMissing {
		report.MissingSources = append(report.MissingSources, paths.Headers)
	}
	if composMissing {
		report.MissingSources = append(report.MissingSources, paths.Compositions)
	}

	result := Deduplicate(slices.Values(headers), substancesByCis, NewNormalizer(targets))

	report.Duplicates = result.Duplicates
	report.SkippedHeaders = result.Skipped
	report.DrugCount = len(result.Drugs)
	report.Duration = time.Since(start)

	return catalog.New(result.Drugs), report, nil
}
