package drugparser

import (
	"context"

	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/interfaces"
	"github.com/giygas/automedication-api/logging"
)

// Compile-time check to ensure DrugParser implements Parser interface
var _ interfaces.Parser = (*DrugParser)(nil)

// DrugParser implements the Parser interface over a data directory
type DrugParser struct {
	dataDir  string
	targets  []string
	download bool
}

// NewDrugParser creates a parser reading registry files from dataDir.
// When download is true, fresh files are fetched before each build.
func NewDrugParser(dataDir string, targets []string, download bool) *DrugParser {
	if len(targets) == 0 {
		targets = DefaultTargetDrugs
	}
	return &DrugParser{
		dataDir:  dataDir,
		targets:  targets,
		download: download,
	}
}

// ParseCatalog implements the Parser interface
func (p *DrugParser) ParseCatalog(ctx context.Context) (*catalog.Catalog, *entities.BuildReport, error) {
	if p.download {
		if err := DownloadSources(ctx, p.dataDir); err != nil {
			// keep building from whatever files are already on disk
			logging.Warn("Registry download failed, using existing files", "error", err)
		}
	}
	return BuildCatalog(ctx, SourcesIn(p.dataDir), p.targets)
}
