// Package data provides thread-safe storage of the drug catalog.
// The catalog is held behind an atomic pointer: rebuilds create a new
// snapshot and swap it in, so readers never see a half-built catalog.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/automedication-api/catalog"
	"github.com/giygas/automedication-api/drugparser/entities"
	"github.com/giygas/automedication-api/interfaces"
	"github.com/giygas/automedication-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the current catalog snapshot
type DataContainer struct {
	catalog         atomic.Pointer[catalog.Catalog]
	report          atomic.Pointer[entities.BuildReport]
	lastUpdated     atomic.Pointer[time.Time]
	serverStartTime atomic.Pointer[time.Time]
	updating        atomic.Bool
}

// NewDataContainer creates a container with an empty catalog
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.catalog.Store(catalog.Empty())
	dc.report.Store(&entities.BuildReport{})
	zero := time.Time{}
	dc.lastUpdated.Store(&zero)
	dc.serverStartTime.Store(&zero)
	return dc
}

// GetCatalog returns the current snapshot
func (dc *DataContainer) GetCatalog() *catalog.Catalog {
	if c := dc.catalog.Load(); c != nil {
		return c
	}

	logging.Warn("Catalog is not initialized")
	return catalog.Empty()
}

// GetBuildReport returns the report of the build that produced the current snapshot
func (dc *DataContainer) GetBuildReport() *entities.BuildReport {
	if r := dc.report.Load(); r != nil {
		return r
	}
	return &entities.BuildReport{}
}

// GetLastUpdated returns the timestamp of the last catalog swap
func (dc *DataContainer) GetLastUpdated() time.Time {
	if t := dc.lastUpdated.Load(); t != nil {
		return *t
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a rebuild is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(&startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if t := dc.serverStartTime.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// UpdateCatalog swaps in a new catalog snapshot
func (dc *DataContainer) UpdateCatalog(c *catalog.Catalog, report *entities.BuildReport) {
	if c == nil {
		c = catalog.Empty()
	}
	if report == nil {
		report = &entities.BuildReport{}
	}

	now := time.Now()
	dc.catalog.Store(c)
	dc.report.Store(report)
	dc.lastUpdated.Store(&now)
}

// BeginUpdate marks the start of a rebuild.
// Returns true if the rebuild can proceed, false if another one is running.
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a rebuild
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
