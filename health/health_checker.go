// Package health reports the state of the catalog and of the question store.
package health

import (
	"context"
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/giygas/automedication-api/interfaces"
)

const (
	degradedAge  = 24 * time.Hour
	unhealthyAge = 48 * time.Hour
	pingTimeout  = 2 * time.Second
)

// HealthCheckerImpl implements interfaces.HealthChecker
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	store       interfaces.Pinger
	updateTimes []string
	now         func() time.Time
}

// NewHealthChecker creates a health checker. store may be nil when the
// automedication store is not configured. updateTimes are "HH:MM" values.
func NewHealthChecker(dataStore interfaces.DataStore, store interfaces.Pinger, updateTimes []string) *HealthCheckerImpl {
	times := slices.Clone(updateTimes)
	slices.Sort(times)
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		store:       store,
		updateTimes: times,
		now:         time.Now,
	}
}

// HealthCheck returns the status used by the /health endpoint.
// An empty catalog or an unreachable store makes the service unhealthy.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int) {
	cat := h.dataStore.GetCatalog()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	drugCount := 0
	if cat != nil {
		drugCount = cat.Len()
	}

	storeStatus := "disabled"
	var storeErr error
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		storeErr = h.store.Ping(pingCtx)
		cancel()
		if storeErr != nil {
			storeStatus = "unreachable"
		} else {
			storeStatus = "ok"
		}
	}

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case drugCount == 0:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case storeErr != nil:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case dataAge > unhealthyAge:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case dataAge > degradedAge:
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	default:
		status, httpStatus = "healthy", http.StatusOK
	}

	details = map[string]any{
		"drugs":       drugCount,
		"is_updating": isUpdating,
		"store":       storeStatus,
		"uptime":      h.now().Sub(h.dataStore.GetServerStartTime()).Round(time.Second).String(),
	}
	if !lastUpdate.IsZero() {
		details["last_update"] = lastUpdate.Format(time.RFC3339)
		details["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		details["next_update"] = next.Format(time.RFC3339)
	}
	if report := h.dataStore.GetBuildReport(); report != nil && len(report.MissingSources) > 0 {
		details["missing_sources"] = report.MissingSources
	}

	return status, details, httpStatus
}

// CalculateNextUpdate returns the next configured rebuild time, or the zero
// time when no schedule is configured
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()

	var first time.Time
	for _, hhmm := range h.updateTimes {
		t, err := time.ParseInLocation("15:04", hhmm, now.Location())
		if err != nil {
			continue
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if first.IsZero() {
			first = candidate
		}
		if candidate.After(now) {
			return candidate
		}
	}

	if first.IsZero() {
		return first
	}
	return first.AddDate(0, 0, 1)
}
