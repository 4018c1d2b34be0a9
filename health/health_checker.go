// Package health provides health checking functionality for the FDA drugs API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/fdadrugs-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
	}
}

// HealthCheck returns HTTP-specific health data.
// The corpus is loaded once, so health only depends on whether it was
// published and is non-empty.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	startTime := h.dataStore.GetServerStartTime()
	uptime := time.Duration(0)
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}

	data = map[string]any{
		"uptime_seconds": math.Round(uptime.Seconds()),
		"is_loading":     h.dataStore.IsUpdating(),
	}

	if !h.dataStore.IsReady() {
		data["drugs"] = 0
		return "starting", data, http.StatusServiceUnavailable
	}

	drugs := h.dataStore.GetDrugs()
	lastUpdate := h.dataStore.GetLastUpdated()

	data["drugs"] = len(drugs)
	data["pharm_classes"] = len(h.dataStore.GetClassFrequency())
	data["last_update"] = lastUpdate.Format(time.RFC3339)

	if report := h.dataStore.GetDataQualityReport(); report != nil {
		data["data_quality"] = map[string]any{
			"drugs_without_names":       report.DrugsWithoutNames,
			"drugs_without_substances":  report.DrugsWithoutSubstances,
			"drugs_without_pharm_class": report.DrugsWithoutPharmClasses,
			"orphan_packages":           report.OrphanPackages,
		}
	}

	if len(drugs) == 0 {
		return "unhealthy", data, http.StatusServiceUnavailable
	}

	return "healthy", data, http.StatusOK
}
