// Package scheduler runs the one-shot corpus load and the periodic
// housekeeping jobs of the FDA drugs API.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	cleanupInterval = 30 * time.Minute
	statusInterval  = 1 * time.Hour
)

// Cleaner is anything holding per-client state that must be pruned
// periodically, such as the rate limiter
type Cleaner interface {
	Cleanup() int
}

// Scheduler loads the corpus once and then runs housekeeping jobs
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	cleaner   Cleaner
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// cleaner may be nil.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, validator interfaces.DataValidator, cleaner Cleaner) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		validator: validator,
		cleaner:   cleaner,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start loads and publishes the corpus, then starts the housekeeping jobs.
// It returns once the corpus is published, so callers can build the search
// index right after.
func (s *Scheduler) Start() error {
	if err := s.loadData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	if s.cleaner != nil {
		_, err := s.scheduler.Every(cleanupInterval).WaitForSchedule().Do(s.cleanup)
		if err != nil {
			return fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}

	_, err := s.scheduler.Every(statusInterval).WaitForSchedule().Do(s.logStatus)
	if err != nil {
		return fmt.Errorf("failed to schedule status report: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// loadData parses every source file and publishes the corpus
func (s *Scheduler) loadData() error {
	if !s.dataStore.BeginUpdate() {
		return fmt.Errorf("load already in progress")
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting corpus load at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	corpus, err := s.parser.ParseAllDrugs()
	if err != nil {
		return fmt.Errorf("failed to parse drugs: %w", err)
	}

	report := s.validator.ReportDataQuality(corpus)
	logReport(report)

	if err := s.dataStore.Publish(corpus, report); err != nil {
		return fmt.Errorf("failed to publish corpus: %w", err)
	}

	logging.Info("Corpus load completed", "duration", time.Since(start).String(), "drug_count", len(corpus.Drugs))
	return nil
}

func logReport(report *interfaces.DataQualityReport) {
	if len(report.DuplicateDrugIDs) > 0 {
		logging.Warn("Duplicate drug ids detected",
			"total", len(report.DuplicateDrugIDs),
			"drug_ids", report.DuplicateDrugIDs,
		)
	}

	if report.DrugsWithoutNames > 0 {
		logging.Warn("Drugs without any name",
			"count", report.DrugsWithoutNames,
			"drug_ids", report.DrugsWithoutNamesIDs,
		)
	}

	if report.DrugsWithoutSubstances > 0 {
		logging.Info("Drugs without substances",
			"count", report.DrugsWithoutSubstances,
			"drug_ids", report.DrugsWithoutSubstancesIDs,
		)
	}

	if report.OrphanPackages > 0 {
		logging.Warn("Packages referencing unknown products",
			"count", report.OrphanPackages,
			"product_ids", report.OrphanPackagesProductIDList,
		)
	}

	if report.DrugsWithoutPharmClasses > 0 {
		logging.Debug("Drugs without pharmacological classes", "count", report.DrugsWithoutPharmClasses)
	}
}

func (s *Scheduler) cleanup() {
	if removed := s.cleaner.Cleanup(); removed > 0 {
		logging.Debug("Pruned idle rate limiter clients", "removed", removed)
	}
}

// logStatus reports the corpus state once per interval
func (s *Scheduler) logStatus() {
	if !s.dataStore.IsReady() {
		logging.Warn("Corpus is still not published")
		return
	}
	logging.Info("Corpus status",
		"drug_count", len(s.dataStore.GetDrugs()),
		"loaded_at", s.dataStore.GetLastUpdated().Format(time.RFC3339),
		"uptime", time.Since(s.dataStore.GetServerStartTime()).Round(time.Second).String(),
	)
}
