// Package interfaces defines core abstractions for the FDA drugs API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
)

// DataQualityReport provides a summary of data quality issues found in a corpus
type DataQualityReport struct {
	DuplicateDrugIDs            []string
	DrugsWithoutNames           int
	DrugsWithoutNamesIDs        []string // First 10 only
	DrugsWithoutProducts        int
	DrugsWithoutPharmClasses    int
	DrugsWithoutSubstances      int
	DrugsWithoutSubstancesIDs   []string // First 10 only
	OrphanPackages              int
	OrphanPackagesProductIDList []string // First 10 only
}

// Corpus is the parsed, merged output of an ingestion run.
type Corpus struct {
	Drugs          []entities.Drug
	ClassFrequency []entities.ClassFrequency
	OrphanPackages []string // product ids referenced by packages but absent from products
}

// DataStore defines the contract for the record store.
// The corpus is published once; readers never observe a partial snapshot.
type DataStore interface {
	GetDrugs() []entities.Drug
	GetDrug(drugID string) (entities.Drug, bool)
	GetClassFrequency() []entities.ClassFrequency
	GetLastUpdated() time.Time
	GetServerStartTime() time.Time
	IsReady() bool
	WaitReady(ctx context.Context) error

	// Publish stores the corpus and releases every WaitReady caller.
	Publish(corpus *Corpus, report *DataQualityReport) error
	GetDataQualityReport() *DataQualityReport
	BeginUpdate() bool
	EndUpdate()
	IsUpdating() bool
}

// Parser defines the contract for reading FDA drug data from an external source.
type Parser interface {
	// ParseAllDrugs reads every source file and returns the merged corpus
	ParseAllDrugs() (*Corpus, error)
}

// Searcher is the search core consumed by the HTTP and CLI layers.
type Searcher interface {
	Search(params entities.SearchParams) (*entities.SearchResult, error)
	Lookup(drugID string) (*entities.Drug, error)
}

// Scheduler defines the contract for the load phase and housekeeping jobs.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	SearchDrugs(w http.ResponseWriter, r *http.Request)
	FindDrugByID(w http.ResponseWriter, r *http.Request)
	ServePharmClasses(w http.ResponseWriter, r *http.Request)
	WikiSummary(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for data and input validation.
type DataValidator interface {
	// ValidateDrug checks if a drug entity is well formed
	ValidateDrug(d *entities.Drug) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(corpus *Corpus) *DataQualityReport

	// ParseSearchParams validates raw query parameters into search parameters
	ParseSearchParams(query map[string][]string) (entities.SearchParams, error)

	// ValidateDrugID validates a drug identifier from a path
	ValidateDrugID(input string) error
}

// WikiClient looks up an encyclopedic summary for a term.
type WikiClient interface {
	Summary(ctx context.Context, term string) (*entities.WikiSummary, error)
}
