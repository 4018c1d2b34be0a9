// Package data provides the read-only record store for the FDA drugs API.
// The corpus is published exactly once behind a readiness barrier; after that
// every accessor is a lock-free read of an immutable snapshot.
package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// ErrAlreadyPublished is returned when a second corpus is published.
var ErrAlreadyPublished = errors.New("corpus already published")

// snapshot is the immutable state shared by all readers
type snapshot struct {
	drugs          []entities.Drug
	drugsMap       map[string]int // drugId -> index in drugs
	classFrequency []entities.ClassFrequency
	report         *interfaces.DataQualityReport
	lastUpdated    time.Time
}

// DataContainer holds the corpus snapshot
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	ready           chan struct{}
	readyOnce       sync.Once
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with an empty, not-ready snapshot
func NewDataContainer() *DataContainer {
	dc := &DataContainer{
		ready: make(chan struct{}),
	}
	dc.current.Store(&snapshot{
		drugs:          make([]entities.Drug, 0),
		drugsMap:       make(map[string]int),
		classFrequency: make([]entities.ClassFrequency, 0),
	})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetDrugs returns the corpus in load order
func (dc *DataContainer) GetDrugs() []entities.Drug {
	return dc.current.Load().drugs
}

// GetDrug returns the drug with the given id
func (dc *DataContainer) GetDrug(drugID string) (entities.Drug, bool) {
	snap := dc.current.Load()
	idx, ok := snap.drugsMap[drugID]
	if !ok {
		return entities.Drug{}, false
	}
	return snap.drugs[idx], true
}

// GetClassFrequency returns pharmacological classes ordered by descending count
func (dc *DataContainer) GetClassFrequency() []entities.ClassFrequency {
	return dc.current.Load().classFrequency
}

// GetDataQualityReport returns the report computed at load time, nil before
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.current.Load().report
}

// GetLastUpdated returns the time the corpus was published
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.current.Load().lastUpdated
}

// IsReady reports whether a corpus has been published
func (dc *DataContainer) IsReady() bool {
	select {
	case <-dc.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the corpus is published or ctx is done
func (dc *DataContainer) WaitReady(ctx context.Context) error {
	select {
	case <-dc.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for corpus: %w", ctx.Err())
	}
}

// Publish stores the corpus and opens the readiness barrier.
// The store is write-once: a second call returns ErrAlreadyPublished.
func (dc *DataContainer) Publish(corpus *interfaces.Corpus, report *interfaces.DataQualityReport) error {
	if corpus == nil {
		return fmt.Errorf("cannot publish nil corpus")
	}
	if dc.IsReady() {
		return ErrAlreadyPublished
	}

	drugsMap := make(map[string]int, len(corpus.Drugs))
	for i := range corpus.Drugs {
		id := corpus.Drugs[i].DrugID
		if _, dup := drugsMap[id]; dup {
			return fmt.Errorf("duplicate drug id %q in corpus", id)
		}
		drugsMap[id] = i
	}

	classFrequency := corpus.ClassFrequency
	if classFrequency == nil {
		classFrequency = make([]entities.ClassFrequency, 0)
	}

	dc.current.Store(&snapshot{
		drugs:          corpus.Drugs,
		drugsMap:       drugsMap,
		classFrequency: classFrequency,
		report:         report,
		lastUpdated:    time.Now(),
	})
	dc.readyOnce.Do(func() { close(dc.ready) })

	logging.Info("Corpus published", "drug_count", len(corpus.Drugs), "class_count", len(classFrequency))
	return nil
}

// IsUpdating returns true while the load phase is running
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// BeginUpdate marks the start of the load phase
// Returns true if the load can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of the load phase
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
