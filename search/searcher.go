package search

import (
	"fmt"
	"time"

	"github.com/giygas/fdadrugs-api/config"
	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
	"github.com/giygas/fdadrugs-api/metrics"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxRawQueryLength rejects absurd inputs before truncation
	MaxRawQueryLength = 200
)

// Compile-time check to ensure Searcher implements Searcher interface
var _ interfaces.Searcher = (*Searcher)(nil)

// Searcher runs queries against the published corpus.
// It is safe for concurrent use; nothing it reads is mutated after construction.
type Searcher struct {
	store    interfaces.DataStore
	index    *Index
	primary  RankingStrategy
	fallback RankingStrategy
	cfg      config.SearchConfig
	release  func()
}

// NewSearcher builds the field index from the store and both rankers.
// The store must already be ready; call DataStore.WaitReady first.
func NewSearcher(store interfaces.DataStore, cfg config.SearchConfig) (*Searcher, error) {
	if !store.IsReady() {
		return nil, ErrNotReady
	}

	start := time.Now()
	index := BuildIndex(store.GetDrugs())

	fallback, err := NewFallbackRanker(index, cfg.FallbackThreshold, cfg.ClassPenaltyBase, cfg.Workers)
	if err != nil {
		return nil, err
	}

	metrics.CorpusSize.Set(float64(index.Len()))
	logging.Info("Search index built", "drug_count", index.Len(), "duration", time.Since(start).String())

	return &Searcher{
		store:    store,
		index:    index,
		primary:  NewPrimaryRanker(index),
		fallback: fallback,
		cfg:      cfg,
		release:  fallback.Release,
	}, nil
}

// Close releases the ranking worker pool
func (s *Searcher) Close() {
	if s.release != nil {
		s.release()
	}
}

// Search ranks the corpus for params.Query and returns the requested page.
// A query that normalizes to nothing returns an empty, non-bad result.
func (s *Searcher) Search(params entities.SearchParams) (result *entities.SearchResult, err error) {
	limit, err := s.validate(params)
	if err != nil {
		return nil, err
	}

	query := normalize(truncate(params.Query, s.cfg.MaxQueryLength))
	if query == "" {
		metrics.SearchTotal.WithLabelValues("empty").Inc()
		return &entities.SearchResult{
			Total:     0,
			Limit:     limit,
			Skip:      params.Skip,
			BadSearch: false,
			Items:     []entities.BasicDrug{},
		}, nil
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Ranking panicked", "query", params.Query, "panic", p)
			result, err = nil, fmt.Errorf("%w: %v", ErrInternalRanking, p)
		}
	}()

	start := time.Now()

	ranked, strategy, badSearch, err := s.rank(query)
	if err != nil {
		logging.Error("Ranking failed", "query", params.Query, "strategy", strategy, "error", err)
		return nil, fmt.Errorf("%w: %s ranker: %v", ErrInternalRanking, strategy, err)
	}

	elapsed := time.Since(start)
	metrics.SearchTotal.WithLabelValues(strategy).Inc()
	metrics.SearchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	if badSearch {
		metrics.BadSearchTotal.Inc()
	}
	logging.Debug("Search completed",
		"query", params.Query,
		"strategy", strategy,
		"total", len(ranked),
		"bad_search", badSearch,
		"duration", elapsed.String(),
	)

	return &entities.SearchResult{
		Total:     len(ranked),
		Limit:     limit,
		Skip:      params.Skip,
		BadSearch: badSearch,
		Items:     s.page(ranked, params.Skip, limit),
	}, nil
}

// validate checks pagination and returns the effective limit
func (s *Searcher) validate(params entities.SearchParams) (int, error) {
	if params.Limit < 1 {
		return 0, invalidInput("Invalid limit")
	}
	if params.Skip < 0 {
		return 0, invalidInput("Invalid skip")
	}
	if runeLen(params.Query) > MaxRawQueryLength {
		return 0, invalidInput("Invalid query")
	}
	return min(params.Limit, MaxLimit), nil
}

// rank runs the primary strategy and falls back when its best match is not
// confident. The two strategies have opposite polarity and their scores are
// never compared with each other.
func (s *Searcher) rank(query string) (ranked []Scored, strategy string, badSearch bool, err error) {
	ranked, err = s.primary.Rank(query)
	if err != nil {
		return nil, s.primary.Name(), false, err
	}

	if top, ok := best(s.primary.Polarity(), ranked); ok && top >= s.cfg.ConfidenceGate {
		for i := range ranked {
			ranked[i].Score += float64(s.index.ClassCount(ranked[i].Pos))
		}
		sortScored(s.primary.Polarity(), ranked)
		return ranked, s.primary.Name(), false, nil
	}

	ranked, err = s.fallback.Rank(query)
	if err != nil {
		return nil, s.fallback.Name(), false, err
	}
	sortScored(s.fallback.Polarity(), ranked)

	badSearch = len(ranked) == 0 || ranked[0].Score > s.cfg.BadSearchScore
	return ranked, s.fallback.Name(), badSearch, nil
}

// page slices [skip, skip+limit) out of ranked and strips products
func (s *Searcher) page(ranked []Scored, skip, limit int) []entities.BasicDrug {
	if skip >= len(ranked) {
		return []entities.BasicDrug{}
	}
	end := min(skip+limit, len(ranked))

	items := make([]entities.BasicDrug, 0, end-skip)
	for _, r := range ranked[skip:end] {
		items = append(items, s.index.Drug(r.Pos).BasicDrug)
	}
	return items
}

// Lookup returns the full drug, products included
func (s *Searcher) Lookup(drugID string) (*entities.Drug, error) {
	drug, ok := s.store.GetDrug(drugID)
	if !ok {
		return nil, &NotFoundError{ID: drugID}
	}
	return &drug, nil
}

// truncate keeps the first n runes of s
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
