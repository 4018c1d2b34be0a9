// Package search implements the drug search core: a field index built once from
// the record store, two ranking strategies with opposite score polarity, and the
// orchestrator deciding which strategy to trust for a query.
package search

import "slices"

// Polarity tells which direction of a strategy's score is better
type Polarity int

const (
	HigherIsBetter Polarity = iota
	LowerIsBetter
)

// Scored is a matched drug and its score under one strategy
type Scored struct {
	Pos   int // position in the index
	Score float64
}

// RankingStrategy scores the indexed drugs against a query.
// Rank returns only matched drugs, in index order.
type RankingStrategy interface {
	Name() string
	Polarity() Polarity
	// Score is the single-drug form of Rank for the drug at index position pos
	Score(query string, pos int) (float64, bool)
	Rank(query string) ([]Scored, error)
}

// better reports whether a beats b under polarity p
func better(p Polarity, a, b float64) bool {
	if p == LowerIsBetter {
		return a < b
	}
	return a > b
}

// best returns the best score of results; ok is false when results is empty
func best(p Polarity, results []Scored) (score float64, ok bool) {
	for i, r := range results {
		if i == 0 || better(p, r.Score, score) {
			score = r.Score
		}
	}
	return score, len(results) > 0
}

// sortScored orders results best first. Equal scores keep index order.
func sortScored(p Polarity, results []Scored) {
	slices.SortStableFunc(results, func(a, b Scored) int {
		switch {
		case better(p, a.Score, b.Score):
			return -1
		case better(p, b.Score, a.Score):
			return 1
		}
		return 0
	})
}
