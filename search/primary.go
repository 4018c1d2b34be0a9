package search

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	// exactMatchBonus is granted when a field equals the query
	exactMatchBonus = 1000.0
	// exactNameBonus replaces exactMatchBonus for the proprietary name
	exactNameBonus = 2000.0
	// looseMatchFactor multiplies scores of matches not anchored on word starts
	looseMatchFactor = 1000.0
	// groupPenalty is charged for every extra group of contiguous characters
	groupPenalty = 12.0
	// offsetPenaltyFactor scales the squared offset of the first matched character
	offsetPenaltyFactor = 0.2
)

// PrimaryRanker scores drugs by ordered subsequence match of the query across
// the indexed fields. Higher is better; exact and prefix matches score highest
// and gaps or mid-word matches are penalized.
type PrimaryRanker struct {
	index *Index
}

var _ RankingStrategy = (*PrimaryRanker)(nil)

// NewPrimaryRanker creates a primary ranker over index
func NewPrimaryRanker(index *Index) *PrimaryRanker {
	return &PrimaryRanker{index: index}
}

func (r *PrimaryRanker) Name() string       { return "primary" }
func (r *PrimaryRanker) Polarity() Polarity { return HigherIsBetter }

// Score returns the best field score of the drug at pos
func (r *PrimaryRanker) Score(query string, pos int) (float64, bool) {
	bestScore := math.Inf(-1)
	matched := false
	for f := range numFields {
		text := r.index.Text(f, pos)
		if text == "" {
			continue
		}
		matches := fuzzy.Find(query, []string{text})
		if len(matches) == 0 {
			continue
		}
		if s := orderedMatchScore(f, text, query, matches[0].MatchedIndexes); s > bestScore {
			bestScore = s
			matched = true
		}
	}
	return bestScore, matched
}

// Rank scores every indexed drug, one fuzzy pass per field
func (r *PrimaryRanker) Rank(query string) ([]Scored, error) {
	if query == "" {
		return nil, nil
	}

	scores := make([]float64, r.index.Len())
	for i := range scores {
		scores[i] = math.Inf(-1)
	}

	for f := range numFields {
		for _, m := range fuzzy.FindFrom(query, r.index.source(f)) {
			s := orderedMatchScore(f, m.Str, query, m.MatchedIndexes)
			if s > scores[m.Index] {
				scores[m.Index] = s
			}
		}
	}

	var results []Scored
	for pos, s := range scores {
		if !math.IsInf(s, -1) {
			results = append(results, Scored{Pos: pos, Score: s})
		}
	}
	return results, nil
}

// orderedMatchScore turns the byte offsets of a subsequence match into a score.
// An equal field scores a positive bonus; otherwise the score is 0 minus gap,
// offset and unmatched-length penalties, scaled up when any group of
// contiguous characters starts in the middle of a word.
func orderedMatchScore(f Field, target, query string, matched []int) float64 {
	if target == query {
		if f == FieldProprietaryName {
			return exactNameBonus
		}
		return exactMatchBonus
	}
	if len(matched) == 0 {
		return math.Inf(-1)
	}

	positions := runePositions(target, matched)
	n := len(positions)

	score := 0.0
	groups := 0
	anchored := isWordStart(target, matched[0])
	for i := 1; i < n; i++ {
		if positions[i] == positions[i-1]+1 {
			continue
		}
		score -= float64(positions[i])
		groups++
		if !isWordStart(target, matched[i]) {
			anchored = false
		}
	}

	spread := positions[n-1] - positions[0] - (n - 1)
	score -= float64(groups) * (groupPenalty + float64(spread))

	if first := positions[0]; first != 0 {
		score -= float64(first*first) * offsetPenaltyFactor
	}

	if !anchored {
		score *= looseMatchFactor
	}

	score -= float64(utf8.RuneCountInString(target) - n)
	return score
}

// runePositions converts byte offsets into rune positions
func runePositions(s string, offsets []int) []int {
	positions := make([]int, len(offsets))
	runeIdx := 0
	next := 0
	for byteIdx := range s {
		if next == len(offsets) {
			break
		}
		if byteIdx == offsets[next] {
			positions[next] = runeIdx
			next++
		}
		runeIdx++
	}
	return positions
}

// isWordStart reports whether the rune at byte offset i begins a word
func isWordStart(s string, i int) bool {
	if i <= 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}
