package search

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
)

const (
	// epsilon stands in for a perfect field score so products stay ordered
	epsilon = 2.220446049250313e-16
	// minMatchLength is the shortest query the approximate matcher accepts
	minMatchLength = 2
	// minChunkSize bounds how finely the corpus is split across workers
	minChunkSize = 512
)

// FallbackRanker scores drugs by approximate substring edit distance.
// Lower is better: 0 is an exact substring hit, scores near 1 are barely related.
type FallbackRanker struct {
	index       *Index
	threshold   float64
	penaltyBase float64
	workers     int
	pool        *ants.Pool
}

var _ RankingStrategy = (*FallbackRanker)(nil)

// NewFallbackRanker creates a fallback ranker over index with its worker pool.
// threshold is the error tolerance as a fraction of the query length and
// penaltyBase is raised to each drug's class count to scale its score.
func NewFallbackRanker(index *Index, threshold, penaltyBase float64, workers int) (*FallbackRanker, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback worker pool: %w", err)
	}
	return &FallbackRanker{
		index:       index,
		threshold:   threshold,
		penaltyBase: penaltyBase,
		workers:     workers,
		pool:        pool,
	}, nil
}

func (r *FallbackRanker) Name() string       { return "fallback" }
func (r *FallbackRanker) Polarity() Polarity { return LowerIsBetter }

// Release stops the worker pool
func (r *FallbackRanker) Release() {
	r.pool.Release()
}

// maxErrors returns the edit budget for a query of queryLen runes, at least 1
func (r *FallbackRanker) maxErrors(queryLen int) int {
	return max(1, int(math.Floor(float64(queryLen)*r.threshold)))
}

// Score returns the penalized approximate score of the drug at pos
func (r *FallbackRanker) Score(query string, pos int) (float64, bool) {
	q := []rune(query)
	if len(q) < minMatchLength {
		return 0, false
	}
	m := newMatcher(q, r.maxErrors(len(q)))
	return r.scoreDrug(m, pos)
}

func (r *FallbackRanker) scoreDrug(m *matcher, pos int) (float64, bool) {
	total := 1.0
	matched := false
	for f := range numFields {
		text := r.index.Text(f, pos)
		if text == "" {
			continue
		}
		errs, ok := m.distance(text)
		if !ok {
			continue
		}
		s := float64(errs) / float64(len(m.pattern))
		if s == 0 {
			s = epsilon
		}
		total *= math.Pow(s, r.index.tokenNorms[f][pos])
		matched = true
	}
	if !matched {
		return 0, false
	}
	return total * math.Pow(r.penaltyBase, float64(r.index.ClassCount(pos))), true
}

// Rank scores the corpus in chunks on the worker pool and returns matches in index order
func (r *FallbackRanker) Rank(query string) ([]Scored, error) {
	q := []rune(query)
	if len(q) < minMatchLength {
		return nil, nil
	}
	budget := r.maxErrors(len(q))

	n := r.index.Len()
	chunkSize := max(minChunkSize, (n+r.workers*4-1)/(r.workers*4))
	chunks := make([][]Scored, (n+chunkSize-1)/chunkSize)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for c := range chunks {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					fail(fmt.Errorf("scoring drugs %d-%d: %v", start, end, p))
				}
			}()
			m := newMatcher(q, budget)
			var out []Scored
			for pos := start; pos < end; pos++ {
				if s, ok := r.scoreDrug(m, pos); ok {
					out = append(out, Scored{Pos: pos, Score: s})
				}
			}
			chunks[c] = out
		}
		if err := r.pool.Submit(task); err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting fallback task: %w", err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	var results []Scored
	for _, chunk := range chunks {
		results = append(results, chunk...)
	}
	return results, nil
}

// matcher computes the smallest edit distance between a pattern and any
// substring of a text (Sellers' algorithm), giving up past maxErrors.
// A matcher owns its row buffers and must not be shared between goroutines.
type matcher struct {
	pattern   []rune
	maxErrors int
	prev      []int
	cur       []int
}

func newMatcher(pattern []rune, maxErrors int) *matcher {
	return &matcher{
		pattern:   pattern,
		maxErrors: maxErrors,
		prev:      make([]int, len(pattern)+1),
		cur:       make([]int, len(pattern)+1),
	}
}

// distance returns the best substring edit distance and whether it is within budget
func (m *matcher) distance(text string) (int, bool) {
	plen := len(m.pattern)
	for i := range m.prev {
		m.prev[i] = i
	}
	bestDist := plen

	for _, c := range text {
		m.cur[0] = 0
		for i := 1; i <= plen; i++ {
			cost := 1
			if m.pattern[i-1] == c {
				cost = 0
			}
			m.cur[i] = min(m.prev[i-1]+cost, m.prev[i]+1, m.cur[i-1]+1)
		}
		if m.cur[plen] < bestDist {
			bestDist = m.cur[plen]
			if bestDist == 0 {
				break
			}
		}
		m.prev, m.cur = m.cur, m.prev
	}

	return bestDist, bestDist <= m.maxErrors
}

// fieldNorm weights a field by the inverse square root of its token count,
// so a hit in a short field counts for more than the same hit in a long one
func fieldNorm(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 1
	}
	return math.Round(1/math.Sqrt(float64(len(tokens)))*1000) / 1000
}

// runeLen is the query length used for truncation and budgets
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
