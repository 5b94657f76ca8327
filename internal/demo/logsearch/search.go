package logsearch

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

const (
	AlgorithmIndex  = "btree_index"
	AlgorithmLinear = "sequential_scan"

	// maxCandidateCost caps the posting-list share of the modelled index cost.
	maxCandidateCost = 20
	linearCostPer1K  = 30 * time.Millisecond
)

var indexLatency = simulate.Range{Min: 10 * time.Millisecond, Max: 30 * time.Millisecond}

// priorityTokens are preferred as the driving token of an indexed lookup.
// This is a demonstration policy, not a query planner.
var priorityTokens = map[string]bool{"error": true, "connection": true, "timeout": true}

// SearchResult reports one search. FoundAt is -1 when nothing matched and
// ResponseTimeMs is simulated.
type SearchResult struct {
	Found          bool    `json:"found"`
	FoundAt        int     `json:"foundAt"`
	Comparisons    int     `json:"comparisons"`
	TotalLogs      int     `json:"totalLogs"`
	ResponseTimeMs float64 `json:"responseTime"`
	Algorithm      string  `json:"algorithm"`
	Complexity     string  `json:"complexity"`
}

type Searcher struct {
	corpus *Corpus
	index  *Index
	env    simulate.Env
}

func NewSearcher(corpus *Corpus, index *Index, env simulate.Env) *Searcher {
	return &Searcher{corpus: corpus, index: index, env: env}
}

func (s *Searcher) Corpus() *Corpus { return s.corpus }

// Search finds the first line containing query, case-insensitively.
func (s *Searcher) Search(ctx context.Context, query string, useIndex bool) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Invalid("query is required")
	}
	if useIndex {
		return s.indexed(ctx, query)
	}
	return s.linear(ctx, query)
}

// indexed walks the posting list of the driving token and verifies each
// candidate against the whole query, rather than reporting the first
// posting outright, so it agrees with linear on word-aligned queries. A
// phrase absent from the corpus therefore examines the whole posting list.
// Cost is the modelled index descent plus the candidates examined.
func (s *Searcher) indexed(ctx context.Context, query string) (*SearchResult, error) {
	res := &SearchResult{
		FoundAt:    -1,
		TotalLogs:  s.corpus.Len(),
		Algorithm:  AlgorithmIndex,
		Complexity: "O(log n)",
	}
	descent := descentCost(s.corpus.Len())
	res.Comparisons = descent

	if tok, ok := s.drivingToken(Tokenize(query)); ok {
		postings := s.index.postings[tok]
		lowerQuery := strings.ToLower(query)
		examined := 0
		for _, pos := range postings {
			examined++
			if s.corpus.containsFold(pos, lowerQuery) {
				res.Found = true
				res.FoundAt = pos
				break
			}
		}
		res.Comparisons = descent + max(min(len(postings), maxCandidateCost), examined)
	}

	d, err := s.env.Spend(ctx, indexLatency)
	if err != nil {
		return nil, err
	}
	res.ResponseTimeMs = simulate.Millis(d)
	return res, nil
}

// drivingToken is the first query token, in query order, that is a
// priority token present in the index; failing that, the first indexed
// token.
func (s *Searcher) drivingToken(tokens []string) (string, bool) {
	for _, t := range tokens {
		if priorityTokens[t] && s.index.Has(t) {
			return t, true
		}
	}
	for _, t := range tokens {
		if s.index.Has(t) {
			return t, true
		}
	}
	return "", false
}

func (s *Searcher) linear(ctx context.Context, query string) (*SearchResult, error) {
	res := &SearchResult{
		FoundAt:    -1,
		TotalLogs:  s.corpus.Len(),
		Algorithm:  AlgorithmLinear,
		Complexity: "O(n)",
	}
	lowerQuery := strings.ToLower(query)
	for i := 0; i < s.corpus.Len(); i++ {
		res.Comparisons++
		if s.corpus.containsFold(i, lowerQuery) {
			res.Found = true
			res.FoundAt = i
			break
		}
	}

	// One simulated page cost per started block of 1000 lines.
	blocks := (res.Comparisons + 999) / 1000
	cost := time.Duration(blocks) * linearCostPer1K
	d, err := s.env.Spend(ctx, simulate.Range{Min: cost, Max: cost})
	if err != nil {
		return nil, err
	}
	res.ResponseTimeMs = simulate.Millis(d)
	return res, nil
}

func descentCost(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
