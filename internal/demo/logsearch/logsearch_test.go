package logsearch

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

func newSearcher(c *Corpus) *Searcher {
	env, _ := simulate.TestEnv(7)
	return NewSearcher(c, BuildIndex(c), env)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ERROR: Connection timeout at service.auth.validate()", []string{"error", "connection", "timeout", "at", "service", "auth", "validate"}},
		{"[42] DEBUG: Query executed in 45ms", []string{"42", "debug", "query", "executed", "in", "45ms"}},
		{"  ", nil},
		{"zzz-nonexistent", []string{"zzz", "nonexistent"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGenerateCorpusDeterministic(t *testing.T) {
	a := GenerateCorpus(500, 42)
	b := GenerateCorpus(500, 42)
	if a.Len() != 500 {
		t.Fatalf("expected 500 lines, got %d", a.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Line(i) != b.Line(i) {
			t.Fatalf("line %d differs: %q vs %q", i, a.Line(i), b.Line(i))
		}
	}
	if !strings.HasPrefix(a.Line(17), "[17] ") {
		t.Errorf("unexpected line format %q", a.Line(17))
	}
	if a.Line(-1) != "" || a.Line(500) != "" {
		t.Error("out of range lines should be empty")
	}
}

func TestIndexPostingsAscendingAndCopied(t *testing.T) {
	c := GenerateCorpus(2000, 1)
	idx := BuildIndex(c)
	p := idx.Postings("error")
	if len(p) == 0 {
		t.Fatal("expected postings for error")
	}
	for i := 1; i < len(p); i++ {
		if p[i] <= p[i-1] {
			t.Fatalf("postings not strictly ascending at %d: %v", i, p[i-1:i+1])
		}
	}
	p[0] = -99
	if idx.Postings("error")[0] == -99 {
		t.Error("Postings must return a copy")
	}
	if idx.Postings("absent") != nil {
		t.Error("expected nil for missing token")
	}
	terms := idx.Terms()
	for i := 1; i < len(terms); i++ {
		if terms[i] < terms[i-1] {
			t.Fatal("terms not sorted")
		}
	}
}

func TestIndexedSearchFindsFirstOccurrence(t *testing.T) {
	lines := []string{
		"[0] INFO: Request processed successfully",
		"[1] DEBUG: Connection established",
		"[2] ERROR: Connection timeout at service.auth.validate()",
		"[3] ERROR: Database connection failed",
	}
	s := newSearcher(NewCorpus(lines))
	ctx := context.Background()

	res, err := s.Search(ctx, "error", true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.FoundAt != 2 {
		t.Errorf("expected found at 2, got %+v", res)
	}
	if res.Algorithm != AlgorithmIndex || res.Complexity != "O(log n)" {
		t.Errorf("unexpected labels %+v", res)
	}
	// ceil(log2 4) + min(len([2,3]), 20)
	if res.Comparisons != 4 {
		t.Errorf("expected 4 comparisons, got %d", res.Comparisons)
	}

	miss, err := s.Search(ctx, "zzz-nonexistent", true)
	if err != nil {
		t.Fatal(err)
	}
	if miss.Found || miss.FoundAt != -1 {
		t.Errorf("expected not found, got %+v", miss)
	}
	if miss.Comparisons != 2 {
		t.Errorf("expected descent-only cost 2, got %d", miss.Comparisons)
	}
}

func TestIndexedSearchPrefersPriorityToken(t *testing.T) {
	lines := []string{
		"[0] DEBUG: Query executed in 45ms",
		"[1] ERROR: Database connection failed",
		"[2] ERROR: Connection timeout at service.auth.validate()",
	}
	s := newSearcher(NewCorpus(lines))
	res, err := s.Search(context.Background(), "database connection", true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.FoundAt != 1 {
		t.Errorf("expected found at 1, got %+v", res)
	}
}

func TestDrivingTokenFollowsQueryOrder(t *testing.T) {
	lines := []string{
		"[0] ERROR: Connection timeout at service.auth.validate()",
		"[1] WARN: Request timeout error from upstream",
	}
	s := newSearcher(NewCorpus(lines))
	tests := []struct {
		query string
		want  string
	}{
		{"timeout error", "timeout"},
		{"error timeout", "error"},
		{"upstream timeout", "timeout"},
		{"upstream request", "upstream"},
	}
	for _, tt := range tests {
		got, ok := s.drivingToken(Tokenize(tt.query))
		if !ok || got != tt.want {
			t.Errorf("drivingToken(%q) = %q, %v; want %q", tt.query, got, ok, tt.want)
		}
	}
	if _, ok := s.drivingToken(Tokenize("missing words")); ok {
		t.Error("expected no driving token for unindexed query")
	}
}

func TestIndexedSearchVerifiesWholeQuery(t *testing.T) {
	lines := []string{
		"[0] DEBUG: Connection established",
		"[1] ERROR: Connection timeout at service.auth.validate()",
	}
	s := newSearcher(NewCorpus(lines))
	res, _ := s.Search(context.Background(), "connection timeout", true)
	if res.FoundAt != 1 {
		t.Errorf("expected candidate 0 rejected and 1 accepted, got %+v", res)
	}
	res, _ = s.Search(context.Background(), "connection refused", true)
	if res.Found {
		t.Errorf("no line contains the phrase, got %+v", res)
	}
}

func TestLinearSearch(t *testing.T) {
	c := GenerateCorpus(3000, 9)
	s := newSearcher(c)

	res, err := s.Search(context.Background(), "zzz-nonexistent", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || res.Comparisons != 3000 {
		t.Errorf("expected full scan without match, got %+v", res)
	}
	if res.ResponseTimeMs != 90 {
		t.Errorf("expected 3 blocks x 30ms, got %v", res.ResponseTimeMs)
	}
	if res.Algorithm != AlgorithmLinear || res.Complexity != "O(n)" {
		t.Errorf("unexpected labels %+v", res)
	}

	hit, _ := s.Search(context.Background(), "[0] ", false)
	if !hit.Found || hit.FoundAt != 0 || hit.Comparisons != 1 {
		t.Errorf("expected first-line match, got %+v", hit)
	}
}

func TestSearchModesAgree(t *testing.T) {
	c := GenerateCorpus(DefaultCorpusSize, 42)
	s := newSearcher(c)
	ctx := context.Background()

	queries := []string{
		"error", "ERROR: Database connection failed", "connection timeout",
		"cache hit", "Scheduled job completed", "45ms", "memory usage",
		"service.auth.validate()", "[1234]", "warn",
	}
	for _, tpl := range Templates() {
		queries = append(queries, tpl)
	}
	for _, q := range queries {
		idx, err := s.Search(ctx, q, true)
		if err != nil {
			t.Fatal(err)
		}
		lin, err := s.Search(ctx, q, false)
		if err != nil {
			t.Fatal(err)
		}
		if idx.Found != lin.Found || idx.FoundAt != lin.FoundAt {
			t.Errorf("%q: indexed %+v, linear %+v", q, idx, lin)
			continue
		}
		if idx.Found && !strings.Contains(strings.ToLower(c.Line(idx.FoundAt)), strings.ToLower(q)) {
			t.Errorf("%q: line %d does not contain query", q, idx.FoundAt)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newSearcher(GenerateCorpus(10, 1))
	for _, useIndex := range []bool{true, false} {
		if _, err := s.Search(context.Background(), " \t", useIndex); !stderrors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("useIndex=%v: expected ErrInvalidInput, got %v", useIndex, err)
		}
	}
}

func BenchmarkBuildIndex(b *testing.B) {
	c := GenerateCorpus(DefaultCorpusSize, 42)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildIndex(c)
	}
}

func BenchmarkSearch(b *testing.B) {
	s := newSearcher(GenerateCorpus(DefaultCorpusSize, 42))
	ctx := context.Background()
	for _, mode := range []struct {
		name     string
		useIndex bool
	}{{"indexed", true}, {"linear", false}} {
		b.Run(mode.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := s.Search(ctx, "database connection failed", mode.useIndex); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	s := newSearcher(GenerateCorpus(DefaultCorpusSize, 42))
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			_, _ = s.Search(ctx, "connection timeout", true)
		}
	})
}
