package logsearch

import "sort"

// Index maps each token to the ascending positions of the lines containing
// it. It is built once and never mutated, so concurrent reads need no lock.
type Index struct {
	postings map[string][]int
	lines    int
}

// BuildIndex tokenizes every line of c, including its "[i]" prefix.
func BuildIndex(c *Corpus) *Index {
	idx := &Index{
		postings: make(map[string][]int),
		lines:    c.Len(),
	}
	for pos, line := range c.lines {
		seen := make(map[string]struct{}, 8)
		for _, tok := range Tokenize(line) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			idx.postings[tok] = append(idx.postings[tok], pos)
		}
	}
	return idx
}

// Postings returns a copy of the posting list for token, nil if absent.
func (idx *Index) Postings(token string) []int {
	p, ok := idx.postings[token]
	if !ok {
		return nil
	}
	return append([]int(nil), p...)
}

func (idx *Index) Has(token string) bool {
	_, ok := idx.postings[token]
	return ok
}

// Terms returns every indexed token in sorted order.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.postings))
	for t := range idx.postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Lines is the number of corpus lines the index was built over.
func (idx *Index) Lines() int { return idx.lines }
