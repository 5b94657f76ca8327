// Package logsearch implements the log-search demo: a synthetic log corpus,
// an inverted index built over it once at startup, and two search modes
// (index lookup and sequential scan) whose costs can be compared.
package logsearch

import (
	"fmt"
	"strings"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
)

// DefaultCorpusSize is the number of generated log lines.
const DefaultCorpusSize = 10000

var templates = []string{
	"INFO: Request processed successfully",
	"DEBUG: Connection established",
	"WARN: High memory usage detected",
	"ERROR: Connection timeout at service.auth.validate()",
	"INFO: Cache hit for user session",
	"DEBUG: Query executed in 45ms",
	"ERROR: Database connection failed",
	"INFO: Scheduled job completed",
}

// Templates returns the message templates the corpus is sampled from.
func Templates() []string {
	return append([]string(nil), templates...)
}

// Corpus is an immutable, ordered set of log lines.
type Corpus struct {
	lines []string
	lower []string
}

// GenerateCorpus samples size lines of the form "[i] <template>". The same
// seed always yields the same corpus.
func GenerateCorpus(size int, seed int64) *Corpus {
	if size <= 0 {
		size = DefaultCorpusSize
	}
	r := simulate.NewRand(seed)
	lines := make([]string, size)
	for i := range lines {
		lines[i] = fmt.Sprintf("[%d] %s", i, templates[r.Intn(len(templates))])
	}
	return NewCorpus(lines)
}

// NewCorpus wraps lines as given. The slice is copied.
func NewCorpus(lines []string) *Corpus {
	c := &Corpus{
		lines: append([]string(nil), lines...),
		lower: make([]string, len(lines)),
	}
	for i, l := range c.lines {
		c.lower[i] = strings.ToLower(l)
	}
	return c
}

func (c *Corpus) Len() int { return len(c.lines) }

// Line returns the line at position i, or "" when i is out of range.
func (c *Corpus) Line(i int) string {
	if i < 0 || i >= len(c.lines) {
		return ""
	}
	return c.lines[i]
}

func (c *Corpus) containsFold(i int, lowerQuery string) bool {
	return strings.Contains(c.lower[i], lowerQuery)
}
