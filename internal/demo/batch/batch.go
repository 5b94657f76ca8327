// Package batch implements the request-batching demo: the same number of
// jobs dispatched either in pooled groups or one connection per job.
package batch

import (
	"context"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

const (
	DefaultCount     = 12
	DefaultGroupSize = 4
	DefaultMaxCount  = 200

	MethodBatched    = "batch_with_pooling"
	MethodIndividual = "individual_connections"
)

var (
	groupRoundTrip = simulate.Range{Min: 50 * time.Millisecond, Max: 80 * time.Millisecond}
	itemRoundTrip  = simulate.Range{Min: 80 * time.Millisecond, Max: 120 * time.Millisecond}
)

// Completion marks job ID done ProcessedAtMs simulated milliseconds into
// the run.
type Completion struct {
	ID            int     `json:"id"`
	ProcessedAtMs float64 `json:"processedAt"`
}

type RunResult struct {
	Results         []Completion `json:"results"`
	TotalTimeMs     float64      `json:"totalTime"`
	ItemCount       int          `json:"itemCount"`
	ConnectionsUsed int          `json:"connectionsUsed"`
	Method          string       `json:"method"`
	Efficiency      string       `json:"efficiency"`
}

type Kernel struct {
	groupSize int
	maxCount  int
	env       simulate.Env
}

func NewKernel(groupSize, maxCount int, env simulate.Env) *Kernel {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &Kernel{groupSize: groupSize, maxCount: maxCount, env: env}
}

// Run dispatches count jobs. Results are always in id order 0..count-1; a
// zero count is an empty run. Callers substitute DefaultCount when the
// client sent no count at all.
func (k *Kernel) Run(ctx context.Context, count int, batched bool) (*RunResult, error) {
	if count < 0 || count > k.maxCount {
		return nil, errors.Invalid("count must be between 0 and %d, got %d", k.maxCount, count)
	}

	res := &RunResult{
		Results:   make([]Completion, 0, count),
		ItemCount: count,
	}
	var elapsed time.Duration

	if batched {
		res.Method, res.Efficiency, res.ConnectionsUsed = MethodBatched, "optimized", 1
		for start := 0; start < count; start += k.groupSize {
			d, err := k.env.Spend(ctx, groupRoundTrip)
			if err != nil {
				return nil, err
			}
			elapsed += d
			for id := start; id < min(start+k.groupSize, count); id++ {
				res.Results = append(res.Results, Completion{ID: id, ProcessedAtMs: simulate.Millis(elapsed)})
			}
		}
	} else {
		res.Method, res.Efficiency, res.ConnectionsUsed = MethodIndividual, "naive", count
		for id := 0; id < count; id++ {
			d, err := k.env.Spend(ctx, itemRoundTrip)
			if err != nil {
				return nil, err
			}
			elapsed += d
			res.Results = append(res.Results, Completion{ID: id, ProcessedAtMs: simulate.Millis(elapsed)})
		}
	}

	res.TotalTimeMs = simulate.Millis(elapsed)
	return res, nil
}
