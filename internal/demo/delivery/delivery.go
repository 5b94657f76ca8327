// Package delivery implements the push-versus-poll demo: the cost of
// receiving the next dashboard event over a persistent push channel or by
// repeated polling.
package delivery

import (
	"context"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

const (
	MethodPush = "websocket_push"
	MethodPoll = "http_polling"

	pushLoad    = 5
	pollBase    = 15
	pollStep    = 15
	pollLoadCap = 95
)

var (
	pushLatency = simulate.Range{Min: 5 * time.Millisecond, Max: 20 * time.Millisecond}
	pollLatency = simulate.Range{Min: 200 * time.Millisecond, Max: 500 * time.Millisecond}
)

// Event is one delivered update. LatencyMs and ServerLoadPercent are
// simulated.
type Event struct {
	EventID           int     `json:"eventId"`
	Value             int     `json:"value"`
	LatencyMs         float64 `json:"latency"`
	ServerLoadPercent int     `json:"serverLoad"`
	Method            string  `json:"method"`
	Protocol          string  `json:"protocol"`
}

type Kernel struct {
	env simulate.Env
}

func NewKernel(env simulate.Env) *Kernel {
	return &Kernel{env: env}
}

// NextEvent produces event seq. Poll load grows with seq because every poll
// opens a fresh connection.
func (k *Kernel) NextEvent(ctx context.Context, seq int, push bool) (*Event, error) {
	if seq < 0 {
		return nil, errors.Invalid("eventId must not be negative, got %d", seq)
	}
	ev := &Event{EventID: seq}
	band := pollLatency
	if push {
		band = pushLatency
		ev.ServerLoadPercent = pushLoad
		ev.Method, ev.Protocol = MethodPush, "ws://"
	} else {
		ev.ServerLoadPercent = PollLoad(seq)
		ev.Method, ev.Protocol = MethodPoll, "http://"
	}

	d, err := k.env.Spend(ctx, band)
	if err != nil {
		return nil, err
	}
	ev.LatencyMs = simulate.Millis(d)
	ev.Value = k.env.Rand.Intn(100)
	return ev, nil
}

// PollLoad is the modelled server load after seq polls, capped at 95%.
func PollLoad(seq int) int {
	if seq > (pollLoadCap-pollBase)/pollStep {
		return pollLoadCap
	}
	return min(pollBase+seq*pollStep, pollLoadCap)
}
