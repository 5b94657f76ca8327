package analytics

import "time"

type Surface string

const (
	SurfaceChat Surface = "chat"
	SurfaceDemo Surface = "demo"
)

// Event describes one handled request. Kind is the classified intent for chat
// and the demo type for demo requests.
type Event struct {
	// ID is a ULID assigned by Collector.Track when empty, so downstream
	// consumers can drop redelivered records.
	ID        string    `json:"id"`
	Surface   Surface   `json:"surface"`
	Kind      string    `json:"kind"`
	Mode      string    `json:"mode,omitempty"`
	CacheHit  bool      `json:"cache_hit,omitempty"`
	Success   bool      `json:"success"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Sink receives every tracked event.
type Sink interface {
	Record(Event)
}

// Tracker accepts events from request handlers. *Collector implements it.
type Tracker interface {
	Track(Event)
}
