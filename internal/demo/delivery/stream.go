package delivery

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
)

const (
	defaultStreamEvents = 10
	writeWait           = 5 * time.Second
)

// StreamHandler upgrades to a WebSocket and pushes a finite run of
// push-mode events, one JSON frame each, then closes normally.
type StreamHandler struct {
	kernel    *Kernel
	maxEvents int
	upgrader  websocket.Upgrader
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewStreamHandler(kernel *Kernel, maxEvents int, allowOrigins []string, m *metrics.Metrics) *StreamHandler {
	if maxEvents <= 0 {
		maxEvents = 100
	}
	return &StreamHandler{
		kernel:    kernel,
		maxEvents: maxEvents,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		metrics: m,
		logger:  slog.Default().With("component", "realtime-stream"),
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	count := defaultStreamEvents
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.maxEvents {
			http.Error(w, "count must be between 1 and "+strconv.Itoa(h.maxEvents), http.StatusBadRequest)
			return
		}
		count = n
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	ctx := r.Context()
	for seq := 0; seq < count; seq++ {
		ev, err := h.kernel.NextEvent(ctx, seq, true)
		if err != nil {
			h.logger.Debug("stream aborted", "sent", seq, "error", err)
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("stream write failed", "sent", seq, "error", err)
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		h.logger.Debug("close frame failed", "error", err)
	}
	h.logger.Debug("stream complete", "events", count)
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
