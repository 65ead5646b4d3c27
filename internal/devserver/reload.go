package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/temple/internal/telemetry"
)

// EventsPath is the server-sent events endpoint the reload client listens on.
const EventsPath = "/__temple/events"

// ReloadScript is injected into generated pages while serving. It reloads the
// page whenever a rebuild succeeds.
const ReloadScript = `(() => {
  const events = new EventSource("` + EventsPath + `");
  events.addEventListener("reload", () => window.location.reload());
})();`

// broker fans reload events out to connected clients.
type broker struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	closed  bool
	logger  zerolog.Logger
}

func newBroker(logger zerolog.Logger) *broker {
	return &broker{
		clients: make(map[chan string]struct{}),
		logger:  logger,
	}
}

func (b *broker) subscribe() (chan string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, false
	}
	ch := make(chan string, 1)
	b.clients[ch] = struct{}{}
	telemetry.GetMetrics().ReloadClients.Add(context.Background(), 1)
	return ch, true
}

func (b *broker) unsubscribe(ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[ch]; ok {
		b.remove(ch)
	}
}

// publish sends the build id to every client without blocking. A client that
// has not consumed the previous event already has a reload pending.
func (b *broker) publish(buildID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.clients {
		select {
		case ch <- buildID:
		default:
			b.logger.Debug().Msg("Skipped reload for busy client")
		}
	}
	return len(b.clients)
}

// close disconnects every client; later subscriptions are refused.
func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.clients {
		b.remove(ch)
	}
}

func (b *broker) remove(ch chan string) {
	delete(b.clients, ch)
	close(ch)
	telemetry.GetMetrics().ReloadClients.Add(context.Background(), -1)
}

func (b *broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, ok := b.subscribe()
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer b.unsubscribe(ch)

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		b.logger.Debug().Err(err).Msg("Failed to clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 1000\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		b.logger.Warn().Err(err).Msg("Event stream does not support flushing")
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case buildID, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: reload\ndata: %s\n\n", buildID); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
