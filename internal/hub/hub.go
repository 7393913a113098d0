package hub

import (
	"sync"

	"github.com/tazhibayda/foodshare-service/internal/domain"
	"github.com/tazhibayda/foodshare-service/internal/log"
	"github.com/tazhibayda/foodshare-service/internal/metrics"
	"go.uber.org/zap"
)

// subscriber channel buffer; a consumer that falls this far behind starts
// losing events and must refresh state via the listings API anyway.
const sendBuffer = 16

// Hub fans listing events out to currently connected subscribers.
// Best-effort: no replay for late joiners, no delivery confirmation. The
// hub's mutex guards only the subscriber set, never listing state, and
// sends never block (buffered channel + drop), so one dead consumer cannot
// stall the rest.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	closed bool
}

type Subscriber struct {
	ch chan domain.Event
}

// Events is the receive side; the channel closes on Unsubscribe or hub Close.
func (s *Subscriber) Events() <-chan domain.Event { return s.ch }

func New() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan domain.Event, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	metrics.Subscribers.Inc()
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
	metrics.Subscribers.Dec()
}

// Broadcast delivers ev to every live subscriber. Sends happen under RLock —
// that only excludes close, not other broadcasts — and are non-blocking:
// a full buffer means the event is dropped for that subscriber.
func (h *Hub) Broadcast(ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	metrics.EventsBroadcast.WithLabelValues(string(ev.Type)).Inc()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			metrics.EventsDropped.Inc()
			log.L().Debug("hub: slow subscriber, event dropped",
				zap.String("type", string(ev.Type)), zap.Int64("listing_id", ev.Listing.ID))
		}
	}
}

// Close disconnects everyone; further Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
		metrics.Subscribers.Dec()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
