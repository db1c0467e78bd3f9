package cart

import (
	"context"
	"sync"
)

// Hub fans cart updates out to subscribers, keyed by topic. Publish calls the
// subscribers synchronously; each gets its own copy of the lines.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]func([]Line)
	seq  uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func([]Line))}
}

// Subscribe registers fn for topic and returns a function that removes it.
func (h *Hub) Subscribe(topic string, fn func([]Line)) func() {
	h.mu.Lock()
	h.seq++
	id := h.seq
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]func([]Line))
	}
	h.subs[topic][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers lines to every subscriber of topic.
func (h *Hub) Publish(topic string, lines []Line) {
	h.mu.RLock()
	fns := make([]func([]Line), 0, len(h.subs[topic]))
	for _, fn := range h.subs[topic] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(cloneLines(lines))
	}
}

// Subscribers returns how many subscribers topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Watch adapts a subscription to a channel that always holds the latest
// update. The channel is closed once ctx is done.
func (h *Hub) Watch(ctx context.Context, topic string) <-chan []Line {
	out := make(chan []Line, 1)
	var mu sync.Mutex
	closed := false

	unsubscribe := h.Subscribe(topic, func(lines []Line) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- lines:
		default:
			// drop the stale update the reader has not picked up yet
			select {
			case <-out:
			default:
			}
			out <- lines
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}
