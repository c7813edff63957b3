// Event recording and change notification. Consumers subscribe for pushed
// events instead of polling snapshots on a timer; the in-memory ring keeps a
// recent window for the events endpoint and persistence.
package region

import (
	"sync"

	"github.com/mkessler/gridtown/internal/tuning"
)

// Event is a notable state change in the region.
type Event struct {
	Cycle       uint64 `json:"cycle"`
	Description string `json:"description"`
	Category    string `json:"category"` // "city", "grid", "budget", "trade", "project"
}

// Bus fans events out to subscribers. Delivery is best-effort: a subscriber
// that stops draining its channel loses events rather than stalling the
// simulation.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func removes it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// emit records an event in the ring and publishes it to subscribers.
// Callers hold the region lock.
func (r *Region) emit(category, description string) {
	e := Event{Cycle: r.cycle, Description: description, Category: category}
	r.events = append(r.events, e)
	if len(r.events) > tuning.MaxEventBuffer {
		r.events = r.events[len(r.events)-tuning.MaxEventBuffer:]
	}
	r.bus.Publish(e)
}
