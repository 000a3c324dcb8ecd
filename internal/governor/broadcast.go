package governor

import (
	"sync"

	"github.com/kasard/thermactl/internal/thermal"
)

const defaultSubscriberBuffer = 16

// broadcaster fans status changes out to any number of subscribers.
// Delivery is lossy: a subscriber that falls behind loses its oldest
// notification and never blocks the governor's loop. Consumers that
// need the truth read Status() on demand.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan thermal.Status
	nextID int
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan thermal.Status)}
}

func (b *broadcaster) subscribe(buffer int) (<-chan thermal.Status, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan thermal.Status, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *broadcaster) publish(status thermal.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub <- status:
		default:
			// Full buffer: drop the oldest so the newest always lands.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- status:
			default:
			}
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub)
	}
}
