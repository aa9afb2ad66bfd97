package deliveries

import "sync"

// Feed fans logged entries out to live subscribers. A subscriber whose
// buffer is full misses entries; Publish never blocks.
type Feed struct {
	mu   sync.Mutex
	subs map[chan Entry]struct{}
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan Entry]struct{})}
}

// Subscribe registers a subscriber and returns its channel and a function
// that unregisters it and closes the channel.
func (f *Feed) Subscribe(buffer int) (<-chan Entry, func()) {
	ch := make(chan Entry, buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer.
func (f *Feed) Publish(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers reports how many subscribers are registered.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
