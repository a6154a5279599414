package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// Broadcaster fans events out to in-process subscribers over typed channels.
// Publish never blocks: a subscriber whose buffer is full misses the event,
// and the miss is counted in Dropped.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	next    int
	buffer  int
	closed  bool
	dropped atomic.Int64
}

type subscription struct {
	ch    chan Event
	types map[Type]bool
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{subs: make(map[int]*subscription), buffer: buffer}
}

// Subscribe returns a channel receiving events of the given types, or all
// types when none are named. The returned cancel func closes the channel.
func (b *Broadcaster) Subscribe(types ...Type) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{ch: make(chan Event, b.buffer)}
	if len(types) > 0 {
		sub.types = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
		})
	}
}

func (b *Broadcaster) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Run delivers events from ch to h until ch is closed or ctx is done.
// Handler errors are passed to onErr and do not stop the loop.
func Run(ctx context.Context, ch <-chan Event, h Handler, onErr func(Event, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := h(ctx, ev); err != nil && onErr != nil {
				onErr(ev, err)
			}
		}
	}
}
