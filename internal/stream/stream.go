package stream

import (
	"context"
	"sync"
	"time"
)

// DonationEvent describes a donation as it lands, for live dashboard feeds.
type DonationEvent struct {
	InternID   string    `json:"internId"`
	InternName string    `json:"internName"`
	Amount     int64     `json:"amount"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// Feed fan-outs donation events to all active subscribers (SSE clients).
type Feed struct {
	mu   sync.RWMutex
	subs map[int]chan DonationEvent
	next int
}

// New initialises an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[int]chan DonationEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (f *Feed) Subscribe(ctx context.Context) <-chan DonationEvent {
	ch := make(chan DonationEvent, 16)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (f *Feed) Publish(evt DonationEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
