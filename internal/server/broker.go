package server

import (
	"encoding/json"
	"sync"
)

// Broker is an in-process pub/sub for live feeds, keyed by session or run ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for id.
func (b *Broker) Subscribe(id string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[chan []byte]struct{})
	}
	b.subs[id][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from id's subscribers.
func (b *Broker) Unsubscribe(id string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[id], ch)
	if len(b.subs[id]) == 0 {
		delete(b.subs, id)
	}
	b.mu.Unlock()
}

// Publish sends event to all subscribers of id.
func (b *Broker) Publish(id string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	b.mu.RLock()
	for ch := range b.subs[id] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers is the number of live subscriptions for id.
func (b *Broker) Subscribers(id string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[id])
}
