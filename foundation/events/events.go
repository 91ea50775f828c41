// Package events provides fan-out of node activity messages to any number
// of subscribers, typically websocket clients watching validation and
// mining progress.
package events

import (
	"fmt"
	"sync"
)

// subscriberBuffer sizes each subscriber channel. A slow websocket writer
// drops messages rather than blocking the node's mining and validation
// goroutines.
const subscriberBuffer = 100

// Events maintains the set of subscriber channels keyed by a unique id.
type Events struct {
	subscribers map[string]chan string
	mu          sync.RWMutex
}

// New constructs an Events value for subscribing and publishing.
func New() *Events {
	return &Events{
		subscribers: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subscribers {
		delete(evt.subscribers, id)
		close(ch)
	}
}

// Acquire returns the channel for the specified id, creating it on first
// use.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subscribers[id]; exists {
		return ch
	}

	evt.subscribers[id] = make(chan string, subscriberBuffer)
	return evt.subscribers[id]
}

// Release closes and removes the channel for the specified id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subscribers[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subscribers, id)
	close(ch)
	return nil
}

// Send delivers the formatted message to every subscriber without
// blocking. A subscriber whose buffer is full misses the message.
func (evt *Events) Send(v string, args ...any) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	s := v
	if len(args) > 0 {
		s = fmt.Sprintf(v, args...)
	}

	for _, ch := range evt.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}
