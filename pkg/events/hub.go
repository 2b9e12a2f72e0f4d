package events

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives every event synchronously, in publish order.
type Sink interface {
	Handle(e Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e Event) error

func (f SinkFunc) Handle(e Event) error { return f(e) }

type EventHub struct {
	mu    sync.RWMutex
	subs  map[chan Event]struct{}
	sinks []Sink
}

func NewEventHub() *EventHub { return &EventHub{subs: make(map[chan Event]struct{})} }

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// AddSink registers s. Sinks run before channel subscribers are notified.
func (h *EventHub) AddSink(s Sink) {
	h.mu.Lock()
	h.sinks = append(h.sinks, s)
	h.mu.Unlock()
}

func (h *EventHub) Publish(name string, payload any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", name).Warn("failed to encode event")
		return
	}
	msg := Event{Name: name, Data: b}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sinks {
		if err := s.Handle(msg); err != nil {
			logrus.WithError(err).WithField("event", name).Warn("event sink failed")
		}
	}
	for ch := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- msg:
		default:
		}
	}
}
