// Package watch fans out document-store change deltas to live subscribers,
// the in-process equivalent of a store's snapshot listeners.
package watch

import (
	"fmt"
	"log/slog"
	"sync"
)

// Op is the kind of change a delta describes.
type Op string

const (
	OpAdded    Op = "ADDED"
	OpModified Op = "MODIFIED"
	OpRemoved  Op = "REMOVED"
)

// Delta is one change to a document in a watched topic. Doc carries the
// document payload for adds and modifications; it is nil for removals.
type Delta struct {
	Topic string
	Op    Op
	Key   string // document id within the topic
	Doc   any
}

// Well-known topics.
const TopicListings = "listings"

// FavoritesTopic names the per-user favorites subtree.
func FavoritesTopic(userID string) string { return "favorites/" + userID }

// ErrSlowSubscriber is reported by Subscription.Err after the hub drops a
// subscriber that stopped draining its channel. Missing even one delta
// would leave the consumer's cache silently stale, so the stream is killed
// instead and the consumer surfaces a subscription failure.
var ErrSlowSubscriber = fmt.Errorf("subscriber too slow, stream closed")

// Subscription is a live delta stream for one topic. The channel is closed
// when the subscription ends; Err distinguishes a clean Cancel (nil) from a
// broken stream.
type Subscription struct {
	topic string
	ch    chan Delta
	hub   *Hub

	mu     sync.Mutex
	closed bool
	err    error
}

// Deltas returns the stream channel. It is closed on Cancel or failure.
func (s *Subscription) Deltas() <-chan Delta { return s.ch }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Err returns the terminal error, if any, once Deltas is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel detaches the subscription and closes its channel. Safe to call
// more than once. Every subscriber must cancel when its owning view goes
// away or the authenticated identity changes; this is a release contract,
// not an optimization.
func (s *Subscription) Cancel() {
	s.hub.unsubscribe(s, nil)
}

// Hub routes deltas from repository writes to active subscriptions.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
	log  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log.With("component", "watch_hub"),
	}
}

// Subscribe registers a new subscription on topic with the given channel
// buffer. The caller must drain Deltas promptly or the stream is closed
// with ErrSlowSubscriber.
func (h *Hub) Subscribe(topic string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	s := &Subscription{
		topic: topic,
		ch:    make(chan Delta, buffer),
		hub:   h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][s] = struct{}{}
	return s
}

// Publish delivers a delta to every subscription on its topic. Non-blocking:
// a subscriber with a full buffer is dropped rather than stalling writers.
func (h *Hub) Publish(d Delta) {
	h.mu.RLock()
	var slow []*Subscription
	for s := range h.subs[d.Topic] {
		select {
		case s.ch <- d:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn("dropping slow subscriber", slog.String("topic", d.Topic))
		h.unsubscribe(s, ErrSlowSubscriber)
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) unsubscribe(s *Subscription, cause error) {
	h.mu.Lock()
	if set, ok := h.subs[s.topic]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.topic)
		}
	}
	h.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = cause
	close(s.ch)
}
