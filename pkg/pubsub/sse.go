package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/sybil-ranker/pkg/logging"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind loses events rather than stalling Publish.
const subscriberBuffer = 64

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// topic is the state of one named stream.
type topic struct {
	config  TopicConfig
	version int
	recent  []Event // newest last, at most config.BufferSize
	subs    map[*sseSubscription]struct{}
}

func (t *topic) remember(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.recent = append(t.recent, event)
	t.trim()
}

func (t *topic) trim() {
	if over := len(t.recent) - t.config.BufferSize; over > 0 {
		t.recent = append([]Event(nil), t.recent[over:]...)
	}
}

// replay returns what a new subscriber gets before live events.
func (t *topic) replay() []Event {
	if t.config.ReplayAll || len(t.recent) == 0 {
		return t.recent
	}
	return t.recent[len(t.recent)-1:]
}

// SSEPublisher fans events out to subscribers of Server-Sent Event streams.
// One mutex guards every topic, so replay and live delivery never interleave.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// topicLocked returns the named topic, creating it on first use.
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic. Events already
// buffered beyond the new size are dropped.
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.topicLocked(name)
	t.config = config
	if config.BufferSize <= 0 {
		t.recent = nil
	}
	t.trim()
}

// Subscribe registers a subscriber on a topic. Buffered events are queued
// first; the subscription closes itself when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	t := p.topicLocked(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	replayed := 0
	for _, event := range t.replay() {
		if sub.deliver(event) {
			replayed++
		}
	}
	t.subs[sub] = struct{}{}
	sub.stop = context.AfterFunc(ctx, func() { _ = sub.Close() })

	logging.Debug("subscribed", "topic", name, "replayed", replayed, "subscribers", len(t.subs))
	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Subscribers with
// a full channel miss the event.
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    payload,
		Version: t.version,
	}
	t.remember(event)

	for sub := range t.subs {
		sub.deliver(event)
	}
	return nil
}

// Close ends every subscription and rejects further use.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			p.removeLocked(sub)
		}
	}
	return nil
}

// removeLocked detaches a subscription and closes its channel. It is a
// no-op for a subscription that is already gone.
func (p *SSEPublisher) removeLocked(sub *sseSubscription) {
	if sub.done {
		return
	}
	sub.done = true
	if sub.stop != nil {
		sub.stop()
	}
	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
	close(sub.events)
}

// sseSubscription is a registered subscriber. Its fields after publisher
// are guarded by the publisher's mutex.
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	done bool
	stop func() bool // releases the context watch
}

func (s *sseSubscription) deliver(event Event) bool {
	select {
	case s.events <- event:
		return true
	default:
		logging.Warn("subscription channel full, dropping event", "topic", s.topic, "version", event.Version)
		return false
	}
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns the event stream. It is closed once the subscription ends.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes and closes the event channel. Repeated calls are fine.
func (s *sseSubscription) Close() error {
	s.publisher.mu.Lock()
	defer s.publisher.mu.Unlock()
	s.publisher.removeLocked(s)
	return nil
}

// WriteSSE writes an event as one SSE message. The version doubles as the
// event id so clients can tell where they left off.
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, payload)
	return err
}
