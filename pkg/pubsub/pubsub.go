package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// Topics published by the ranking server
const (
	TopicRunStatus = "run_status"
	TopicScores    = "scores"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "run_status", "scores")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "propagating", "updated")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RunStatus represents the progress of a ranking run
type RunStatus struct {
	State   string `json:"state"`   // loading, building, inspecting, propagating, writing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// ScoresUpdate announces a new score vector
type ScoresUpdate struct {
	RunID      string  `json:"run_id"`
	Algorithm  string  `json:"algorithm"`
	Nodes      int     `json:"nodes"`
	Iterations int     `json:"iterations"`
	Mean       float64 `json:"mean"`
}

//--------------------------ERROR-CODES--------------------------

var ErrClosed = errors.New("publisher is closed")
