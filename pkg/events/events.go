// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"time"
)

const (
	// UnpublishedEventsCheckInterval is the default flush period of events
	// buffered while the broker was unreachable.
	UnpublishedEventsCheckInterval        = 1 * time.Minute
	ConnCheckInterval                     = 100 * time.Millisecond
	MaxUnpublishedEvents           uint64 = 1e4
	MaxEventStreamLen              int64  = 1e6

	// OperationKey is the event field carrying the event name.
	OperationKey = "operation"
	// OccurredAtKey is the event field set by publishers to the publish
	// time in Unix nanoseconds.
	OccurredAtKey = "occurred_at"
)

// Event represents an event.
type Event interface {
	// Encode encodes event to map.
	Encode() (map[string]interface{}, error)
}

// Publisher specifies events publishing API.
type Publisher interface {
	// Publish publishes event to stream.
	Publish(ctx context.Context, event Event) error

	// Close gracefully closes event publisher's connection.
	Close() error
}

// EventHandler represents event handler for Subscriber.
type EventHandler interface {
	// Handle handles events passed by underlying implementation.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// SubscriberConfig represents event subscriber configuration.
type SubscriberConfig struct {
	Consumer string
	Stream   string
	Handler  EventHandler
}

// Subscriber specifies event subscription API.
type Subscriber interface {
	// Subscribe subscribes to the event stream and consumes events until
	// ctx is done.
	Subscribe(ctx context.Context, cfg SubscriberConfig) error

	// Close gracefully closes event subscriber's connection.
	Close() error
}

// Data is an event decoded by a subscriber.
type Data map[string]interface{}

// Encode returns the decoded fields.
func (d Data) Encode() (map[string]interface{}, error) {
	return d, nil
}

// Read reads value from event map.
// If value is not of type T, returns default value.
func Read[T any](event map[string]interface{}, key string, def T) T {
	val, ok := event[key].(T)
	if !ok {
		return def
	}

	return val
}

// ReadStringSlice reads string slice from event map.
// If value is not a string slice, returns empty slice.
func ReadStringSlice(event map[string]interface{}, key string) []string {
	var res []string

	switch vals := event[key].(type) {
	case []string:
		return vals
	case []interface{}:
		for _, v := range vals {
			if s, ok := v.(string); ok {
				res = append(res, s)
			}
		}
	}

	return res
}
