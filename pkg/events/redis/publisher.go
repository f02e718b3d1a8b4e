// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/absmach/jelly/pkg/events"
	"github.com/go-redis/redis/v8"
)

// DataKey is the stream entry field holding the JSON encoded event.
const DataKey = "data"

var _ events.Publisher = (*pubEventStore)(nil)

type pubEventStore struct {
	client            *redis.Client
	unpublishedEvents chan *redis.XAddArgs
	stream            string
	mu                sync.Mutex
	flushPeriod       time.Duration
}

// NewPublisher returns a publisher appending events to a Redis stream.
// Events published while Redis is unreachable are buffered and retried
// every flushPeriod until ctx is done.
func NewPublisher(ctx context.Context, url, stream string, flushPeriod time.Duration) (events.Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return newPublisher(ctx, redis.NewClient(opts), stream, flushPeriod), nil
}

// NewClientPublisher returns a publisher using an existing client.
func NewClientPublisher(ctx context.Context, client *redis.Client, stream string, flushPeriod time.Duration) events.Publisher {
	return newPublisher(ctx, client, stream, flushPeriod)
}

func newPublisher(ctx context.Context, client *redis.Client, stream string, flushPeriod time.Duration) *pubEventStore {
	if flushPeriod <= 0 {
		flushPeriod = events.UnpublishedEventsCheckInterval
	}
	es := &pubEventStore{
		client:            client,
		unpublishedEvents: make(chan *redis.XAddArgs, events.MaxUnpublishedEvents),
		stream:            stream,
		flushPeriod:       flushPeriod,
	}

	go es.flushUnpublished(ctx)

	return es
}

func (es *pubEventStore) Publish(ctx context.Context, event events.Event) error {
	values, err := event.Encode()
	if err != nil {
		return err
	}
	values[events.OccurredAtKey] = time.Now().UnixNano()

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	record := &redis.XAddArgs{
		Stream: es.stream,
		MaxLen: events.MaxEventStreamLen,
		Approx: true,
		Values: map[string]interface{}{DataKey: string(data)},
	}

	if err := es.checkConnection(ctx); err == nil {
		return es.client.XAdd(ctx, record).Err()
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	// Drop the event when the buffer is full.
	if len(es.unpublishedEvents) == int(events.MaxUnpublishedEvents) {
		return nil
	}
	es.unpublishedEvents <- record

	return nil
}

func (es *pubEventStore) flushUnpublished(ctx context.Context) {
	ticker := time.NewTicker(es.flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := es.checkConnection(ctx); err != nil {
				continue
			}
			es.mu.Lock()
			for i := len(es.unpublishedEvents); i > 0; i-- {
				record := <-es.unpublishedEvents
				if err := es.client.XAdd(ctx, record).Err(); err != nil {
					es.unpublishedEvents <- record
					break
				}
			}
			es.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (es *pubEventStore) Close() error {
	return es.client.Close()
}

func (es *pubEventStore) checkConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, events.ConnCheckInterval)
	defer cancel()

	return es.client.Ping(ctx).Err()
}
