// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/absmach/jelly/pkg/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ events.Publisher = (*pubEventStore)(nil)

type pubEventStore struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	key      string
	mu       sync.Mutex
	returned chan amqp.Return
}

// NewPublisher returns a publisher sending events to a durable topic
// exchange. Unroutable events are republished until ctx is done.
func NewPublisher(ctx context.Context, url, stream string) (events.Publisher, error) {
	if stream == "" {
		return nil, ErrEmptyStream
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	es := &pubEventStore{
		conn:     conn,
		ch:       ch,
		key:      routingKey(stream),
		returned: make(chan amqp.Return, events.MaxUnpublishedEvents),
	}
	ch.NotifyReturn(es.returned)

	go es.republish(ctx)

	return es, nil
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

	return es.publish(ctx, data)
}

func (es *pubEventStore) publish(ctx context.Context, data []byte) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	return es.ch.PublishWithContext(ctx, exchangeName, es.key, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
}

// republish retries events returned because no queue was bound yet.
func (es *pubEventStore) republish(ctx context.Context) {
	ticker := time.NewTicker(events.UnpublishedEventsCheckInterval)
	defer ticker.Stop()

	pending := [][]byte{}
	for {
		select {
		case ret, ok := <-es.returned:
			if !ok {
				return
			}
			if len(pending) < int(events.MaxUnpublishedEvents) {
				pending = append(pending, ret.Body)
			}
		case <-ticker.C:
			for len(pending) > 0 {
				if err := es.publish(ctx, pending[0]); err != nil {
					break
				}
				pending = pending[1:]
			}
		case <-ctx.Done():
			return
		}
	}
}

func (es *pubEventStore) Close() error {
	return es.conn.Close()
}
