// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/absmach/jelly/pkg/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var _ events.Publisher = (*pubEventStore)(nil)

type pubEventStore struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher returns a publisher sending events to a JetStream stream.
func NewPublisher(ctx context.Context, url, stream string) (events.Publisher, error) {
	if stream == "" {
		return nil, ErrEmptyStream
	}

	conn, err := nats.Connect(url, nats.MaxReconnects(maxReconnects))
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := js.CreateStream(ctx, jsStreamConfig); err != nil {
		conn.Close()
		return nil, err
	}

	return &pubEventStore{
		conn:    conn,
		js:      js,
		subject: subject(stream),
	}, nil
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

	_, err = es.js.Publish(ctx, es.subject, data)

	return err
}

func (es *pubEventStore) Close() error {
	return es.conn.Drain()
}
