// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/absmach/jelly/pkg/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var _ events.Subscriber = (*subEventStore)(nil)

type subEventStore struct {
	conn   *nats.Conn
	stream jetstream.Stream
	logger *slog.Logger
}

// NewSubscriber returns a subscriber consuming the JetStream event stream
// with durable consumers.
func NewSubscriber(ctx context.Context, url string, logger *slog.Logger) (events.Subscriber, error) {
	conn, err := nats.Connect(url, nats.MaxReconnects(maxReconnects))
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	stream, err := js.CreateStream(ctx, jsStreamConfig)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &subEventStore{
		conn:   conn,
		stream: stream,
		logger: logger,
	}, nil
}

func (es *subEventStore) Subscribe(ctx context.Context, cfg events.SubscriberConfig) error {
	if cfg.Stream == "" {
		return ErrEmptyStream
	}
	if cfg.Consumer == "" {
		return ErrEmptyConsumer
	}

	consumer, err := es.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.Consumer,
		FilterSubject: subject(cfg.Stream),
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		es.handle(ctx, msg, cfg.Handler)
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	return nil
}

func (es *subEventStore) Close() error {
	return es.conn.Drain()
}

func (es *subEventStore) handle(ctx context.Context, msg jetstream.Msg, h events.EventHandler) {
	var data events.Data
	if err := json.Unmarshal(msg.Data(), &data); err != nil {
		es.logger.Warn("Failed to decode nats event", slog.String("subject", msg.Subject()), slog.Any("error", err))
		if err := msg.Term(); err != nil {
			es.logger.Warn("Failed to terminate nats event", slog.Any("error", err))
		}
		return
	}

	if err := h.Handle(ctx, data); err != nil {
		es.logger.Warn("Failed to handle nats event", slog.String("subject", msg.Subject()), slog.Any("error", err))
		if err := msg.Nak(); err != nil {
			es.logger.Warn("Failed to nak nats event", slog.Any("error", err))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		es.logger.Warn("Failed to ack nats event", slog.Any("error", err))
	}
}
