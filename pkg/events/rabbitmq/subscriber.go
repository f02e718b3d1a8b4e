// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/absmach/jelly/pkg/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ events.Subscriber = (*subEventStore)(nil)

type subEventStore struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

// NewSubscriber returns a subscriber consuming events through durable
// queues bound to the event exchange.
func NewSubscriber(url string, logger *slog.Logger) (events.Subscriber, error) {
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

	return &subEventStore{
		conn:   conn,
		ch:     ch,
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

	queue := cfg.Consumer + "." + routingKey(cfg.Stream)
	if _, err := es.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := es.ch.QueueBind(queue, routingKey(cfg.Stream), exchangeName, false, nil); err != nil {
		return err
	}
	deliveries, err := es.ch.Consume(queue, cfg.Consumer, false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := es.ch.Cancel(cfg.Consumer, false); err != nil && !es.conn.IsClosed() {
			es.logger.Warn("Failed to cancel rabbitmq consumer", slog.Any("error", err))
		}
	}()
	go func() {
		for d := range deliveries {
			es.handle(ctx, d, cfg.Handler)
		}
	}()

	return nil
}

func (es *subEventStore) Close() error {
	return es.conn.Close()
}

func (es *subEventStore) handle(ctx context.Context, d amqp.Delivery, h events.EventHandler) {
	var data events.Data
	if err := json.Unmarshal(d.Body, &data); err != nil {
		es.logger.Warn("Failed to decode rabbitmq event", slog.Any("error", err))
		if err := d.Reject(false); err != nil {
			es.logger.Warn("Failed to reject rabbitmq event", slog.Any("error", err))
		}
		return
	}

	if err := h.Handle(ctx, data); err != nil {
		es.logger.Warn("Failed to handle rabbitmq event", slog.Any("error", err))
		if err := d.Nack(false, true); err != nil {
			es.logger.Warn("Failed to nack rabbitmq event", slog.Any("error", err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		es.logger.Warn("Failed to ack rabbitmq event", slog.Any("error", err))
	}
}
