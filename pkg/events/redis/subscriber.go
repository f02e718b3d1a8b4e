// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/absmach/jelly/pkg/events"
	"github.com/go-redis/redis/v8"
)

const (
	eventCount = 100
	exists     = "BUSYGROUP"
	group      = "jelly"
	readBlock  = time.Second
)

var _ events.Subscriber = (*subEventStore)(nil)

var (
	// ErrEmptyStream is returned when stream name is empty.
	ErrEmptyStream = errors.New("stream name cannot be empty")

	// ErrEmptyConsumer is returned when consumer name is empty.
	ErrEmptyConsumer = errors.New("consumer name cannot be empty")

	errMissingData = errors.New("stream entry has no event data")
)

type subEventStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewSubscriber returns a subscriber reading Redis streams with a
// consumer group.
func NewSubscriber(url string, logger *slog.Logger) (events.Subscriber, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &subEventStore{
		client: redis.NewClient(opts),
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

	err := es.client.XGroupCreateMkStream(ctx, cfg.Stream, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), exists) {
		return err
	}

	go func() {
		for ctx.Err() == nil {
			streams, err := es.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    group,
				Consumer: cfg.Consumer,
				Streams:  []string{cfg.Stream, ">"},
				Count:    eventCount,
				Block:    readBlock,
			}).Result()
			switch {
			case errors.Is(err, redis.Nil):
				continue
			case err != nil:
				if ctx.Err() == nil {
					es.logger.Warn("Failed to read from redis stream", slog.String("stream", cfg.Stream), slog.Any("error", err))
				}
				continue
			}
			for _, s := range streams {
				es.handle(ctx, s.Stream, s.Messages, cfg.Handler)
			}
		}
	}()

	return nil
}

func (es *subEventStore) Close() error {
	return es.client.Close()
}

func (es *subEventStore) handle(ctx context.Context, stream string, msgs []redis.XMessage, h events.EventHandler) {
	for _, msg := range msgs {
		data, err := decode(msg)
		if err != nil {
			es.logger.Warn("Failed to decode redis event", slog.String("id", msg.ID), slog.Any("error", err))
			return
		}

		if err := h.Handle(ctx, data); err != nil {
			es.logger.Warn("Failed to handle redis event", slog.String("id", msg.ID), slog.Any("error", err))
			return
		}

		if err := es.client.XAck(ctx, stream, group, msg.ID).Err(); err != nil {
			es.logger.Warn("Failed to ack redis event", slog.String("id", msg.ID), slog.Any("error", err))
			return
		}
	}
}

func decode(msg redis.XMessage) (events.Data, error) {
	raw, ok := msg.Values[DataKey].(string)
	if !ok {
		return nil, errMissingData
	}
	var data events.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}

	return data, nil
}
