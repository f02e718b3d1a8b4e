// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build !nats && !rabbitmq
// +build !nats,!rabbitmq

package store

import (
	"context"
	"log"
	"log/slog"

	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/events/redis"
)

func init() {
	log.Println("The binary was build using redis as the events store")
}

func NewPublisher(ctx context.Context, url, stream string) (events.Publisher, error) {
	return redis.NewPublisher(ctx, url, stream, events.UnpublishedEventsCheckInterval)
}

func NewSubscriber(_ context.Context, url string, logger *slog.Logger) (events.Subscriber, error) {
	return redis.NewSubscriber(url, logger)
}
