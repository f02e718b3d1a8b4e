// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build rabbitmq
// +build rabbitmq

package store

import (
	"context"
	"log"
	"log/slog"

	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/events/rabbitmq"
)

func init() {
	log.Println("The binary was build using rabbitmq as the events store")
}

func NewPublisher(ctx context.Context, url, stream string) (events.Publisher, error) {
	return rabbitmq.NewPublisher(ctx, url, stream)
}

func NewSubscriber(_ context.Context, url string, logger *slog.Logger) (events.Subscriber, error) {
	return rabbitmq.NewSubscriber(url, logger)
}
