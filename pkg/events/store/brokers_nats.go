// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build nats
// +build nats

package store

import (
	"context"
	"log"
	"log/slog"

	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/events/nats"
)

func init() {
	log.Println("The binary was build using nats as the events store")
}

func NewPublisher(ctx context.Context, url, stream string) (events.Publisher, error) {
	return nats.NewPublisher(ctx, url, stream)
}

func NewSubscriber(ctx context.Context, url string, logger *slog.Logger) (events.Subscriber, error) {
	return nats.NewSubscriber(ctx, url, logger)
}
