// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	maxReconnects = -1
	eventsPrefix  = "events"
)

var (
	// ErrEmptyStream is returned when stream name is empty.
	ErrEmptyStream = errors.New("stream name cannot be empty")

	// ErrEmptyConsumer is returned when consumer name is empty.
	ErrEmptyConsumer = errors.New("consumer name cannot be empty")

	jsStreamConfig = jetstream.StreamConfig{
		Name:              "jelly-events",
		Description:       "Jelly profile and membership events",
		Subjects:          []string{eventsPrefix + ".>"},
		Retention:         jetstream.LimitsPolicy,
		MaxMsgsPerSubject: 1e6,
		MaxAge:            time.Hour * 24,
		MaxMsgSize:        1024 * 1024,
		Discard:           jetstream.DiscardOld,
		Storage:           jetstream.FileStorage,
	}
)

func subject(stream string) string {
	return eventsPrefix + "." + stream
}
