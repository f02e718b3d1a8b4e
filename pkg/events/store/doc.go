// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package store selects the event broker at build time. Redis streams are
// used by default; the nats and rabbitmq build tags switch to JetStream and
// RabbitMQ respectively.
package store
