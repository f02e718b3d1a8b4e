// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync"

	"github.com/absmach/jelly/pkg/events"
)

var _ events.Publisher = (*Publisher)(nil)

// Publisher keeps the encoded events in memory. Err, when set, is returned
// from Publish instead of recording the event.
type Publisher struct {
	mu     sync.Mutex
	events []map[string]interface{}
	Err    error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	data, err := event.Encode()
	if err != nil {
		return err
	}
	p.events = append(p.events, data)

	return nil
}

func (p *Publisher) Close() error {
	return nil
}

// Events returns the published events in order.
func (p *Publisher) Events() []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]map[string]interface{}{}, p.events...)
}

// Operations returns the operation of every published event.
func (p *Publisher) Operations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ops := make([]string, 0, len(p.events))
	for _, e := range p.events {
		ops = append(ops, events.Read(e, events.OperationKey, ""))
	}

	return ops
}
