// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync"

	"github.com/absmach/jelly/channels"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ channels.Cache = (*channelCacheMock)(nil)

type channelCacheMock struct {
	mu       sync.Mutex
	channels map[primitive.ObjectID]channels.Channel
}

// NewCache returns in-memory channel cache.
func NewCache() channels.Cache {
	return &channelCacheMock{
		channels: make(map[primitive.ObjectID]channels.Channel),
	}
}

func (ccm *channelCacheMock) Save(_ context.Context, ch channels.Channel) error {
	ccm.mu.Lock()
	defer ccm.mu.Unlock()

	ccm.channels[ch.ID] = clone(ch)

	return nil
}

func (ccm *channelCacheMock) Retrieve(_ context.Context, id primitive.ObjectID) (channels.Channel, error) {
	ccm.mu.Lock()
	defer ccm.mu.Unlock()

	ch, ok := ccm.channels[id]
	if !ok {
		return channels.Channel{}, repoerr.ErrNotFound
	}

	return clone(ch), nil
}

func (ccm *channelCacheMock) Remove(_ context.Context, id primitive.ObjectID) error {
	ccm.mu.Lock()
	defer ccm.mu.Unlock()

	delete(ccm.channels, id)

	return nil
}
