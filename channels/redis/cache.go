// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package redis contains the Redis cache of channel documents.
package redis

import (
	"context"
	"time"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const keyPrefix = "channel"

var _ channels.Cache = (*channelCache)(nil)

type channelCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns redis channel cache implementation. Entries expire after
// ttl; zero keeps them until evicted.
func NewCache(client *redis.Client, ttl time.Duration) channels.Cache {
	return &channelCache{
		client: client,
		ttl:    ttl,
	}
}

func (cc *channelCache) Save(ctx context.Context, ch channels.Channel) error {
	data, err := bson.Marshal(ch)
	if err != nil {
		return errors.Wrap(repoerr.ErrMalformedEntity, err)
	}
	if err := cc.client.Set(ctx, key(ch.ID), data, cc.ttl).Err(); err != nil {
		return errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return nil
}

func (cc *channelCache) Retrieve(ctx context.Context, id primitive.ObjectID) (channels.Channel, error) {
	data, err := cc.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return channels.Channel{}, repoerr.ErrNotFound
		}
		return channels.Channel{}, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	var ch channels.Channel
	if err := bson.Unmarshal(data, &ch); err != nil {
		return channels.Channel{}, errors.Wrap(repoerr.ErrMalformedEntity, err)
	}

	return ch, nil
}

func (cc *channelCache) Remove(ctx context.Context, id primitive.ObjectID) error {
	if err := cc.client.Del(ctx, key(id)).Err(); err != nil {
		return errors.Wrap(repoerr.ErrRemoveEntity, err)
	}

	return nil
}

func key(id primitive.ObjectID) string {
	return keyPrefix + ":" + id.Hex()
}
