// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/absmach/jelly/channels"
	chcache "github.com/absmach/jelly/channels/redis"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCache(t *testing.T, ttl time.Duration) (channels.Cache, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return chcache.NewCache(client, ttl), srv
}

func TestSaveRetrieve(t *testing.T) {
	cache, _ := newCache(t, 0)

	name := "Study Group"
	prof := primitive.NewObjectID()
	cfg := channels.DefaultConfig()
	cfg.DefaultName = &name
	cfg.DefaultProfileOID = &prof
	ch := channels.Channel{
		ID:            primitive.NewObjectID(),
		Platform:      channels.PlatformLine,
		Token:         "C1",
		Names:         map[string]string{primitive.NewObjectID().Hex(): "Family"},
		Config:        cfg,
		BotAccessible: true,
	}

	err := cache.Save(context.Background(), ch)
	require.Nil(t, err, fmt.Sprintf("save: unexpected error: %s", err))

	cases := []struct {
		desc string
		id   primitive.ObjectID
		ch   channels.Channel
		err  error
	}{
		{
			desc: "retrieve cached channel",
			id:   ch.ID,
			ch:   ch,
			err:  nil,
		},
		{
			desc: "retrieve missing channel",
			id:   primitive.NewObjectID(),
			ch:   channels.Channel{},
			err:  repoerr.ErrNotFound,
		},
	}

	for _, tc := range cases {
		got, err := cache.Retrieve(context.Background(), tc.id)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		assert.Equal(t, tc.ch, got, fmt.Sprintf("%s: unexpected channel", tc.desc))
	}
}

func TestRemove(t *testing.T) {
	cache, _ := newCache(t, 0)

	ch := channels.Channel{ID: primitive.NewObjectID(), Token: "C1", Config: channels.DefaultConfig()}
	err := cache.Save(context.Background(), ch)
	require.Nil(t, err, fmt.Sprintf("save: unexpected error: %s", err))

	err = cache.Remove(context.Background(), ch.ID)
	assert.Nil(t, err, fmt.Sprintf("remove: unexpected error: %s", err))

	_, err = cache.Retrieve(context.Background(), ch.ID)
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))

	err = cache.Remove(context.Background(), primitive.NewObjectID())
	assert.Nil(t, err, fmt.Sprintf("remove missing: unexpected error: %s", err))
}

func TestExpiry(t *testing.T) {
	cache, srv := newCache(t, time.Minute)

	ch := channels.Channel{ID: primitive.NewObjectID(), Token: "C1", Config: channels.DefaultConfig()}
	err := cache.Save(context.Background(), ch)
	require.Nil(t, err, fmt.Sprintf("save: unexpected error: %s", err))

	srv.FastForward(2 * time.Minute)

	_, err = cache.Retrieve(context.Background(), ch.ID)
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))
}
