// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/absmach/jelly/logger"
	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/events/redis"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stream = "jelly.tests"

type testEvent struct {
	data map[string]interface{}
}

func (te testEvent) Encode() (map[string]interface{}, error) {
	return te.data, nil
}

func newClient(t *testing.T, srv *miniredis.Miniredis) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

func streamEvents(t *testing.T, client *goredis.Client) []map[string]interface{} {
	msgs, err := client.XRange(context.Background(), stream, "-", "+").Result()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	ret := []map[string]interface{}{}
	for _, msg := range msgs {
		var data map[string]interface{}
		require.Nil(t, json.Unmarshal([]byte(msg.Values[redis.DataKey].(string)), &data))
		ret = append(ret, data)
	}

	return ret
}

func TestPublish(t *testing.T) {
	srv := miniredis.RunT(t)
	client := newClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := redis.NewPublisher(ctx, "redis://"+srv.Addr(), stream, time.Millisecond*50)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	cases := []struct {
		desc  string
		event map[string]interface{}
	}{
		{
			desc:  "publish event with fields",
			event: map[string]interface{}{events.OperationKey: "profile.delete", "profile": "6500000000000000000000aa"},
		},
		{
			desc:  "publish event with operation only",
			event: map[string]interface{}{events.OperationKey: "task.error"},
		},
	}

	for i, tc := range cases {
		err := pub.Publish(ctx, testEvent{tc.event})
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))

		got := streamEvents(t, client)
		require.Len(t, got, i+1, tc.desc)
		for k, v := range tc.event {
			assert.Equal(t, v, got[i][k], tc.desc)
		}
		assert.Contains(t, got[i], events.OccurredAtKey, tc.desc)
	}
}

func TestPublishUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := newClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := redis.NewPublisher(ctx, "redis://"+srv.Addr(), stream, time.Millisecond*20)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	srv.Close()
	err = pub.Publish(ctx, testEvent{map[string]interface{}{events.OperationKey: "dangling.report"}})
	assert.Nil(t, err, fmt.Sprintf("buffered publish: unexpected error: %s", err))

	require.Nil(t, srv.Restart())
	assert.Eventually(t, func() bool {
		msgs, err := client.XRange(context.Background(), stream, "-", "+").Result()
		return err == nil && len(msgs) == 1
	}, time.Second*2, time.Millisecond*20)
}

type recorder struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (r *recorder) Handle(_ context.Context, event events.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)

	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

func TestSubscribe(t *testing.T) {
	srv := miniredis.RunT(t)
	url := "redis://" + srv.Addr()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := redis.NewSubscriber(url, logger.NewMock())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	defer sub.Close()

	rec := &recorder{}
	cases := []struct {
		desc string
		cfg  events.SubscriberConfig
		err  error
	}{
		{
			desc: "subscribe without stream",
			cfg:  events.SubscriberConfig{Consumer: "cli", Handler: rec},
			err:  redis.ErrEmptyStream,
		},
		{
			desc: "subscribe without consumer",
			cfg:  events.SubscriberConfig{Stream: stream, Handler: rec},
			err:  redis.ErrEmptyConsumer,
		},
		{
			desc: "subscribe",
			cfg:  events.SubscriberConfig{Consumer: "cli", Stream: stream, Handler: rec},
		},
	}

	for _, tc := range cases {
		err := sub.Subscribe(ctx, tc.cfg)
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
	}

	pub, err := redis.NewPublisher(ctx, url, stream, time.Second)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Nil(t, pub.Publish(ctx, testEvent{map[string]interface{}{events.OperationKey: "profile.update"}}))

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second*3, time.Millisecond*20)
	assert.Equal(t, "profile.update", rec.events[0][events.OperationKey])
}
