// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package redis

import (
	"context"
	"time"

	"github.com/absmach/jelly/pkg/errors"
	"github.com/caarlos0/env/v7"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
)

var (
	errConfig  = errors.New("failed to load redis client configuration")
	errConnect = errors.New("failed to connect to redis server")
)

// Config defines the options that are used when connecting to a Redis instance.
type Config struct {
	URL          string        `env:"URL"           envDefault:"redis://localhost:6379/0"`
	TTL          time.Duration `env:"TTL"           envDefault:"10m"`
	ConnectRetry time.Duration `env:"CONNECT_RETRY" envDefault:"30s"`
}

// Connect creates a client and pings the server until it answers or the
// retry window elapses.
func Connect(ctx context.Context, cfg Config, notify backoff.Notify) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errConnect, err)
	}
	client := redis.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectRetry
	ping := func() error {
		return client.Ping(ctx).Err()
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errConnect, err)
	}

	return client, nil
}

// Setup loads the configuration under envPrefix and connects. The loaded
// configuration is returned with the client.
func Setup(ctx context.Context, envPrefix string, notify backoff.Notify) (*redis.Client, Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, cfg, errors.Wrap(errConfig, err)
	}
	client, err := Connect(ctx, cfg, notify)
	if err != nil {
		return nil, cfg, err
	}

	return client, cfg, nil
}
