// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/jelly/pkg/errors"
	"github.com/caarlos0/env/v7"
	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	errConfig  = errors.New("failed to load mongodb configuration")
	errConnect = errors.New("failed to connect to mongodb server")
)

// Config defines the options that are used when connecting to a MongoDB instance.
type Config struct {
	Host         string        `env:"HOST"          envDefault:"localhost"`
	Port         string        `env:"PORT"          envDefault:"27017"`
	Name         string        `env:"NAME"          envDefault:"jelly"`
	ConnectRetry time.Duration `env:"CONNECT_RETRY" envDefault:"30s"`
}

// Connect creates a client and pings the server until it answers or the
// retry window elapses.
func Connect(ctx context.Context, cfg Config, notify backoff.Notify) (*mongo.Client, error) {
	addr := fmt.Sprintf("mongodb://%s:%s", cfg.Host, cfg.Port)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(addr))
	if err != nil {
		return nil, errors.Wrap(errConnect, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectRetry
	ping := func() error {
		return client.Ping(ctx, readpref.Primary())
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errConnect, err)
	}

	return client, nil
}

// Setup loads the configuration under envPrefix and connects to the
// configured database.
func Setup(ctx context.Context, envPrefix string, notify backoff.Notify) (*mongo.Database, error) {
	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, errors.Wrap(errConfig, err)
	}
	client, err := Connect(ctx, cfg, notify)
	if err != nil {
		return nil, err
	}

	return client.Database(cfg.Name), nil
}
