// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the jelly admin CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absmach/jelly/channels"
	chmongo "github.com/absmach/jelly/channels/mongodb"
	chredis "github.com/absmach/jelly/channels/redis"
	"github.com/absmach/jelly/cli"
	mongoclient "github.com/absmach/jelly/internal/clients/mongo"
	redisclient "github.com/absmach/jelly/internal/clients/redis"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/memberships"
	mbmongo "github.com/absmach/jelly/memberships/mongodb"
	"github.com/absmach/jelly/pkg/events/store"
	"github.com/absmach/jelly/profiles"
	prmongo "github.com/absmach/jelly/profiles/mongodb"
	"github.com/absmach/jelly/promotions"
	pmmongo "github.com/absmach/jelly/promotions/mongodb"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

const defConfigPath = "./config.toml"

func main() {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// Root
	rootCmd := &cobra.Command{
		Use: "jelly-cli",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := cli.LoadConfig(cli.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.RawOutput {
				cli.RawOutput = true
			}
			backend, closeFn, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			closers = append(closers, closeFn)
			cli.SetBackend(backend)

			return nil
		},
	}

	// Root Commands
	rootCmd.AddCommand(cli.NewVersionCmd())
	rootCmd.AddCommand(cli.NewProfilesCmd())
	rootCmd.AddCommand(cli.NewChannelsCmd())
	rootCmd.AddCommand(cli.NewUsersCmd())
	rootCmd.AddCommand(cli.NewIndexesCmd())
	rootCmd.AddCommand(cli.NewEventsCmd())

	// Root Flags
	rootCmd.PersistentFlags().StringVarP(
		&cli.ConfigPath,
		"config",
		"c",
		defConfigPath,
		"Config path",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		cli.RawOutput,
		"Enables raw output mode for easier parsing of output",
	)

	rootCmd.PersistentFlags().StringVarP(
		&cli.Name,
		"name",
		"n",
		"",
		"Name substring filter",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.InsideOnly,
		"inside",
		"",
		false,
		"Only channels the user is in",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.AccessibleOnly,
		"accessible",
		"",
		false,
		"Only channels the bot can reach",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.AvailableOnly,
		"available",
		"",
		false,
		"Only current members",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("jelly-cli: %s", err)
	}
}

func connect(ctx context.Context, cfg cli.Config) (cli.Backend, func(), error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	notify := func(err error, next time.Duration) {
		logger.Warn(fmt.Sprintf("Store not ready: %s, next try in %s", err, next))
	}

	mcfg := mongoclient.Config{Host: cfg.Mongo.Host, Port: cfg.Mongo.Port, Name: cfg.Mongo.Name, ConnectRetry: cfg.DBOpTimeout}
	client, err := mongoclient.Connect(ctx, mcfg, notify)
	if err != nil {
		return cli.Backend{}, nil, err
	}
	db := client.Database(mcfg.Name)

	rcfg := redisclient.Config{URL: cfg.Cache.URL, TTL: cfg.Cache.TTL, ConnectRetry: cfg.DBOpTimeout}
	cache, err := redisclient.Connect(ctx, rcfg, notify)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return cli.Backend{}, nil, err
	}

	subscriber, err := store.NewSubscriber(ctx, cfg.ESURL, logger)
	if err != nil {
		_ = cache.Close()
		_ = client.Disconnect(context.Background())
		return cli.Backend{}, nil, err
	}

	chs := channels.NewRegistry(chmongo.NewRepository(db), chredis.NewCache(cache, rcfg.TTL), cfg.DBOpTimeout, logger)
	profs := profiles.NewStore(prmongo.NewRepository(db), chs, cfg.DefaultProfileName, cfg.DBOpTimeout)
	conns := memberships.NewStore(mbmongo.NewRepository(db), cfg.DBOpTimeout)
	promos := promotions.NewLog(pmmongo.NewRepository(db), cfg.DBOpTimeout)
	notifier := manager.NewLogNotifier(logger)
	svc := manager.New(chs, profs, conns, promos, notifier, manager.NewScheduler(logger, notifier, true))

	backend := cli.Backend{
		Service:    svc,
		Profiles:   profs,
		Subscriber: subscriber,
		Indexes: func(ctx context.Context) error {
			return ensureIndexes(ctx, db)
		},
	}
	closeFn := func() {
		_ = subscriber.Close()
		_ = cache.Close()
		_ = client.Disconnect(context.Background())
	}

	return backend, closeFn, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		chmongo.EnsureIndexes,
		prmongo.EnsureIndexes,
		mbmongo.EnsureIndexes,
		pmmongo.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}

	return nil
}
