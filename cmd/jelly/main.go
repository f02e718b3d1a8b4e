// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the jelly main function to start the profile and
// permission service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/jelly/channels"
	chmongo "github.com/absmach/jelly/channels/mongodb"
	chredis "github.com/absmach/jelly/channels/redis"
	chtracing "github.com/absmach/jelly/channels/tracing"
	"github.com/absmach/jelly/internal/api"
	mongoclient "github.com/absmach/jelly/internal/clients/mongo"
	redisclient "github.com/absmach/jelly/internal/clients/redis"
	jellylog "github.com/absmach/jelly/logger"
	"github.com/absmach/jelly/manager"
	mevents "github.com/absmach/jelly/manager/events"
	"github.com/absmach/jelly/manager/events/consumer"
	"github.com/absmach/jelly/manager/middleware"
	mtracing "github.com/absmach/jelly/manager/tracing"
	"github.com/absmach/jelly/memberships"
	mbmongo "github.com/absmach/jelly/memberships/mongodb"
	mbtracing "github.com/absmach/jelly/memberships/tracing"
	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/events/store"
	jaegerclient "github.com/absmach/jelly/pkg/jaeger"
	"github.com/absmach/jelly/pkg/prometheus"
	"github.com/absmach/jelly/pkg/server"
	httpserver "github.com/absmach/jelly/pkg/server/http"
	"github.com/absmach/jelly/pkg/ulid"
	"github.com/absmach/jelly/pkg/uuid"
	"github.com/absmach/jelly/profiles"
	prmongo "github.com/absmach/jelly/profiles/mongodb"
	prtracing "github.com/absmach/jelly/profiles/tracing"
	"github.com/absmach/jelly/promotions"
	pmmongo "github.com/absmach/jelly/promotions/mongodb"
	"github.com/caarlos0/env/v7"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "jelly"
	envPrefixDB    = "JELLY_MONGO_"
	envPrefixCache = "JELLY_CACHE_"
	envPrefixHTTP  = "JELLY_HTTP_"
	defSvcHTTPPort = "9030"
	consumerName   = "jelly-manager"
)

type config struct {
	LogLevel           string        `env:"JELLY_LOG_LEVEL"            envDefault:"info"                             validate:"oneof=debug info warn error"`
	JaegerURL          url.URL       `env:"JELLY_JAEGER_URL"           envDefault:"http://localhost:4318/v1/traces"`
	TraceRatio         float64       `env:"JELLY_JAEGER_TRACE_RATIO"   envDefault:"1.0"                              validate:"gte=0,lte=1"`
	InstanceID         string        `env:"JELLY_INSTANCE_ID"          envDefault:""`
	ESURL              string        `env:"JELLY_ES_URL"               envDefault:"redis://localhost:6379/1"         validate:"required,url"`
	DBOpTimeout        time.Duration `env:"JELLY_DB_OP_TIMEOUT"        envDefault:"5s"                               validate:"gt=0"`
	DefaultProfileName string        `env:"JELLY_DEFAULT_PROFILE_NAME" envDefault:""`
	FillPermissions    bool          `env:"JELLY_FILL_PERMISSIONS"     envDefault:"true"`
	Manager            manager.Config
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err.Error())
	}
	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("invalid %s configuration : %s", svcName, err.Error())
	}

	logger, err := jellylog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err.Error())
	}

	var exitCode int
	defer jellylog.ExitWithError(&exitCode)

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = uuid.New().ID(); err != nil {
			logger.Error(fmt.Sprintf("failed to generate instanceID: %s", err))
			exitCode = 1
			return
		}
	}

	notify := func(err error, next time.Duration) {
		logger.Warn(fmt.Sprintf("Store not ready: %s, next try in %s", err, next))
	}

	db, err := mongoclient.Setup(ctx, envPrefixDB, notify)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect to mongodb: %s", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("failed to disconnect from mongodb: %s", err))
		}
	}()

	cacheClient, cacheConfig, err := redisclient.Setup(ctx, envPrefixCache, notify)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect to cache: %s", err))
		exitCode = 1
		return
	}
	defer cacheClient.Close()

	if err := ensureIndexes(ctx, db); err != nil {
		logger.Error(fmt.Sprintf("failed to create indexes: %s", err))
		exitCode = 1
		return
	}

	tp, err := jaegerclient.NewProvider(ctx, svcName, cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to init Jaeger: %s", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("error shutting down tracer provider: %v", err))
		}
	}()
	tracer := tp.Tracer(svcName)

	publisher, err := store.NewPublisher(ctx, cfg.ESURL, mevents.StreamID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create event publisher: %s", err))
		exitCode = 1
		return
	}
	defer publisher.Close()

	chs := channels.NewRegistry(
		chtracing.RepositoryMiddleware(tracer, chmongo.NewRepository(db)),
		chtracing.CacheMiddleware(tracer, chredis.NewCache(cacheClient, cacheConfig.TTL)),
		cfg.DBOpTimeout,
		logger,
	)
	profs := profiles.NewStore(prtracing.RepositoryMiddleware(tracer, prmongo.NewRepository(db)), chs, cfg.DefaultProfileName, cfg.DBOpTimeout)

	if cfg.FillPermissions {
		n, err := profs.FillPermissions(ctx)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to fill profile permissions: %s", err))
			exitCode = 1
			return
		}
		logger.Info(fmt.Sprintf("Filled missing permissions of %d profiles", n))
	}

	notifier := mevents.NewNotifier(publisher, ulid.New())
	scheduler := manager.NewScheduler(logger, notifier, cfg.Manager.Test)
	defer scheduler.Wait()

	svc := newService(chs, profs, db, publisher, notifier, scheduler, tracer, cfg, logger)

	subscriber, err := store.NewSubscriber(ctx, cfg.ESURL, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create event subscriber: %s", err))
		exitCode = 1
		return
	}
	defer subscriber.Close()

	subCfg := events.SubscriberConfig{
		Consumer: consumerName,
		Stream:   consumer.StreamID,
		Handler:  consumer.NewEventHandler(svc),
	}
	if err := subscriber.Subscribe(ctx, subCfg); err != nil {
		logger.Error(fmt.Sprintf("failed to subscribe to %s stream: %s", consumer.StreamID, err))
		exitCode = 1
		return
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))
		exitCode = 1
		return
	}
	httpSrv := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svcName, cfg.InstanceID), logger)

	g.Go(func() error {
		return httpSrv.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, httpSrv)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

func newService(chs channels.Registry, profs profiles.Store, db *mongo.Database, publisher events.Publisher, notifier manager.Notifier, scheduler manager.Scheduler, tracer trace.Tracer, cfg config, logger *slog.Logger) manager.Service {
	conns := memberships.NewStore(mbtracing.RepositoryMiddleware(tracer, mbmongo.NewRepository(db)), cfg.DBOpTimeout)
	promos := promotions.NewLog(pmmongo.NewRepository(db), cfg.DBOpTimeout)

	core := manager.New(chs, profs, conns, promos, notifier, scheduler)
	svc := mevents.NewEventStoreMiddleware(core, publisher, logger)
	svc = mtracing.New(svc, tracer)
	svc = middleware.LoggingMiddleware(svc, logger)
	counter, latency := prometheus.MakeMetrics(svcName, "manager")
	svc = middleware.MetricsMiddleware(svc, counter, latency)
	manager.Bind(core, svc)

	return svc
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
