// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// StopWaitTime bounds the graceful shutdown of a server.
const StopWaitTime = 5 * time.Second

// Server is a long-running listener.
type Server interface {
	// Start blocks until the server stops.
	Start() error

	// Stop gracefully stops the server.
	Stop() error
}

// Config is the listener configuration loaded from the environment.
type Config struct {
	Host     string `env:"HOST"        envDefault:"localhost"`
	Port     string `env:"PORT"        envDefault:""`
	CertFile string `env:"SERVER_CERT" envDefault:""`
	KeyFile  string `env:"SERVER_KEY"  envDefault:""`
}

type BaseServer struct {
	Ctx      context.Context
	Cancel   context.CancelFunc
	Name     string
	Address  string
	Config   Config
	Logger   *slog.Logger
	Protocol string
}

func NewBaseServer(ctx context.Context, cancel context.CancelFunc, name string, config Config, logger *slog.Logger) BaseServer {
	address := fmt.Sprintf("%s:%s", config.Host, config.Port)

	return BaseServer{
		Ctx:     ctx,
		Cancel:  cancel,
		Name:    name,
		Address: address,
		Config:  config,
		Logger:  logger,
	}
}

func stopAllServer(servers ...Server) error {
	var err error
	for _, server := range servers {
		serr := server.Stop()
		switch {
		case serr == nil:
		case err == nil:
			err = fmt.Errorf("%w", serr)
		default:
			err = fmt.Errorf("%v ; %w", err, serr)
		}
	}

	return err
}

// StopSignalHandler stops the servers on SIGINT or SIGABRT. It returns nil
// once ctx is done.
func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, svcName string, servers ...Server) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGABRT)
	select {
	case sig := <-c:
		defer cancel()
		err := stopAllServer(servers...)
		if err != nil {
			logger.Error(fmt.Sprintf("%s service error during shutdown: %v", svcName, err))
		}
		logger.Info(fmt.Sprintf("%s service shutdown by signal: %s", svcName, sig))
		return err
	case <-ctx.Done():
		return nil
	}
}
