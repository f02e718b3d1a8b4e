// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"log/slog"
	"sync"

	"github.com/absmach/jelly/pkg/errors"
	svcerr "github.com/absmach/jelly/pkg/errors/service"
)

// Handle joins a scheduled task.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Scheduler runs background tasks.
type Scheduler interface {
	// Go runs f detached from the cancellation of ctx. Failures are
	// reported to the notifier.
	Go(ctx context.Context, name string, f func(ctx context.Context) error) *Handle

	// Wait blocks until every running task finishes.
	Wait()
}

var _ Scheduler = (*scheduler)(nil)

type scheduler struct {
	logger   *slog.Logger
	notifier Notifier
	inline   bool
	wg       sync.WaitGroup
}

// NewScheduler returns a task scheduler. An inline scheduler runs every task
// in the calling goroutine before Go returns.
func NewScheduler(logger *slog.Logger, notifier Notifier, inline bool) Scheduler {
	return &scheduler{
		logger:   logger,
		notifier: notifier,
		inline:   inline,
	}
}

func (s *scheduler) Go(ctx context.Context, name string, f func(ctx context.Context) error) *Handle {
	h := &Handle{done: make(chan struct{})}
	ctx = context.WithoutCancel(ctx)

	if s.inline {
		s.run(ctx, name, f, h)
		return h
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, name, f, h)
	}()

	return h
}

func (s *scheduler) Wait() {
	s.wg.Wait()
}

func (s *scheduler) run(ctx context.Context, name string, f func(ctx context.Context) error, h *Handle) {
	defer close(h.done)

	if err := f(ctx); err != nil {
		h.err = errors.Wrap(svcerr.ErrScheduleTask, err)
		s.logger.Error("Background task failed", slog.String("task", name), slog.Any("error", err))
		if nerr := s.notifier.ReportError(ctx, name, err); nerr != nil {
			s.logger.Warn("Failed to report background task error", slog.String("task", name), slog.Any("error", nerr))
		}
	}
}
