// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dangling holds the unresolved references of a single connection. Channel
// is set when the connection channel does not exist; otherwise Profiles
// lists the attached profiles that do not exist.
type Dangling struct {
	Channel  *primitive.ObjectID  `json:"channel,omitempty"`
	Profiles []primitive.ObjectID `json:"profiles,omitempty"`
}

// DanglingMap maps connection OIDs to their unresolved references.
type DanglingMap map[primitive.ObjectID]Dangling

// Notifier reports conditions that need an operator.
type Notifier interface {
	// ReportDangling reports the dangling references found while listing
	// the user connections.
	ReportDangling(ctx context.Context, user primitive.ObjectID, dangling DanglingMap) error

	// ReportError reports a failed background task.
	ReportError(ctx context.Context, task string, err error) error
}

var _ Notifier = (*logNotifier)(nil)

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that writes reports to logger.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (ln *logNotifier) ReportDangling(_ context.Context, user primitive.ObjectID, dangling DanglingMap) error {
	conns := make([]any, 0, len(dangling))
	for id, d := range dangling {
		attrs := []any{}
		if d.Channel != nil {
			attrs = append(attrs, slog.String("channel", d.Channel.Hex()))
		}
		if len(d.Profiles) > 0 {
			profs := make([]string, 0, len(d.Profiles))
			for _, p := range d.Profiles {
				profs = append(profs, p.Hex())
			}
			attrs = append(attrs, slog.Any("profiles", profs))
		}
		conns = append(conns, slog.Group(id.Hex(), attrs...))
	}
	ln.logger.Warn("Dangling profile connection data found",
		slog.String("user", user.Hex()),
		slog.Group("connections", conns...),
	)

	return nil
}

func (ln *logNotifier) ReportError(_ context.Context, task string, err error) error {
	ln.logger.Error("Background task failed",
		slog.String("task", task),
		slog.Any("error", err),
	)

	return nil
}
