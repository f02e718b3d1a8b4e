// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/jelly/memberships"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ memberships.Repository = (*connectionRepositoryMiddleware)(nil)

type connectionRepositoryMiddleware struct {
	tracer trace.Tracer
	repo   memberships.Repository
}

// RepositoryMiddleware adds spans to every connection repository call.
func RepositoryMiddleware(tracer trace.Tracer, repo memberships.Repository) memberships.Repository {
	return connectionRepositoryMiddleware{
		tracer: tracer,
		repo:   repo,
	}
}

func (crm connectionRepositoryMiddleware) Attach(ctx context.Context, channel, user primitive.ObjectID, profiles []primitive.ObjectID) error {
	ctx, span := crm.start(ctx, "attach_profiles", channel, user, attribute.Int("profiles", len(profiles)))
	defer span.End()

	return crm.repo.Attach(ctx, channel, user, profiles)
}

func (crm connectionRepositoryMiddleware) Retrieve(ctx context.Context, channel, user primitive.ObjectID) (memberships.Connection, error) {
	ctx, span := crm.start(ctx, "retrieve_connection", channel, user)
	defer span.End()

	return crm.repo.Retrieve(ctx, channel, user)
}

func (crm connectionRepositoryMiddleware) RetrieveByUser(ctx context.Context, user primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	ctx, span := crm.tracer.Start(ctx, "retrieve_connections_by_user", trace.WithAttributes(
		attribute.String("user", user.Hex()),
		attribute.Bool("available_only", availableOnly),
	))
	defer span.End()

	return crm.repo.RetrieveByUser(ctx, user, availableOnly)
}

func (crm connectionRepositoryMiddleware) RetrieveByChannels(ctx context.Context, channels []primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	ctx, span := crm.tracer.Start(ctx, "retrieve_connections_by_channels", trace.WithAttributes(
		attribute.Int("channels", len(channels)),
		attribute.Bool("available_only", availableOnly),
	))
	defer span.End()

	return crm.repo.RetrieveByChannels(ctx, channels, availableOnly)
}

func (crm connectionRepositoryMiddleware) RetrieveAvailable(ctx context.Context) ([]memberships.Connection, error) {
	ctx, span := crm.tracer.Start(ctx, "retrieve_available_connections")
	defer span.End()

	return crm.repo.RetrieveAvailable(ctx)
}

func (crm connectionRepositoryMiddleware) ChannelMap(ctx context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	ctx, span := crm.tracer.Start(ctx, "retrieve_channel_map", trace.WithAttributes(
		attribute.Int("users", len(users)),
	))
	defer span.End()

	return crm.repo.ChannelMap(ctx, users)
}

func (crm connectionRepositoryMiddleware) ProfileMembers(ctx context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	ctx, span := crm.tracer.Start(ctx, "retrieve_profile_members", trace.WithAttributes(
		attribute.Int("profiles", len(profiles)),
	))
	defer span.End()

	return crm.repo.ProfileMembers(ctx, profiles)
}

func (crm connectionRepositoryMiddleware) Count(ctx context.Context, channel primitive.ObjectID, user *primitive.ObjectID, availableOnly bool) (int64, error) {
	attrs := []attribute.KeyValue{
		attribute.String("channel", channel.Hex()),
		attribute.Bool("available_only", availableOnly),
	}
	if user != nil {
		attrs = append(attrs, attribute.String("user", user.Hex()))
	}
	ctx, span := crm.tracer.Start(ctx, "count_connections", trace.WithAttributes(attrs...))
	defer span.End()

	return crm.repo.Count(ctx, channel, user, availableOnly)
}

func (crm connectionRepositoryMiddleware) ClearProfiles(ctx context.Context, channel, user primitive.ObjectID) (int64, int64, error) {
	ctx, span := crm.start(ctx, "clear_profiles", channel, user)
	defer span.End()

	return crm.repo.ClearProfiles(ctx, channel, user)
}

func (crm connectionRepositoryMiddleware) PullProfile(ctx context.Context, profile primitive.ObjectID, user *primitive.ObjectID) (int64, int64, error) {
	attrs := []attribute.KeyValue{attribute.String("profile", profile.Hex())}
	if user != nil {
		attrs = append(attrs, attribute.String("user", user.Hex()))
	}
	ctx, span := crm.tracer.Start(ctx, "pull_profile", trace.WithAttributes(attrs...))
	defer span.End()

	return crm.repo.PullProfile(ctx, profile, user)
}

func (crm connectionRepositoryMiddleware) UpdateStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) (int64, error) {
	ctx, span := crm.start(ctx, "update_star", channel, user, attribute.Bool("starred", starred))
	defer span.End()

	return crm.repo.UpdateStar(ctx, channel, user, starred)
}

func (crm connectionRepositoryMiddleware) start(ctx context.Context, op string, channel, user primitive.ObjectID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	)
	return crm.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}
