// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/profiles"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	saveProfileOp               = "save_profile"
	retrieveProfileByIDOp       = "retrieve_profile_by_id"
	retrieveProfileByNameOp     = "retrieve_profile_by_name"
	retrieveAllProfilesOp       = "retrieve_all_profiles"
	retrieveProfilesByChannelOp = "retrieve_profiles_by_channel"
	retrieveAttachableOp        = "retrieve_attachable_profiles"
	updateProfileOp             = "update_profile"
	removeProfileOp             = "remove_profile"
	fillPermissionOp            = "fill_permission"
)

var _ profiles.Repository = (*profileRepositoryMiddleware)(nil)

type profileRepositoryMiddleware struct {
	tracer trace.Tracer
	repo   profiles.Repository
}

// RepositoryMiddleware adds spans to every profile repository call.
func RepositoryMiddleware(tracer trace.Tracer, repo profiles.Repository) profiles.Repository {
	return profileRepositoryMiddleware{
		tracer: tracer,
		repo:   repo,
	}
}

func (prm profileRepositoryMiddleware) Save(ctx context.Context, p profiles.Profile) (profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, saveProfileOp, trace.WithAttributes(
		attribute.String("channel", p.ChannelOID.Hex()),
		attribute.String("name", p.Name),
	))
	defer span.End()

	return prm.repo.Save(ctx, p)
}

func (prm profileRepositoryMiddleware) RetrieveByID(ctx context.Context, id primitive.ObjectID) (profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, retrieveProfileByIDOp, trace.WithAttributes(
		attribute.String("id", id.Hex()),
	))
	defer span.End()

	return prm.repo.RetrieveByID(ctx, id)
}

func (prm profileRepositoryMiddleware) RetrieveByName(ctx context.Context, channel primitive.ObjectID, name string) (profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, retrieveProfileByNameOp, trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("name", name),
	))
	defer span.End()

	return prm.repo.RetrieveByName(ctx, channel, name)
}

func (prm profileRepositoryMiddleware) RetrieveAll(ctx context.Context, ids []primitive.ObjectID) ([]profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, retrieveAllProfilesOp, trace.WithAttributes(
		attribute.Int("count", len(ids)),
	))
	defer span.End()

	return prm.repo.RetrieveAll(ctx, ids)
}

func (prm profileRepositoryMiddleware) RetrieveByChannel(ctx context.Context, channel primitive.ObjectID, nameSubstring string) ([]profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, retrieveProfilesByChannelOp, trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("name", nameSubstring),
	))
	defer span.End()

	return prm.repo.RetrieveByChannel(ctx, channel, nameSubstring)
}

func (prm profileRepositoryMiddleware) RetrieveAttachable(ctx context.Context, channel primitive.ObjectID, forbidden []permissions.Code, highest permissions.Level) ([]profiles.Profile, error) {
	ctx, span := prm.tracer.Start(ctx, retrieveAttachableOp, trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("highest", highest.String()),
		attribute.Int("forbidden", len(forbidden)),
	))
	defer span.End()

	return prm.repo.RetrieveAttachable(ctx, channel, forbidden, highest)
}

func (prm profileRepositoryMiddleware) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	ctx, span := prm.tracer.Start(ctx, updateProfileOp, trace.WithAttributes(
		attribute.String("id", id.Hex()),
		attribute.Int("fields", len(fields)),
	))
	defer span.End()

	return prm.repo.Update(ctx, id, fields)
}

func (prm profileRepositoryMiddleware) Remove(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := prm.tracer.Start(ctx, removeProfileOp, trace.WithAttributes(
		attribute.String("id", id.Hex()),
	))
	defer span.End()

	return prm.repo.Remove(ctx, id)
}

func (prm profileRepositoryMiddleware) FillPermission(ctx context.Context, code permissions.Code, level permissions.Level, value bool) (int64, error) {
	ctx, span := prm.tracer.Start(ctx, fillPermissionOp, trace.WithAttributes(
		attribute.String("code", code.String()),
		attribute.String("level", level.String()),
	))
	defer span.End()

	return prm.repo.FillPermission(ctx, code, level, value)
}
