// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ manager.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    manager.Service
}

// New returns a new profile manager with tracing capabilities.
func New(svc manager.Service, tracer trace.Tracer) manager.Service {
	return &tracingMiddleware{tracer, svc}
}

// Argument parsing does no I/O and is not traced.
func (tm *tracingMiddleware) ProcessCreateProfileKwargs(m map[string]string) manager.ArgParseResult {
	return tm.svc.ProcessCreateProfileKwargs(m)
}

func (tm *tracingMiddleware) ProcessEditProfileKwargs(m map[string]string) manager.ArgParseResult {
	return tm.svc.ProcessEditProfileKwargs(m)
}

func (tm *tracingMiddleware) RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) manager.RegisterProfileResult {
	ctx, span := tm.tracer.Start(ctx, "svc_register_new", trace.WithAttributes(
		attribute.String("user", user.Hex()),
		attribute.Int("arguments", len(m)),
	))
	defer span.End()

	return tm.svc.RegisterNew(ctx, user, m)
}

func (tm *tracingMiddleware) RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) manager.RegisterProfileResult {
	ctx, span := tm.tracer.Start(ctx, "svc_register_new_model", trace.WithAttributes(
		attribute.String("user", user.Hex()),
		attribute.String("channel", p.ChannelOID.Hex()),
		attribute.String("name", p.Name),
	))
	defer span.End()

	return tm.svc.RegisterNewModel(ctx, user, p)
}

func (tm *tracingMiddleware) RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) manager.RegisterProfileResult {
	ctx, span := tm.tracer.Start(ctx, "svc_register_new_default", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	return tm.svc.RegisterNewDefault(ctx, channel, user)
}

func (tm *tracingMiddleware) RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID) {
	ctx, span := tm.tracer.Start(ctx, "svc_register_new_default_async", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	tm.svc.RegisterNewDefaultAsync(ctx, channel, user)
}

func (tm *tracingMiddleware) UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) outcomes.UpdateOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_update_profile", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("profile", profile.Hex()),
	))
	defer span.End()

	return tm.svc.UpdateProfile(ctx, channel, executor, profile, m)
}

func (tm *tracingMiddleware) AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) outcomes.OperationOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_attach_profile", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("profile", profile.Hex()),
		targetAttr(target),
		attribute.Bool("bypass_existence", bypassExistence),
	))
	defer span.End()

	return tm.svc.AttachProfile(ctx, channel, executor, profile, target, bypassExistence)
}

func (tm *tracingMiddleware) AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) outcomes.OperationOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_attach_profile_name", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("name", name),
		targetAttr(target),
	))
	defer span.End()

	return tm.svc.AttachProfileName(ctx, channel, executor, name, target)
}

func (tm *tracingMiddleware) DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_detach_profile", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("profile", profile.Hex()),
		targetAttr(target),
	))
	defer span.End()

	return tm.svc.DetachProfile(ctx, channel, profile, executor, target)
}

func (tm *tracingMiddleware) DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_detach_profile_name", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("name", name),
		targetAttr(target),
	))
	defer span.End()

	return tm.svc.DetachProfileName(ctx, channel, name, executor, target)
}

func (tm *tracingMiddleware) DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) outcomes.OperationOutcome {
	ctx, span := tm.tracer.Start(ctx, "svc_delete_profile", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("executor", executor.Hex()),
		attribute.String("profile", profile.Hex()),
	))
	defer span.End()

	return tm.svc.DeleteProfile(ctx, channel, profile, executor)
}

func (tm *tracingMiddleware) GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) ([]manager.ChannelProfileListEntry, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_user_channel_profiles", trace.WithAttributes(
		attribute.String("user", user.Hex()),
		attribute.Bool("inside_only", insideOnly),
		attribute.Bool("accessible_only", accessibleOnly),
	))
	defer span.End()

	return tm.svc.GetUserChannelProfiles(ctx, user, insideOnly, accessibleOnly)
}

func (tm *tracingMiddleware) MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *manager.Handle {
	ctx, span := tm.tracer.Start(ctx, "svc_mark_unavailable_async", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	return tm.svc.MarkUnavailableAsync(ctx, channel, user)
}

func (tm *tracingMiddleware) GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_user_profiles", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	return tm.svc.GetUserProfiles(ctx, channel, user)
}

func (tm *tracingMiddleware) GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (permissions.Set, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_user_permissions", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	return tm.svc.GetUserPermissions(ctx, channel, user)
}

func (tm *tracingMiddleware) GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]permissions.Level, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_user_permission_levels", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
	))
	defer span.End()

	return tm.svc.GetUserPermissionLevels(ctx, channel)
}

func (tm *tracingMiddleware) GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]manager.ChannelMember, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_channel_members", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.Bool("available_only", availableOnly),
	))
	defer span.End()

	return tm.svc.GetChannelMembers(ctx, channel, availableOnly)
}

func (tm *tracingMiddleware) GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_get_attachable_profiles", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
	))
	defer span.End()

	return tm.svc.GetAttachableProfiles(ctx, channel, user)
}

func (tm *tracingMiddleware) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool {
	ctx, span := tm.tracer.Start(ctx, "svc_change_star", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("user", user.Hex()),
		attribute.Bool("starred", starred),
	))
	defer span.End()

	return tm.svc.ChangeStar(ctx, channel, user, starred)
}

func (tm *tracingMiddleware) EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) manager.EnsureChannelResult {
	ctx, span := tm.tracer.Start(ctx, "svc_ensure_channel", trace.WithAttributes(
		attribute.String("platform", platform.String()),
	))
	defer span.End()

	return tm.svc.EnsureChannel(ctx, platform, token, defaultName)
}

func (tm *tracingMiddleware) RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) promotions.AppendResult {
	ctx, span := tm.tracer.Start(ctx, "svc_record_promotion", trace.WithAttributes(
		attribute.String("channel", channel.Hex()),
		attribute.String("supporter", supporter.Hex()),
		attribute.String("target", target.Hex()),
		attribute.String("profile", profile.Hex()),
	))
	defer span.End()

	return tm.svc.RecordPromotion(ctx, channel, supporter, target, profile)
}

func targetAttr(target *primitive.ObjectID) attribute.KeyValue {
	if target == nil {
		return attribute.String("target", "")
	}
	return attribute.String("target", target.Hex())
}
