// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"time"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"github.com/go-kit/kit/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ manager.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     manager.Service
}

// MetricsMiddleware instruments the profile manager by tracking request
// count and latency.
func MetricsMiddleware(svc manager.Service, counter metrics.Counter, latency metrics.Histogram) manager.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (ms *metricsMiddleware) ProcessCreateProfileKwargs(m map[string]string) manager.ArgParseResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "process_create_profile_kwargs").Add(1)
		ms.latency.With("operation", "process_create_profile_kwargs").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.ProcessCreateProfileKwargs(m)
}

func (ms *metricsMiddleware) ProcessEditProfileKwargs(m map[string]string) manager.ArgParseResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "process_edit_profile_kwargs").Add(1)
		ms.latency.With("operation", "process_edit_profile_kwargs").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.ProcessEditProfileKwargs(m)
}

func (ms *metricsMiddleware) RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) manager.RegisterProfileResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "register_new").Add(1)
		ms.latency.With("operation", "register_new").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.RegisterNew(ctx, user, m)
}

func (ms *metricsMiddleware) RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) manager.RegisterProfileResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "register_new_model").Add(1)
		ms.latency.With("operation", "register_new_model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.RegisterNewModel(ctx, user, p)
}

func (ms *metricsMiddleware) RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) manager.RegisterProfileResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "register_new_default").Add(1)
		ms.latency.With("operation", "register_new_default").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.RegisterNewDefault(ctx, channel, user)
}

func (ms *metricsMiddleware) RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "register_new_default_async").Add(1)
		ms.latency.With("operation", "register_new_default_async").Observe(time.Since(begin).Seconds())
	}(time.Now())

	ms.svc.RegisterNewDefaultAsync(ctx, channel, user)
}

func (ms *metricsMiddleware) UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) outcomes.UpdateOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "update_profile").Add(1)
		ms.latency.With("operation", "update_profile").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.UpdateProfile(ctx, channel, executor, profile, m)
}

func (ms *metricsMiddleware) AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) outcomes.OperationOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "attach_profile").Add(1)
		ms.latency.With("operation", "attach_profile").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.AttachProfile(ctx, channel, executor, profile, target, bypassExistence)
}

func (ms *metricsMiddleware) AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) outcomes.OperationOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "attach_profile_name").Add(1)
		ms.latency.With("operation", "attach_profile_name").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.AttachProfileName(ctx, channel, executor, name, target)
}

func (ms *metricsMiddleware) DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "detach_profile").Add(1)
		ms.latency.With("operation", "detach_profile").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.DetachProfile(ctx, channel, profile, executor, target)
}

func (ms *metricsMiddleware) DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "detach_profile_name").Add(1)
		ms.latency.With("operation", "detach_profile_name").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.DetachProfileName(ctx, channel, name, executor, target)
}

func (ms *metricsMiddleware) DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) outcomes.OperationOutcome {
	defer func(begin time.Time) {
		ms.counter.With("operation", "delete_profile").Add(1)
		ms.latency.With("operation", "delete_profile").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.DeleteProfile(ctx, channel, profile, executor)
}

func (ms *metricsMiddleware) GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) ([]manager.ChannelProfileListEntry, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_user_channel_profiles").Add(1)
		ms.latency.With("operation", "get_user_channel_profiles").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetUserChannelProfiles(ctx, user, insideOnly, accessibleOnly)
}

func (ms *metricsMiddleware) MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *manager.Handle {
	defer func(begin time.Time) {
		ms.counter.With("operation", "mark_unavailable_async").Add(1)
		ms.latency.With("operation", "mark_unavailable_async").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.MarkUnavailableAsync(ctx, channel, user)
}

func (ms *metricsMiddleware) GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_user_profiles").Add(1)
		ms.latency.With("operation", "get_user_profiles").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetUserProfiles(ctx, channel, user)
}

func (ms *metricsMiddleware) GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (permissions.Set, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_user_permissions").Add(1)
		ms.latency.With("operation", "get_user_permissions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetUserPermissions(ctx, channel, user)
}

func (ms *metricsMiddleware) GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]permissions.Level, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_user_permission_levels").Add(1)
		ms.latency.With("operation", "get_user_permission_levels").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetUserPermissionLevels(ctx, channel)
}

func (ms *metricsMiddleware) GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]manager.ChannelMember, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_channel_members").Add(1)
		ms.latency.With("operation", "get_channel_members").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetChannelMembers(ctx, channel, availableOnly)
}

func (ms *metricsMiddleware) GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	defer func(begin time.Time) {
		ms.counter.With("operation", "get_attachable_profiles").Add(1)
		ms.latency.With("operation", "get_attachable_profiles").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.GetAttachableProfiles(ctx, channel, user)
}

func (ms *metricsMiddleware) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool {
	defer func(begin time.Time) {
		ms.counter.With("operation", "change_star").Add(1)
		ms.latency.With("operation", "change_star").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.ChangeStar(ctx, channel, user, starred)
}

func (ms *metricsMiddleware) EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) manager.EnsureChannelResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "ensure_channel").Add(1)
		ms.latency.With("operation", "ensure_channel").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.EnsureChannel(ctx, platform, token, defaultName)
}

func (ms *metricsMiddleware) RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) promotions.AppendResult {
	defer func(begin time.Time) {
		ms.counter.With("operation", "record_promotion").Add(1)
		ms.latency.With("operation", "record_promotion").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.RecordPromotion(ctx, channel, supporter, target, profile)
}
