// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"log/slog"
	"sort"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StreamID is the stream the profile manager publishes to.
const StreamID = "jelly.profiles"

var _ manager.Service = (*eventStore)(nil)

type eventStore struct {
	events.Publisher
	svc    manager.Service
	logger *slog.Logger
}

// NewEventStoreMiddleware returns wrapper around the profile manager that
// sends an event for every successful change.
func NewEventStoreMiddleware(svc manager.Service, publisher events.Publisher, logger *slog.Logger) manager.Service {
	return &eventStore{
		Publisher: publisher,
		svc:       svc,
		logger:    logger,
	}
}

func (es *eventStore) ProcessCreateProfileKwargs(m map[string]string) manager.ArgParseResult {
	return es.svc.ProcessCreateProfileKwargs(m)
}

func (es *eventStore) ProcessEditProfileKwargs(m map[string]string) manager.ArgParseResult {
	return es.svc.ProcessEditProfileKwargs(m)
}

func (es *eventStore) RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) manager.RegisterProfileResult {
	res := es.svc.RegisterNew(ctx, user, m)
	es.register(ctx, user, res)

	return res
}

func (es *eventStore) RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) manager.RegisterProfileResult {
	res := es.svc.RegisterNewModel(ctx, user, p)
	es.register(ctx, user, res)

	return res
}

func (es *eventStore) RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) manager.RegisterProfileResult {
	res := es.svc.RegisterNewDefault(ctx, channel, user)
	es.register(ctx, user, res)

	return res
}

func (es *eventStore) RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID) {
	es.svc.RegisterNewDefaultAsync(ctx, channel, user)
}

func (es *eventStore) UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) outcomes.UpdateOutcome {
	out := es.svc.UpdateProfile(ctx, channel, executor, profile, m)
	if !out.IsSuccess() {
		return out
	}

	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	es.publish(ctx, updateProfileEvent{channel: channel, executor: executor, profile: profile, fields: fields})

	return out
}

func (es *eventStore) AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) outcomes.OperationOutcome {
	out := es.svc.AttachProfile(ctx, channel, executor, profile, target, bypassExistence)
	if out.IsSuccess() {
		es.publish(ctx, membershipEvent{operation: profileAttach, channel: channel, executor: executor, profile: &profile, target: target})
	}

	return out
}

func (es *eventStore) AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) outcomes.OperationOutcome {
	out := es.svc.AttachProfileName(ctx, channel, executor, name, target)
	if out.IsSuccess() {
		es.publish(ctx, membershipEvent{operation: profileAttach, channel: channel, executor: executor, name: name, target: target})
	}

	return out
}

func (es *eventStore) DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	out := es.svc.DetachProfile(ctx, channel, profile, executor, target)
	if out.IsSuccess() {
		es.publish(ctx, membershipEvent{operation: profileDetach, channel: channel, executor: executor, profile: &profile, target: target})
	}

	return out
}

func (es *eventStore) DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	out := es.svc.DetachProfileName(ctx, channel, name, executor, target)
	if out.IsSuccess() {
		es.publish(ctx, membershipEvent{operation: profileDetach, channel: channel, executor: executor, name: name, target: target})
	}

	return out
}

func (es *eventStore) DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) outcomes.OperationOutcome {
	out := es.svc.DeleteProfile(ctx, channel, profile, executor)
	if out.IsSuccess() {
		es.publish(ctx, deleteProfileEvent{channel: channel, executor: executor, profile: profile})
	}

	return out
}

func (es *eventStore) GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) ([]manager.ChannelProfileListEntry, error) {
	return es.svc.GetUserChannelProfiles(ctx, user, insideOnly, accessibleOnly)
}

func (es *eventStore) MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *manager.Handle {
	return es.svc.MarkUnavailableAsync(ctx, channel, user)
}

func (es *eventStore) GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	return es.svc.GetUserProfiles(ctx, channel, user)
}

func (es *eventStore) GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (permissions.Set, error) {
	return es.svc.GetUserPermissions(ctx, channel, user)
}

func (es *eventStore) GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]permissions.Level, error) {
	return es.svc.GetUserPermissionLevels(ctx, channel)
}

func (es *eventStore) GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]manager.ChannelMember, error) {
	return es.svc.GetChannelMembers(ctx, channel, availableOnly)
}

func (es *eventStore) GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	return es.svc.GetAttachableProfiles(ctx, channel, user)
}

func (es *eventStore) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool {
	ok := es.svc.ChangeStar(ctx, channel, user, starred)
	if ok {
		es.publish(ctx, starEvent{channel: channel, user: user, starred: starred})
	}

	return ok
}

func (es *eventStore) EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) manager.EnsureChannelResult {
	res := es.svc.EnsureChannel(ctx, platform, token, defaultName)
	if res.Outcome.IsInserted() {
		event := ensureChannelEvent{channel: res.Channel.ID, platform: platform.String()}
		if res.DefaultProfile != nil {
			event.profile = &res.DefaultProfile.ID
		}
		es.publish(ctx, event)
	}

	return res
}

func (es *eventStore) RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) promotions.AppendResult {
	res := es.svc.RecordPromotion(ctx, channel, supporter, target, profile)
	if res.Outcome.IsInserted() {
		es.publish(ctx, promotionEvent{channel: channel, supporter: supporter, target: target, profile: profile})
	}

	return res
}

func (es *eventStore) register(ctx context.Context, user primitive.ObjectID, res manager.RegisterProfileResult) {
	if res.Model == nil || !res.Attach.IsSuccess() {
		return
	}

	es.publish(ctx, registerProfileEvent{
		user:    user,
		channel: res.Model.ChannelOID,
		profile: res.Model.ID,
		name:    res.Model.Name,
		level:   res.Model.Level.String(),
		attach:  res.Attach.String(),
	})
}

func (es *eventStore) publish(ctx context.Context, event events.Event) {
	if err := es.Publish(ctx, event); err != nil {
		es.logger.Warn("Failed to publish event", slog.Any("error", err))
	}
}
