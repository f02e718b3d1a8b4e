// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ manager.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    manager.Service
}

// LoggingMiddleware adds logging facilities to the profile manager.
func LoggingMiddleware(svc manager.Service, logger *slog.Logger) manager.Service {
	return &loggingMiddleware{logger, svc}
}

func (lm *loggingMiddleware) ProcessCreateProfileKwargs(m map[string]string) (res manager.ArgParseResult) {
	defer func(begin time.Time) {
		lm.logOutcome("Process create profile arguments", begin, res.Outcome, res.Err,
			slog.Int("arguments", len(m)),
		)
	}(time.Now())
	return lm.svc.ProcessCreateProfileKwargs(m)
}

func (lm *loggingMiddleware) ProcessEditProfileKwargs(m map[string]string) (res manager.ArgParseResult) {
	defer func(begin time.Time) {
		lm.logOutcome("Process edit profile arguments", begin, res.Outcome, res.Err,
			slog.Int("arguments", len(m)),
		)
	}(time.Now())
	return lm.svc.ProcessEditProfileKwargs(m)
}

// RegisterNew logs the register_new request. It logs the user, the parse
// and attach outcomes and the created profile.
func (lm *loggingMiddleware) RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) (res manager.RegisterProfileResult) {
	defer func(begin time.Time) {
		lm.logRegister("Register profile", begin, user, res)
	}(time.Now())
	return lm.svc.RegisterNew(ctx, user, m)
}

func (lm *loggingMiddleware) RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) (res manager.RegisterProfileResult) {
	defer func(begin time.Time) {
		lm.logRegister("Register profile model", begin, user, res)
	}(time.Now())
	return lm.svc.RegisterNewModel(ctx, user, p)
}

func (lm *loggingMiddleware) RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) (res manager.RegisterProfileResult) {
	defer func(begin time.Time) {
		lm.logRegister("Register default profile", begin, user, res, slog.String("channel", channel.Hex()))
	}(time.Now())
	return lm.svc.RegisterNewDefault(ctx, channel, user)
}

func (lm *loggingMiddleware) RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID) {
	lm.logger.Info("Register default profile scheduled",
		slog.String("channel", channel.Hex()),
		slog.String("user", user.Hex()),
	)
	lm.svc.RegisterNewDefaultAsync(ctx, channel, user)
}

// UpdateProfile logs the update_profile request. It logs the channel, the
// executor, the profile and the time it took to complete the request.
func (lm *loggingMiddleware) UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) (out outcomes.UpdateOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Update profile", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("profile", profile.Hex()),
		)
	}(time.Now())
	return lm.svc.UpdateProfile(ctx, channel, executor, profile, m)
}

func (lm *loggingMiddleware) AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) (out outcomes.OperationOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Attach profile", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("profile", profile.Hex()),
			target2attr(target),
		)
	}(time.Now())
	return lm.svc.AttachProfile(ctx, channel, executor, profile, target, bypassExistence)
}

func (lm *loggingMiddleware) AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) (out outcomes.OperationOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Attach profile by name", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("name", name),
			target2attr(target),
		)
	}(time.Now())
	return lm.svc.AttachProfileName(ctx, channel, executor, name, target)
}

func (lm *loggingMiddleware) DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) (out outcomes.OperationOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Detach profile", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("profile", profile.Hex()),
			target2attr(target),
		)
	}(time.Now())
	return lm.svc.DetachProfile(ctx, channel, profile, executor, target)
}

func (lm *loggingMiddleware) DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) (out outcomes.OperationOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Detach profile by name", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("name", name),
			target2attr(target),
		)
	}(time.Now())
	return lm.svc.DetachProfileName(ctx, channel, name, executor, target)
}

// DeleteProfile logs the delete_profile request. It logs the channel, the
// executor, the profile and the time it took to complete the request.
func (lm *loggingMiddleware) DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) (out outcomes.OperationOutcome) {
	defer func(begin time.Time) {
		lm.logOutcome("Delete profile", begin, out, nil,
			slog.String("channel", channel.Hex()),
			slog.String("executor", executor.Hex()),
			slog.String("profile", profile.Hex()),
		)
	}(time.Now())
	return lm.svc.DeleteProfile(ctx, channel, profile, executor)
}

func (lm *loggingMiddleware) GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) (entries []manager.ChannelProfileListEntry, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("user", user.Hex()),
			slog.Bool("inside_only", insideOnly),
			slog.Bool("accessible_only", accessibleOnly),
			slog.Int("entries", len(entries)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List user channel profiles failed", args...)
			return
		}
		lm.logger.Info("List user channel profiles completed successfully", args...)
	}(time.Now())
	return lm.svc.GetUserChannelProfiles(ctx, user, insideOnly, accessibleOnly)
}

func (lm *loggingMiddleware) MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *manager.Handle {
	lm.logger.Info("Mark user unavailable scheduled",
		slog.String("channel", channel.Hex()),
		slog.String("user", user.Hex()),
	)
	return lm.svc.MarkUnavailableAsync(ctx, channel, user)
}

func (lm *loggingMiddleware) GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) (profs []profiles.Profile, err error) {
	defer func(begin time.Time) {
		lm.logView("View user profiles", begin, err,
			slog.String("channel", channel.Hex()),
			slog.String("user", user.Hex()),
			slog.Int("profiles", len(profs)),
		)
	}(time.Now())
	return lm.svc.GetUserProfiles(ctx, channel, user)
}

func (lm *loggingMiddleware) GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (perms permissions.Set, err error) {
	defer func(begin time.Time) {
		lm.logView("View user permissions", begin, err,
			slog.String("channel", channel.Hex()),
			slog.String("user", user.Hex()),
			slog.Int("permissions", len(perms)),
		)
	}(time.Now())
	return lm.svc.GetUserPermissions(ctx, channel, user)
}

func (lm *loggingMiddleware) GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (levels map[primitive.ObjectID]permissions.Level, err error) {
	defer func(begin time.Time) {
		lm.logView("View member permission levels", begin, err,
			slog.String("channel", channel.Hex()),
			slog.Int("members", len(levels)),
		)
	}(time.Now())
	return lm.svc.GetUserPermissionLevels(ctx, channel)
}

func (lm *loggingMiddleware) GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) (members []manager.ChannelMember, err error) {
	defer func(begin time.Time) {
		lm.logView("View channel members", begin, err,
			slog.String("channel", channel.Hex()),
			slog.Bool("available_only", availableOnly),
			slog.Int("members", len(members)),
		)
	}(time.Now())
	return lm.svc.GetChannelMembers(ctx, channel, availableOnly)
}

func (lm *loggingMiddleware) GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) (profs []profiles.Profile, err error) {
	defer func(begin time.Time) {
		lm.logView("View attachable profiles", begin, err,
			slog.String("channel", channel.Hex()),
			slog.String("user", user.Hex()),
			slog.Int("profiles", len(profs)),
		)
	}(time.Now())
	return lm.svc.GetAttachableProfiles(ctx, channel, user)
}

func (lm *loggingMiddleware) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) (ok bool) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("channel", channel.Hex()),
			slog.String("user", user.Hex()),
			slog.Bool("starred", starred),
		}
		if !ok {
			lm.logger.Warn("Change star failed", args...)
			return
		}
		lm.logger.Info("Change star completed successfully", args...)
	}(time.Now())
	return lm.svc.ChangeStar(ctx, channel, user, starred)
}

func (lm *loggingMiddleware) EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) (res manager.EnsureChannelResult) {
	defer func(begin time.Time) {
		lm.logOutcome("Ensure channel", begin, res.Outcome, res.Err,
			slog.Group("channel",
				slog.String("id", res.Channel.ID.Hex()),
				slog.String("platform", platform.String()),
			),
		)
	}(time.Now())
	return lm.svc.EnsureChannel(ctx, platform, token, defaultName)
}

func (lm *loggingMiddleware) RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) (res promotions.AppendResult) {
	defer func(begin time.Time) {
		lm.logOutcome("Record promotion vote", begin, res.Outcome, res.Err,
			slog.String("channel", channel.Hex()),
			slog.String("supporter", supporter.Hex()),
			slog.String("target", target.Hex()),
			slog.String("profile", profile.Hex()),
		)
	}(time.Now())
	return lm.svc.RecordPromotion(ctx, channel, supporter, target, profile)
}

func (lm *loggingMiddleware) logRegister(op string, begin time.Time, user primitive.ObjectID, res manager.RegisterProfileResult, attrs ...any) {
	attrs = append(attrs,
		slog.String("user", user.Hex()),
		slog.String("attach", res.Attach.String()),
		slog.String("parse", res.Parse.String()),
	)
	if res.Model != nil {
		attrs = append(attrs, slog.Group("profile",
			slog.String("id", res.Model.ID.Hex()),
			slog.String("name", res.Model.Name),
		))
	}
	lm.logOutcome(op, begin, res.Outcome, res.Err, attrs...)
}

func (lm *loggingMiddleware) logOutcome(op string, begin time.Time, out outcomes.Outcome, err error, attrs ...any) {
	args := []any{slog.String("duration", time.Since(begin).String())}
	args = append(args, attrs...)
	if out != nil {
		args = append(args, slog.String("outcome", out.String()))
	}
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	if out == nil || !out.IsSuccess() {
		lm.logger.Warn(op+" failed", args...)
		return
	}
	lm.logger.Info(op+" completed successfully", args...)
}

func (lm *loggingMiddleware) logView(op string, begin time.Time, err error, attrs ...any) {
	args := []any{slog.String("duration", time.Since(begin).String())}
	args = append(args, attrs...)
	if err != nil {
		args = append(args, slog.Any("error", err))
		lm.logger.Warn(op+" failed", args...)
		return
	}
	lm.logger.Info(op+" completed successfully", args...)
}

func target2attr(target *primitive.ObjectID) slog.Attr {
	if target == nil {
		return slog.String("target", "")
	}
	return slog.String("target", target.Hex())
}
