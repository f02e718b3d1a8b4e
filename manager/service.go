// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"fmt"
	"sort"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/memberships"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	svcerr "github.com/absmach/jelly/pkg/errors/service"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	registerNewDefaultTask = "register_new_default"
	markUnavailableTask    = "mark_unavailable"
)

var _ Service = (*service)(nil)

type service struct {
	channels    channels.Registry
	profiles    profiles.Store
	memberships memberships.Store
	promotions  promotions.Log
	notifier    Notifier
	scheduler   Scheduler
	// tasks is the service background tasks call back into.
	tasks Service
}

// New instantiates the profile manager.
func New(chs channels.Registry, profs profiles.Store, conns memberships.Store, promos promotions.Log, notifier Notifier, scheduler Scheduler) Service {
	svc := &service{
		channels:    chs,
		profiles:    profs,
		memberships: conns,
		promotions:  promos,
		notifier:    notifier,
		scheduler:   scheduler,
	}
	svc.tasks = svc

	return svc
}

// Bind routes the background tasks of core, a service returned by New,
// through decorated so they pass the same middleware as direct calls. Bind
// must be called before core is used. Any other core is left unchanged.
func Bind(core, decorated Service) {
	if s, ok := core.(*service); ok && decorated != nil {
		s.tasks = decorated
	}
}

func (svc *service) ProcessCreateProfileKwargs(m map[string]string) ArgParseResult {
	return ProcessCreateProfileKwargs(m)
}

func (svc *service) ProcessEditProfileKwargs(m map[string]string) ArgParseResult {
	return ProcessEditProfileKwargs(m)
}

func (svc *service) RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) RegisterProfileResult {
	args := ProcessCreateProfileKwargs(m)
	if !args.Outcome.IsSuccess() {
		return RegisterProfileResult{Outcome: outcomes.WriteNotExecuted, Err: args.Err, Attach: outcomes.OpNotExecuted, Parse: args.Outcome}
	}

	p, outcome, err := buildProfile(args.Parsed)
	if err != nil {
		return RegisterProfileResult{Outcome: outcome, Err: errors.Wrap(svcerr.ErrMalformedEntity, err), Attach: outcomes.OpNotExecuted, Parse: args.Outcome}
	}

	res := svc.RegisterNewModel(ctx, user, p)
	res.Parse = args.Outcome

	return res
}

func (svc *service) RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) RegisterProfileResult {
	res := RegisterProfileResult{Attach: outcomes.OpNotExecuted, Parse: outcomes.OpNotExecuted}

	p = p.Normalize()
	held, err := svc.GetUserPermissions(ctx, p.ChannelOID, user)
	if err != nil {
		res.Outcome, res.Err = outcomes.WriteExceptionOccurred, err
		return res
	}
	allowed := held.Union(permissions.DefaultOverride(p.Level))
	for _, c := range p.Granted() {
		if !allowed.Has(c) {
			res.Outcome, res.Err = outcomes.WriteInsufficientPermission, svcerr.ErrAuthorization
			return res
		}
	}

	created := svc.profiles.Create(ctx, p)
	res.Outcome, res.Err, res.Model = created.Outcome, created.Err, created.Model
	// An existing profile with the same name may grant more than the
	// requested one, so only a new profile is attached.
	if created.Outcome.IsInserted() {
		res.Attach = svc.memberships.Attach(ctx, created.Model.ChannelOID, user, created.Model.ID)
	}

	return res
}

func (svc *service) RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) RegisterProfileResult {
	res := RegisterProfileResult{Attach: outcomes.OpNotExecuted, Parse: outcomes.OpNotExecuted}

	def := svc.profiles.GetDefaultProfile(ctx, channel)
	res.Outcome, res.Err, res.Model = def.Outcome, def.Err, def.Model
	if def.Outcome.IsSuccess() {
		res.Attach = svc.memberships.Attach(ctx, channel, user, def.Model.ID)
	}

	return res
}

func (svc *service) RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID) {
	svc.scheduler.Go(ctx, registerNewDefaultTask, func(ctx context.Context) error {
		res := svc.tasks.RegisterNewDefault(ctx, channel, user)
		switch {
		case !res.Outcome.IsSuccess():
			return errors.Wrap(fmt.Errorf("default profile of channel %s: %s", channel.Hex(), res.Outcome), res.Err)
		case !res.Attach.IsSuccess():
			return fmt.Errorf("attach default profile to user %s: %s", user.Hex(), res.Attach)
		default:
			return nil
		}
	})
}

func (svc *service) UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) outcomes.UpdateOutcome {
	args := ProcessEditProfileKwargs(m)
	if !args.Outcome.IsSuccess() {
		return outcomes.UpdateArgsParseFailed
	}

	p, err := svc.profiles.Get(ctx, profile)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.UpdateNotFound
	case err != nil:
		return outcomes.UpdateExceptionOccurred
	case p.ChannelOID != channel:
		return outcomes.UpdateNotFound
	}

	held, err := svc.executorProfiles(ctx, channel, executor)
	if err != nil {
		return outcomes.UpdateExceptionOccurred
	}
	perms := permissions.Permissions(held)
	required := permissions.PRFControlMember
	for _, h := range held {
		if h.ID == profile {
			required = permissions.PRFControlSelf
			break
		}
	}
	if !perms.Has(required) {
		return outcomes.UpdateInsufficientPermission
	}

	for key, v := range args.Parsed {
		code, isPerm, err := profiles.ParsePermissionEntry(key, profiles.PermissionKeyPrefix)
		if !isPerm || err != nil {
			continue
		}
		if on, _ := v.(bool); on && !perms.Has(code) {
			return outcomes.UpdateInsufficientPermission
		}
	}
	if level, ok := args.Parsed[profiles.FieldLevel.Key].(permissions.Level); ok && level > permissions.HighestLevel(held) {
		return outcomes.UpdateInsufficientPermission
	}

	return svc.profiles.Update(ctx, profile, args.Parsed)
}

func (svc *service) AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) outcomes.OperationOutcome {
	if target == nil {
		target = &executor
	}

	if !svc.memberships.IsUserInChannel(ctx, channel, executor) {
		return outcomes.OpExecutorNotInChannel
	}
	if !svc.memberships.IsUserInChannel(ctx, channel, *target) {
		return outcomes.OpTargetNotInChannel
	}

	if !bypassExistence {
		_, err := svc.profiles.Get(ctx, profile)
		switch {
		case errors.Contains(err, repoerr.ErrNotFound):
			return outcomes.OpProfileNotFoundOID
		case err != nil:
			return outcomes.OpError
		}
	}

	allowed, err := svc.modificationAllowed(ctx, channel, executor, target)
	switch {
	case err != nil:
		return outcomes.OpError
	case !allowed:
		return outcomes.OpInsufficientPermission
	}

	attachable, err := svc.GetAttachableProfiles(ctx, channel, executor)
	switch {
	case err != nil:
		return outcomes.OpError
	case len(attachable) == 0:
		return outcomes.OpNoAttachableProfiles
	}
	found := false
	for _, p := range attachable {
		if p.ID == profile {
			found = true
			break
		}
	}
	if !found {
		return outcomes.OpUnattachable
	}

	return svc.memberships.Attach(ctx, channel, *target, profile)
}

func (svc *service) AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) outcomes.OperationOutcome {
	p, err := svc.profiles.GetByName(ctx, channel, name)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.OpProfileNotFoundName
	case err != nil:
		return outcomes.OpError
	}

	return svc.AttachProfile(ctx, channel, executor, p.ID, target, true)
}

func (svc *service) DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	if !svc.memberships.IsUserInChannel(ctx, channel, executor) {
		return outcomes.OpExecutorNotInChannel
	}
	if target != nil && !svc.memberships.IsUserInChannel(ctx, channel, *target) {
		return outcomes.OpTargetNotInChannel
	}

	p, err := svc.profiles.Get(ctx, profile)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.OpProfileNotFoundOID
	case err != nil:
		return outcomes.OpError
	case p.ChannelOID != channel:
		return outcomes.OpProfileNotFoundOID
	}

	allowed, err := svc.modificationAllowed(ctx, channel, executor, target)
	switch {
	case err != nil:
		return outcomes.OpError
	case !allowed:
		return outcomes.OpInsufficientPermission
	}

	switch out := svc.memberships.Detach(ctx, profile, target); {
	case out.IsSuccess():
		return outcomes.OpCompleted
	case out == outcomes.UpdateNotFound && target == nil:
		// Nobody holds the profile.
		return outcomes.OpCompleted
	default:
		return outcomes.OpDetachFailed
	}
}

func (svc *service) DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome {
	p, err := svc.profiles.GetByName(ctx, channel, name)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.OpProfileNotFoundName
	case err != nil:
		return outcomes.OpError
	}

	return svc.DetachProfile(ctx, channel, p.ID, executor, target)
}

func (svc *service) DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) outcomes.OperationOutcome {
	perms, err := svc.GetUserPermissions(ctx, channel, executor)
	switch {
	case err != nil:
		return outcomes.OpError
	case len(perms) == 0:
		return outcomes.OpExecutorNotInChannel
	case !permissions.CanCED(perms):
		return outcomes.OpInsufficientPermission
	}

	ch, err := svc.channels.Get(ctx, channel)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.OpChannelNotFound
	case err != nil:
		return outcomes.OpError
	}
	if def, ok := ch.DefaultProfile(); ok && def == profile {
		return outcomes.OpInsufficientPermission
	}

	if out := svc.DetachProfile(ctx, channel, profile, executor, nil); !out.IsSuccess() {
		return out
	}
	if !svc.profiles.Delete(ctx, profile) {
		return outcomes.OpDeleteFailed
	}
	if _, err := svc.promotions.Clear(ctx, nil, &profile); err != nil {
		_ = svc.notifier.ReportError(ctx, "clear_promotions", err)
	}

	return outcomes.OpCompleted
}

func (svc *service) GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) ([]ChannelProfileListEntry, error) {
	conns, err := svc.memberships.ListUserConnections(ctx, user, insideOnly)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}
	if len(conns) == 0 {
		return []ChannelProfileListEntry{}, nil
	}

	var channelIDs, profileIDs []primitive.ObjectID
	for _, c := range conns {
		channelIDs = append(channelIDs, c.ChannelOID)
		profileIDs = append(profileIDs, c.ProfileOIDs...)
	}

	var chs map[primitive.ObjectID]channels.Channel
	var profs map[primitive.ObjectID]profiles.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chs, err = svc.channels.GetChannelDict(gctx, channelIDs, false)
		return err
	})
	g.Go(func() (err error) {
		profs, err = svc.profiles.GetMany(gctx, profileIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	entries := []ChannelProfileListEntry{}
	dangling := DanglingMap{}
	for _, c := range conns {
		ch, ok := chs[c.ChannelOID]
		if !ok {
			id := c.ChannelOID
			dangling[c.ID] = Dangling{Channel: &id}
			continue
		}
		if accessibleOnly && !ch.BotAccessible {
			continue
		}

		held := make([]profiles.Profile, 0, len(c.ProfileOIDs))
		var missing []primitive.ObjectID
		for _, id := range c.ProfileOIDs {
			if p, ok := profs[id]; ok {
				held = append(held, p)
				continue
			}
			missing = append(missing, id)
		}
		if len(missing) > 0 {
			dangling[c.ID] = Dangling{Profiles: missing}
			if len(held) == 0 {
				continue
			}
		}

		entry := ChannelProfileListEntry{
			Connection:  c.ID,
			Channel:     ch,
			ChannelName: ch.DisplayName(user),
			Profiles:    held,
			Starred:     c.Starred,
			CanCED:      permissions.CanCED(permissions.Permissions(held)),
		}
		if def, ok := ch.DefaultProfile(); ok {
			entry.DefaultProfileOID = &def
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Channel.BotAccessible != b.Channel.BotAccessible {
			return a.Channel.BotAccessible
		}
		if a.Starred != b.Starred {
			return a.Starred
		}
		return a.Connection.Hex() > b.Connection.Hex()
	})

	if len(dangling) > 0 {
		_ = svc.notifier.ReportDangling(ctx, user, dangling)
	}

	return entries, nil
}

func (svc *service) MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *Handle {
	return svc.scheduler.Go(ctx, markUnavailableTask, func(ctx context.Context) error {
		if out := svc.memberships.MarkUnavailable(ctx, channel, user); !out.IsSuccess() {
			return fmt.Errorf("mark user %s unavailable in channel %s: %s", user.Hex(), channel.Hex(), out)
		}
		return nil
	})
}

func (svc *service) GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	held, err := svc.executorProfiles(ctx, channel, user)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	return held, nil
}

func (svc *service) GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (permissions.Set, error) {
	held, err := svc.GetUserProfiles(ctx, channel, user)
	if err != nil {
		return nil, err
	}

	return permissions.Permissions(held), nil
}

func (svc *service) GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]permissions.Level, error) {
	users, err := svc.memberships.UserProfileMap(ctx, channel)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	ids := []primitive.ObjectID{}
	for _, set := range users {
		for id := range set {
			ids = append(ids, id)
		}
	}
	profs, err := svc.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	ret := make(map[primitive.ObjectID]permissions.Level, len(users))
	for user, set := range users {
		held := []profiles.Profile{}
		for id := range set {
			if p, ok := profs[id]; ok {
				held = append(held, p)
			}
		}
		ret[user] = permissions.HighestLevel(held)
	}

	return ret, nil
}

func (svc *service) GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]ChannelMember, error) {
	conns, err := svc.memberships.ListChannelConnections(ctx, []primitive.ObjectID{channel}, availableOnly)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	ids := []primitive.ObjectID{}
	for _, c := range conns {
		ids = append(ids, c.ProfileOIDs...)
	}
	profs, err := svc.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	members := make([]ChannelMember, 0, len(conns))
	for _, c := range conns {
		held := []profiles.Profile{}
		for _, id := range c.ProfileOIDs {
			if p, ok := profs[id]; ok {
				held = append(held, p)
			}
		}
		members = append(members, ChannelMember{
			User:     c.UserOID,
			Profiles: held,
			Level:    permissions.HighestLevel(held),
		})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Level != members[j].Level {
			return members[i].Level > members[j].Level
		}
		return members[i].User.Hex() < members[j].User.Hex()
	})

	return members, nil
}

func (svc *service) GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	held, err := svc.executorProfiles(ctx, channel, user)
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}
	perms := permissions.Permissions(held)
	if !permissions.CanControlMember(perms) && !permissions.CanControlSelf(perms) {
		return []profiles.Profile{}, nil
	}

	attachable, err := svc.profiles.ListAttachable(ctx, channel, perms, permissions.HighestLevel(held))
	if err != nil {
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	var def primitive.ObjectID
	ch, err := svc.channels.Get(ctx, channel)
	switch {
	case err == nil:
		def, _ = ch.DefaultProfile()
	case !errors.Contains(err, repoerr.ErrNotFound):
		return nil, errors.Wrap(svcerr.ErrViewEntity, err)
	}

	ret := make([]profiles.Profile, 0, len(attachable))
	for _, p := range attachable {
		if !def.IsZero() && p.ID == def {
			continue
		}
		ret = append(ret, p)
	}

	return ret, nil
}

func (svc *service) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool {
	return svc.memberships.ChangeStar(ctx, channel, user, starred)
}

func (svc *service) EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) EnsureChannelResult {
	reg := svc.channels.EnsureRegister(ctx, platform, token, defaultName)
	res := EnsureChannelResult{Outcome: reg.Outcome, Err: reg.Err, Channel: reg.Channel}
	if !reg.Outcome.IsInserted() {
		return res
	}

	def := svc.profiles.CreateDefault(ctx, reg.Channel.ID, true, false)
	if !def.Outcome.IsSuccess() {
		res.Outcome, res.Err = outcomes.WriteDefaultCreateFailed, def.Err
		return res
	}
	res.DefaultProfile = def.Model

	if ch, err := svc.channels.Get(ctx, reg.Channel.ID); err == nil {
		res.Channel = ch
	}

	return res
}

func (svc *service) RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) promotions.AppendResult {
	if supporter == target {
		return promotions.AppendResult{Outcome: outcomes.WriteNotExecuted}
	}
	if !svc.memberships.IsUserInChannel(ctx, channel, supporter) {
		return promotions.AppendResult{Outcome: outcomes.WriteInsufficientPermission, Err: svcerr.ErrAuthorization}
	}
	if !svc.memberships.IsUserInChannel(ctx, channel, target) {
		return promotions.AppendResult{Outcome: outcomes.WriteNotExecuted, Err: svcerr.ErrNotFound}
	}

	p, err := svc.profiles.Get(ctx, profile)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound), err == nil && p.ChannelOID != channel:
		return promotions.AppendResult{Outcome: outcomes.WriteNotExecuted, Err: svcerr.ErrNotFound}
	case err != nil:
		return promotions.AppendResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
	}

	return svc.promotions.Append(ctx, supporter, target, profile)
}

// executorProfiles returns the existing profiles attached to user in the
// channel. A user without a connection holds none.
func (svc *service) executorProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error) {
	conn, err := svc.memberships.GetConnection(ctx, channel, user)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return []profiles.Profile{}, nil
	case err != nil:
		return nil, err
	}

	profs, err := svc.profiles.GetMany(ctx, conn.ProfileOIDs)
	if err != nil {
		return nil, err
	}

	held := make([]profiles.Profile, 0, len(conn.ProfileOIDs))
	for _, id := range conn.ProfileOIDs {
		if p, ok := profs[id]; ok {
			held = append(held, p)
		}
	}

	return held, nil
}

// modificationAllowed reports whether executor may change the profiles of
// target. A nil target stands for other members.
func (svc *service) modificationAllowed(ctx context.Context, channel, executor primitive.ObjectID, target *primitive.ObjectID) (bool, error) {
	perms, err := svc.GetUserPermissions(ctx, channel, executor)
	if err != nil {
		return false, err
	}
	if len(perms) == 0 {
		return false, nil
	}

	if target == nil || *target != executor {
		return permissions.CanControlMember(perms), nil
	}

	return permissions.CanControlSelf(perms), nil
}
