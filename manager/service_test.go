// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/absmach/jelly/channels"
	chmocks "github.com/absmach/jelly/channels/mocks"
	"github.com/absmach/jelly/logger"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/manager/mocks"
	"github.com/absmach/jelly/memberships"
	mbmocks "github.com/absmach/jelly/memberships/mocks"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	svcerr "github.com/absmach/jelly/pkg/errors/service"
	"github.com/absmach/jelly/profiles"
	prmocks "github.com/absmach/jelly/profiles/mocks"
	"github.com/absmach/jelly/promotions"
	pmmocks "github.com/absmach/jelly/promotions/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const timeout = time.Second

type fixture struct {
	svc       manager.Service
	channels  channels.Registry
	profiles  profiles.Store
	conns     memberships.Store
	connRepo  memberships.Repository
	promos    promotions.Log
	notifier  *mocks.Notifier
	scheduler manager.Scheduler
	channel   channels.Channel
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		channels: channels.NewRegistry(chmocks.NewRepository(), chmocks.NewCache(), timeout, logger.NewMock()),
		connRepo: mbmocks.NewRepository(),
		promos:   promotions.NewLog(pmmocks.NewRepository(), timeout),
		notifier: mocks.NewNotifier(),
	}
	f.profiles = profiles.NewStore(prmocks.NewRepository(), f.channels, "", timeout)
	f.conns = memberships.NewStore(f.connRepo, timeout)
	f.scheduler = manager.NewScheduler(logger.NewMock(), f.notifier, true)
	f.svc = manager.New(f.channels, f.profiles, f.conns, f.promos, f.notifier, f.scheduler)
	f.channel = f.register(t, "C1")

	return f
}

func (f *fixture) register(t *testing.T, token string) channels.Channel {
	res := f.channels.EnsureRegister(context.Background(), channels.PlatformLine, token, nil)
	require.Equal(t, outcomes.WriteInserted, res.Outcome)

	return res.Channel
}

func (f *fixture) profile(t *testing.T, name string, level permissions.Level, grants ...permissions.Code) profiles.Profile {
	perm := map[string]bool{}
	for _, c := range grants {
		perm[c.Key()] = true
	}
	res := f.profiles.Create(context.Background(), profiles.Profile{ChannelOID: f.channel.ID, Name: name, Level: level, Permission: perm})
	require.Equal(t, outcomes.WriteInserted, res.Outcome, res.Outcome.String())

	return *res.Model
}

func (f *fixture) member(t *testing.T, profs ...profiles.Profile) primitive.ObjectID {
	user := primitive.NewObjectID()
	for _, p := range profs {
		require.Equal(t, outcomes.OpCompleted, f.conns.Attach(context.Background(), f.channel.ID, user, p.ID))
	}

	return user
}

func (f *fixture) admin(t *testing.T) primitive.ObjectID {
	return f.member(t, f.profile(t, fmt.Sprintf("Admin %s", primitive.NewObjectID().Hex()), permissions.LevelAdmin))
}

func TestRegisterNewDefault(t *testing.T) {
	f := newFixture(t)
	users := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	var wg sync.WaitGroup
	results := make([]manager.RegisterProfileResult, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u primitive.ObjectID) {
			defer wg.Done()
			results[i] = f.svc.RegisterNewDefault(context.Background(), f.channel.ID, u)
		}(i, u)
	}
	wg.Wait()

	profs, err := f.profiles.ListByChannel(context.Background(), f.channel.ID, "")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Len(t, profs, 1)
	assert.Equal(t, profiles.DefaultProfileName, profs[0].Name)

	ch, err := f.channels.Get(context.Background(), f.channel.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	def, ok := ch.DefaultProfile()
	require.True(t, ok)
	assert.Equal(t, profs[0].ID, def)

	for i, u := range users {
		assert.True(t, results[i].Outcome.IsSuccess(), results[i].Outcome.String())
		assert.Equal(t, outcomes.OpCompleted, results[i].Attach)
		conn, err := f.conns.GetConnection(context.Background(), f.channel.ID, u)
		require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
		assert.Equal(t, []primitive.ObjectID{def}, conn.ProfileOIDs)
	}
}

func TestRegisterNewDefaultAsync(t *testing.T) {
	f := newFixture(t)
	user := primitive.NewObjectID()

	f.svc.RegisterNewDefaultAsync(context.Background(), f.channel.ID, user)
	assert.True(t, f.conns.IsUserInChannel(context.Background(), f.channel.ID, user))
	assert.Empty(t, f.notifier.Errors("register_new_default"))

	f.svc.RegisterNewDefaultAsync(context.Background(), primitive.NewObjectID(), user)
	assert.Len(t, f.notifier.Errors("register_new_default"), 1)
}

func TestDefaultProfileRoundTrip(t *testing.T) {
	f := newFixture(t)

	created := f.profiles.CreateDefault(context.Background(), f.channel.ID, true, true)
	require.True(t, created.Outcome.IsInserted(), created.Outcome.String())

	got := f.profiles.GetDefaultProfile(context.Background(), f.channel.ID)
	require.True(t, got.Outcome.IsSuccess(), got.Outcome.String())
	assert.Equal(t, created.Model.ID, got.Model.ID)
}

func TestRegisterNew(t *testing.T) {
	f := newFixture(t)
	adm := f.admin(t)
	normal := f.member(t, f.profile(t, "Member", permissions.LevelNormal))
	f.profile(t, "Taken", permissions.LevelAdmin)

	cases := []struct {
		desc    string
		user    primitive.ObjectID
		args    map[string]string
		outcome outcomes.Outcome
		attach  outcomes.OperationOutcome
		parse   outcomes.OperationOutcome
	}{
		{
			desc:    "register with granted permissions",
			user:    adm,
			args:    map[string]string{"ChannelOid": f.channel.ID.Hex(), "Name": "Editors", "Permission.CNL_ADJUST_FEATURES": "1"},
			outcome: outcomes.WriteInserted,
			attach:  outcomes.OpCompleted,
			parse:   outcomes.OpCompleted,
		},
		{
			desc:    "register with permissions the user lacks",
			user:    normal,
			args:    map[string]string{"ChannelOid": f.channel.ID.Hex(), "Name": "Deleters", "Permission.501": "true"},
			outcome: outcomes.WriteInsufficientPermission,
			attach:  outcomes.OpNotExecuted,
			parse:   outcomes.OpCompleted,
		},
		{
			desc:    "register level defaults without holding them",
			user:    normal,
			args:    map[string]string{"ChannelOid": f.channel.ID.Hex(), "Name": "Mods", "PermissionLevel": "MOD", "Extra": "1"},
			outcome: outcomes.WriteInserted,
			attach:  outcomes.OpCompleted,
			parse:   outcomes.OpAddlArgsOmitted,
		},
		{
			desc:    "register existing name",
			user:    normal,
			args:    map[string]string{"ChannelOid": f.channel.ID.Hex(), "Name": "Taken"},
			outcome: outcomes.WriteDataExists,
			attach:  outcomes.OpNotExecuted,
			parse:   outcomes.OpCompleted,
		},
		{
			desc:    "register without name",
			user:    adm,
			args:    map[string]string{"ChannelOid": f.channel.ID.Hex()},
			outcome: outcomes.WriteRequiredNotFilled,
			attach:  outcomes.OpNotExecuted,
			parse:   outcomes.OpCompleted,
		},
		{
			desc:    "register with unparsable arguments",
			user:    adm,
			args:    map[string]string{"Name": "Nowhere"},
			outcome: outcomes.WriteNotExecuted,
			attach:  outcomes.OpNotExecuted,
			parse:   outcomes.OpMissingChannelOID,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			res := f.svc.RegisterNew(context.Background(), tc.user, tc.args)
			assert.Equal(t, tc.outcome, res.Outcome, res.Outcome.String())
			assert.Equal(t, tc.attach, res.Attach, res.Attach.String())
			assert.Equal(t, tc.parse, res.Parse, res.Parse.String())
			if tc.attach == outcomes.OpCompleted {
				conn, err := f.conns.GetConnection(context.Background(), f.channel.ID, tc.user)
				require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
				assert.Contains(t, conn.ProfileOIDs, res.Model.ID)
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	member := f.profile(t, "Member", permissions.LevelNormal)
	mod := f.profile(t, "Moderator", permissions.LevelMod)
	normal := f.member(t, member)
	moderator := f.member(t, mod)
	adm := f.admin(t)

	other := f.register(t, "C2")
	foreign := f.profiles.Create(context.Background(), profiles.Profile{ChannelOID: other.ID, Name: "Foreign"})
	require.True(t, foreign.Outcome.IsInserted())

	cases := []struct {
		desc     string
		executor primitive.ObjectID
		profile  primitive.ObjectID
		args     map[string]string
		outcome  outcomes.UpdateOutcome
	}{
		{
			desc:     "edit own profile without control over self",
			executor: normal,
			profile:  member.ID,
			args:     map[string]string{"Permission.101": "true"},
			outcome:  outcomes.UpdateInsufficientPermission,
		},
		{
			desc:     "grant a permission the executor lacks",
			executor: moderator,
			profile:  mod.ID,
			args:     map[string]string{"Permission.301": "true"},
			outcome:  outcomes.UpdateInsufficientPermission,
		},
		{
			desc:     "edit another profile without control over members",
			executor: moderator,
			profile:  member.ID,
			args:     map[string]string{"Name": "Members"},
			outcome:  outcomes.UpdateInsufficientPermission,
		},
		{
			desc:     "raise own level above the highest held",
			executor: moderator,
			profile:  mod.ID,
			args:     map[string]string{"PermissionLevel": "ADMIN"},
			outcome:  outcomes.UpdateInsufficientPermission,
		},
		{
			desc:     "rename own profile",
			executor: moderator,
			profile:  mod.ID,
			args:     map[string]string{"Name": "Mods"},
			outcome:  outcomes.UpdateUpdated,
		},
		{
			desc:     "edit a member profile",
			executor: adm,
			profile:  member.ID,
			args:     map[string]string{"Color": "#00FF00", "Permission.301": "true"},
			outcome:  outcomes.UpdateUpdated,
		},
		{
			desc:     "edit as a non member",
			executor: primitive.NewObjectID(),
			profile:  member.ID,
			args:     map[string]string{"Name": "Anyone"},
			outcome:  outcomes.UpdateInsufficientPermission,
		},
		{
			desc:     "edit a profile of another channel",
			executor: adm,
			profile:  foreign.Model.ID,
			args:     map[string]string{"Name": "Mine"},
			outcome:  outcomes.UpdateNotFound,
		},
		{
			desc:     "edit a missing profile",
			executor: adm,
			profile:  primitive.NewObjectID(),
			args:     map[string]string{"Name": "Ghost"},
			outcome:  outcomes.UpdateNotFound,
		},
		{
			desc:     "edit with unparsable arguments",
			executor: adm,
			profile:  member.ID,
			args:     map[string]string{"Permission.101": "perhaps"},
			outcome:  outcomes.UpdateArgsParseFailed,
		},
		{
			desc:     "edit only read-only fields",
			executor: adm,
			profile:  member.ID,
			args:     map[string]string{"ChannelOid": other.ID.Hex()},
			outcome:  outcomes.UpdateArgsParseFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			before, _ := f.profiles.Get(context.Background(), tc.profile)
			out := f.svc.UpdateProfile(context.Background(), f.channel.ID, tc.executor, tc.profile, tc.args)
			assert.Equal(t, tc.outcome, out, out.String())
			if !out.IsSuccess() {
				after, _ := f.profiles.Get(context.Background(), tc.profile)
				assert.Equal(t, before, after)
			}
		})
	}
}

func TestAttachProfile(t *testing.T) {
	f := newFixture(t)
	member := f.profile(t, "P", permissions.LevelNormal)
	elevated := f.profile(t, "Elevated", permissions.LevelNormal, permissions.PRFCED, permissions.CNLAdjustPrivacy)
	controller := f.member(t, f.profile(t, "Controller", permissions.LevelNormal, permissions.PRFControlMember, permissions.PRFControlSelf))
	adm := f.admin(t)
	normal := f.member(t, member)
	outsider := primitive.NewObjectID()

	cases := []struct {
		desc     string
		executor primitive.ObjectID
		name     string
		target   *primitive.ObjectID
		outcome  outcomes.OperationOutcome
	}{
		{
			desc:     "attach to a user outside the channel",
			executor: controller,
			name:     "P",
			target:   &outsider,
			outcome:  outcomes.OpTargetNotInChannel,
		},
		{
			desc:     "attach as a user outside the channel",
			executor: outsider,
			name:     "P",
			target:   &normal,
			outcome:  outcomes.OpExecutorNotInChannel,
		},
		{
			desc:     "attach a missing profile",
			executor: controller,
			name:     "Q",
			target:   &normal,
			outcome:  outcomes.OpProfileNotFoundName,
		},
		{
			desc:     "attach to self without control over self",
			executor: normal,
			name:     "P",
			outcome:  outcomes.OpInsufficientPermission,
		},
		{
			desc:     "attach a profile granting more than held",
			executor: controller,
			name:     "Elevated",
			target:   &normal,
			outcome:  outcomes.OpUnattachable,
		},
		{
			desc:     "attach a profile to a member",
			executor: controller,
			name:     "P",
			target:   &adm,
			outcome:  outcomes.OpCompleted,
		},
		{
			desc:     "attach an elevated profile as admin",
			executor: adm,
			name:     "Elevated",
			target:   &normal,
			outcome:  outcomes.OpCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			out := f.svc.AttachProfileName(context.Background(), f.channel.ID, tc.executor, tc.name, tc.target)
			assert.Equal(t, tc.outcome, out, out.String())
		})
	}

	_, err := f.conns.GetConnection(context.Background(), f.channel.ID, outsider)
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))

	conn, err := f.conns.GetConnection(context.Background(), f.channel.ID, normal)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []primitive.ObjectID{member.ID, elevated.ID}, conn.ProfileOIDs)

	out := f.svc.AttachProfile(context.Background(), f.channel.ID, adm, primitive.NewObjectID(), &normal, false)
	assert.Equal(t, outcomes.OpProfileNotFoundOID, out, out.String())
}

func TestGetAttachableProfiles(t *testing.T) {
	f := newFixture(t)
	def := f.profiles.GetDefaultProfile(context.Background(), f.channel.ID)
	require.True(t, def.Outcome.IsSuccess())
	member := f.profile(t, "Member", permissions.LevelNormal)
	f.profile(t, "Privacy", permissions.LevelNormal, permissions.CNLAdjustPrivacy)
	self := f.profile(t, "Self", permissions.LevelNormal, permissions.PRFControlSelf)
	normal := f.member(t, member)
	selfish := f.member(t, self)
	adm := f.admin(t)

	cases := []struct {
		desc  string
		user  primitive.ObjectID
		names []string
	}{
		{
			desc:  "user without control permissions",
			user:  normal,
			names: []string{},
		},
		{
			desc:  "user controlling self",
			user:  selfish,
			names: []string{"Member", "Self"},
		},
		{
			desc: "admin",
			user: adm,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			profs, err := f.svc.GetAttachableProfiles(context.Background(), f.channel.ID, tc.user)
			require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
			names := []string{}
			for _, p := range profs {
				assert.NotEqual(t, def.Model.ID, p.ID)
				names = append(names, p.Name)
			}
			if tc.names != nil {
				assert.Equal(t, tc.names, names)
				return
			}
			assert.Contains(t, names, "Privacy")
			assert.NotContains(t, names, profiles.DefaultProfileName)
		})
	}
}

func TestDetachProfile(t *testing.T) {
	f := newFixture(t)
	member := f.profile(t, "Member", permissions.LevelNormal)
	unused := f.profile(t, "Unused", permissions.LevelNormal)
	extra := f.profile(t, "Extra", permissions.LevelNormal)
	adm := f.admin(t)
	normal := f.member(t, member, extra)

	cases := []struct {
		desc     string
		executor primitive.ObjectID
		profile  primitive.ObjectID
		target   *primitive.ObjectID
		outcome  outcomes.OperationOutcome
	}{
		{
			desc:     "detach own profile without control over self",
			executor: normal,
			profile:  member.ID,
			target:   &normal,
			outcome:  outcomes.OpInsufficientPermission,
		},
		{
			desc:     "detach a missing profile",
			executor: adm,
			profile:  primitive.NewObjectID(),
			target:   &normal,
			outcome:  outcomes.OpProfileNotFoundOID,
		},
		{
			desc:     "detach a profile nobody holds",
			executor: adm,
			profile:  unused.ID,
			outcome:  outcomes.OpCompleted,
		},
		{
			desc:     "detach a profile from a member",
			executor: adm,
			profile:  member.ID,
			target:   &normal,
			outcome:  outcomes.OpCompleted,
		},
		{
			desc:     "detach a profile the member no longer holds",
			executor: adm,
			profile:  member.ID,
			target:   &normal,
			outcome:  outcomes.OpDetachFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			out := f.svc.DetachProfile(context.Background(), f.channel.ID, tc.profile, tc.executor, tc.target)
			assert.Equal(t, tc.outcome, out, out.String())
		})
	}

	conn, err := f.conns.GetConnection(context.Background(), f.channel.ID, normal)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []primitive.ObjectID{extra.ID}, conn.ProfileOIDs)
}

func TestDeleteProfile(t *testing.T) {
	f := newFixture(t)
	def := f.profiles.GetDefaultProfile(context.Background(), f.channel.ID)
	require.True(t, def.Outcome.IsSuccess())
	p := f.profile(t, "P", permissions.LevelNormal)
	q := f.profile(t, "Q", permissions.LevelMod)
	u1 := f.member(t, p, q)
	u2 := f.member(t, p)
	adm := f.member(t, f.profile(t, "Deleter", permissions.LevelNormal, permissions.PRFCED, permissions.PRFControlMember))
	normal := f.member(t, *def.Model)

	promo := f.svc.RecordPromotion(context.Background(), f.channel.ID, u1, u2, p.ID)
	require.Equal(t, outcomes.WriteInserted, promo.Outcome, promo.Outcome.String())

	cases := []struct {
		desc     string
		executor primitive.ObjectID
		profile  primitive.ObjectID
		outcome  outcomes.OperationOutcome
	}{
		{
			desc:     "delete as a user outside the channel",
			executor: primitive.NewObjectID(),
			profile:  p.ID,
			outcome:  outcomes.OpExecutorNotInChannel,
		},
		{
			desc:     "delete without permission",
			executor: normal,
			profile:  p.ID,
			outcome:  outcomes.OpInsufficientPermission,
		},
		{
			desc:     "delete the default profile",
			executor: adm,
			profile:  def.Model.ID,
			outcome:  outcomes.OpInsufficientPermission,
		},
		{
			desc:     "delete an attached profile",
			executor: adm,
			profile:  p.ID,
			outcome:  outcomes.OpCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			out := f.svc.DeleteProfile(context.Background(), f.channel.ID, tc.profile, tc.executor)
			assert.Equal(t, tc.outcome, out, out.String())
		})
	}

	_, err := f.profiles.Get(context.Background(), p.ID)
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))

	users, err := f.conns.ProfileUsers(context.Background(), p.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Empty(t, users)

	conn, err := f.conns.GetConnection(context.Background(), f.channel.ID, u1)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []primitive.ObjectID{q.ID}, conn.ProfileOIDs)
	assert.False(t, f.conns.IsUserInChannel(context.Background(), f.channel.ID, u2))

	stored, err := f.profiles.Get(context.Background(), q.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, q, stored)

	votes, err := f.promos.ListByProfile(context.Background(), p.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Empty(t, votes)
}

func TestGetUserChannelProfiles(t *testing.T) {
	f := newFixture(t)
	p := f.profile(t, "P", permissions.LevelNormal)
	user := f.member(t, p)

	missingChannel := mbmocks.Seed(f.connRepo, memberships.Connection{
		ChannelOID:  primitive.NewObjectID(),
		UserOID:     user,
		ProfileOIDs: []primitive.ObjectID{p.ID},
	})
	other := f.register(t, "C2")
	missingProfiles := mbmocks.Seed(f.connRepo, memberships.Connection{
		ChannelOID:  other.ID,
		UserOID:     user,
		ProfileOIDs: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
	})

	entries, err := f.svc.GetUserChannelProfiles(context.Background(), user, false, false)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Len(t, entries, 1)
	assert.Equal(t, f.channel.ID, entries[0].Channel.ID)
	assert.Equal(t, []profiles.Profile{p}, entries[0].Profiles)
	assert.False(t, entries[0].CanCED)

	reports := f.notifier.Dangling()
	require.Len(t, reports, 1)
	require.Len(t, reports[0], 2)
	assert.Equal(t, missingChannel.ChannelOID, *reports[0][missingChannel.ID].Channel)
	assert.ElementsMatch(t, missingProfiles.ProfileOIDs, reports[0][missingProfiles.ID].Profiles)
}

func TestGetUserChannelProfilesOrder(t *testing.T) {
	f := newFixture(t)
	user := primitive.NewObjectID()

	hidden := f.register(t, "C2")
	starred := f.register(t, "C3")
	for _, ch := range []channels.Channel{f.channel, hidden, starred} {
		res := f.svc.RegisterNewDefault(context.Background(), ch.ID, user)
		require.Equal(t, outcomes.OpCompleted, res.Attach)
	}
	require.True(t, f.svc.ChangeStar(context.Background(), starred.ID, user, true))
	require.Equal(t, outcomes.WriteDataUpdated, f.channels.MarkAccessibility(context.Background(), channels.PlatformLine, "C2", false))

	cases := []struct {
		desc       string
		accessible bool
		order      []primitive.ObjectID
	}{
		{
			desc:  "all channels",
			order: []primitive.ObjectID{starred.ID, f.channel.ID, hidden.ID},
		},
		{
			desc:       "accessible channels",
			accessible: true,
			order:      []primitive.ObjectID{starred.ID, f.channel.ID},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			entries, err := f.svc.GetUserChannelProfiles(context.Background(), user, true, tc.accessible)
			require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
			order := []primitive.ObjectID{}
			for _, e := range entries {
				order = append(order, e.Channel.ID)
				require.NotNil(t, e.DefaultProfileOID)
			}
			assert.Equal(t, tc.order, order)
		})
	}
	assert.Empty(t, f.notifier.Dangling())
}

func TestMarkUnavailableAsync(t *testing.T) {
	f := newFixture(t)
	user := f.member(t, f.profile(t, "P", permissions.LevelNormal))

	err := f.svc.MarkUnavailableAsync(context.Background(), f.channel.ID, user).Wait()
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.False(t, f.conns.IsUserInChannel(context.Background(), f.channel.ID, user))

	err = f.svc.MarkUnavailableAsync(context.Background(), f.channel.ID, primitive.NewObjectID()).Wait()
	assert.True(t, errors.Contains(err, svcerr.ErrScheduleTask), fmt.Sprintf("expected %s got %s", svcerr.ErrScheduleTask, err))
	assert.Len(t, f.notifier.Errors("mark_unavailable"), 1)
}

func TestGetChannelMembers(t *testing.T) {
	f := newFixture(t)
	normal := f.member(t, f.profile(t, "Member", permissions.LevelNormal))
	mod := f.member(t, f.profile(t, "Mod", permissions.LevelMod))
	adm := f.admin(t)
	gone := f.member(t, f.profile(t, "Gone", permissions.LevelNormal))
	require.Equal(t, outcomes.UpdateUpdated, f.conns.MarkUnavailable(context.Background(), f.channel.ID, gone))

	members, err := f.svc.GetChannelMembers(context.Background(), f.channel.ID, true)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	users := []primitive.ObjectID{}
	for _, m := range members {
		users = append(users, m.User)
	}
	assert.Equal(t, []primitive.ObjectID{adm, mod, normal}, users)
	assert.Equal(t, permissions.LevelAdmin, members[0].Level)

	levels, err := f.svc.GetUserPermissionLevels(context.Background(), f.channel.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, permissions.LevelMod, levels[mod])
	assert.Equal(t, permissions.LevelNormal, levels[normal])
	assert.NotContains(t, levels, gone)
}

func TestGetUserPermissions(t *testing.T) {
	f := newFixture(t)
	user := f.member(t,
		f.profile(t, "Features", permissions.LevelNormal, permissions.CNLAdjustFeatures),
		f.profile(t, "Mod", permissions.LevelMod),
	)

	perms, err := f.svc.GetUserPermissions(context.Background(), f.channel.ID, user)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, permissions.NewSet(permissions.Normal, permissions.CNLAdjustFeatures, permissions.ARAccessPinnedModule, permissions.PRFControlSelf), perms)

	perms, err = f.svc.GetUserPermissions(context.Background(), f.channel.ID, primitive.NewObjectID())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Empty(t, perms)
}

func TestEnsureChannel(t *testing.T) {
	f := newFixture(t)

	res := f.svc.EnsureChannel(context.Background(), channels.PlatformLine, "NEW", nil)
	require.Equal(t, outcomes.WriteInserted, res.Outcome, res.Outcome.String())
	require.NotNil(t, res.DefaultProfile)
	def, ok := res.Channel.DefaultProfile()
	require.True(t, ok)
	assert.Equal(t, res.DefaultProfile.ID, def)

	res = f.svc.EnsureChannel(context.Background(), channels.PlatformLine, "NEW", nil)
	assert.Equal(t, outcomes.WriteDataExists, res.Outcome, res.Outcome.String())
	assert.Nil(t, res.DefaultProfile)
}

func TestRecordPromotion(t *testing.T) {
	f := newFixture(t)
	p := f.profile(t, "P", permissions.LevelNormal)
	supporter := f.member(t, p)
	target := f.member(t, p)
	other := f.register(t, "C2")
	foreign := f.profiles.Create(context.Background(), profiles.Profile{ChannelOID: other.ID, Name: "Foreign"})
	require.True(t, foreign.Outcome.IsInserted())

	cases := []struct {
		desc      string
		supporter primitive.ObjectID
		target    primitive.ObjectID
		profile   primitive.ObjectID
		outcome   outcomes.WriteOutcome
	}{
		{
			desc:      "vote for a member",
			supporter: supporter,
			target:    target,
			profile:   p.ID,
			outcome:   outcomes.WriteInserted,
		},
		{
			desc:      "repeat a vote",
			supporter: supporter,
			target:    target,
			profile:   p.ID,
			outcome:   outcomes.WriteDataExists,
		},
		{
			desc:      "vote for self",
			supporter: supporter,
			target:    supporter,
			profile:   p.ID,
			outcome:   outcomes.WriteNotExecuted,
		},
		{
			desc:      "vote from outside the channel",
			supporter: primitive.NewObjectID(),
			target:    target,
			profile:   p.ID,
			outcome:   outcomes.WriteInsufficientPermission,
		},
		{
			desc:      "vote for a user outside the channel",
			supporter: supporter,
			target:    primitive.NewObjectID(),
			profile:   p.ID,
			outcome:   outcomes.WriteNotExecuted,
		},
		{
			desc:      "vote for a profile of another channel",
			supporter: supporter,
			target:    target,
			profile:   foreign.Model.ID,
			outcome:   outcomes.WriteNotExecuted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			res := f.svc.RecordPromotion(context.Background(), f.channel.ID, tc.supporter, tc.target, tc.profile)
			assert.Equal(t, tc.outcome, res.Outcome, res.Outcome.String())
		})
	}
}
