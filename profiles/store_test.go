// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package profiles_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/absmach/jelly/channels"
	chmocks "github.com/absmach/jelly/channels/mocks"
	"github.com/absmach/jelly/logger"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/profiles/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const timeout = time.Second

func newStore(t *testing.T) (profiles.Store, channels.Registry, channels.Channel) {
	reg := channels.NewRegistry(chmocks.NewRepository(), chmocks.NewCache(), timeout, logger.NewMock())
	res := reg.EnsureRegister(context.Background(), channels.PlatformLine, "C1", nil)
	require.Equal(t, outcomes.WriteInserted, res.Outcome)

	return profiles.NewStore(mocks.NewRepository(), reg, "", timeout), reg, res.Channel
}

type failingConfig struct {
	channels.Registry
}

func (failingConfig) SetConfig(context.Context, primitive.ObjectID, string, any) outcomes.UpdateOutcome {
	return outcomes.UpdateExceptionOccurred
}

func TestCreate(t *testing.T) {
	store, _, ch := newStore(t)

	cases := []struct {
		desc    string
		p       profiles.Profile
		outcome outcomes.WriteOutcome
		model   bool
	}{
		{
			desc:    "create profile",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: " Member ", Color: 0x123456},
			outcome: outcomes.WriteInserted,
			model:   true,
		},
		{
			desc:    "create profile with existing name",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: "Member", Level: permissions.LevelAdmin},
			outcome: outcomes.WriteDataExists,
			model:   true,
		},
		{
			desc:    "create profile without name",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: "  "},
			outcome: outcomes.WriteRequiredNotFilled,
		},
		{
			desc:    "create profile without channel",
			p:       profiles.Profile{Name: "Member"},
			outcome: outcomes.WriteRequiredNotFilled,
		},
		{
			desc:    "create profile with invalid color",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: "Colorful", Color: -1},
			outcome: outcomes.WriteInvalidModel,
		},
		{
			desc:    "create profile with negative promo vote",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: "Voter", PromoVote: -2},
			outcome: outcomes.WriteInvalidModel,
		},
		{
			desc:    "create profile with invalid level",
			p:       profiles.Profile{ChannelOID: ch.ID, Name: "Owner", Level: permissions.Level(9)},
			outcome: outcomes.WriteInvalidModel,
		},
	}

	for _, tc := range cases {
		res := store.Create(context.Background(), tc.p)
		assert.Equal(t, tc.outcome, res.Outcome, fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.outcome, res.Outcome))
		assert.Equal(t, tc.model, res.Model != nil, fmt.Sprintf("%s: unexpected model presence", tc.desc))
		if res.Model != nil {
			assert.Equal(t, "Member", res.Model.Name, fmt.Sprintf("%s: unexpected name", tc.desc))
			assert.Equal(t, permissions.LevelNormal, res.Model.Level, fmt.Sprintf("%s: expected the first stored profile", tc.desc))
		}
	}
}

func TestNameAvailability(t *testing.T) {
	store, _, ch := newStore(t)

	res := store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "Member"})
	require.Equal(t, outcomes.WriteInserted, res.Outcome)

	assert.False(t, store.IsNameAvailable(context.Background(), ch.ID, "Member"), "expected stored name to be taken")
	assert.False(t, store.IsNameAvailable(context.Background(), ch.ID, " Member  "), "expected trimmed name to be taken")
	assert.False(t, store.IsNameAvailable(context.Background(), ch.ID, " "), "expected blank name to be unavailable")
	assert.True(t, store.IsNameAvailable(context.Background(), ch.ID, "Members"), "expected other name to be available")
	assert.True(t, store.IsNameAvailable(context.Background(), primitive.NewObjectID(), "Member"), "expected name in another channel to be available")

	p, err := store.GetByName(context.Background(), ch.ID, " Member ")
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, res.Model.ID, p.ID)
}

func TestDefaultProfile(t *testing.T) {
	store, reg, ch := newStore(t)

	res := store.GetDefaultProfile(context.Background(), ch.ID)
	assert.Equal(t, outcomes.GetAdded, res.Outcome, "expected default profile to be created")
	require.NotNil(t, res.Model)
	assert.Equal(t, profiles.DefaultProfileName, res.Model.Name)

	again := store.GetDefaultProfile(context.Background(), ch.ID)
	assert.Equal(t, outcomes.GetCacheDB, again.Outcome, "expected default profile from store")
	require.NotNil(t, again.Model)
	assert.Equal(t, res.Model.ID, again.Model.ID, "expected the same default profile")

	ch, err := reg.Get(context.Background(), ch.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	oid, ok := ch.DefaultProfile()
	assert.True(t, ok, "expected default profile written back")
	assert.Equal(t, res.Model.ID, oid)

	missing := store.GetDefaultProfile(context.Background(), primitive.NewObjectID())
	assert.Equal(t, outcomes.GetChannelNotFound, missing.Outcome)
	assert.Nil(t, missing.Model)
}

func TestDefaultProfileStale(t *testing.T) {
	store, reg, ch := newStore(t)

	stale := primitive.NewObjectID()
	require.Equal(t, outcomes.UpdateUpdated, reg.SetConfig(context.Background(), ch.ID, channels.KeyDefaultProfileOID, stale))

	res := store.GetDefaultProfile(context.Background(), ch.ID)
	assert.Equal(t, outcomes.GetAdded, res.Outcome, "expected a new default profile for a stale reference")
	require.NotNil(t, res.Model)
	assert.NotEqual(t, stale, res.Model.ID)
}

func TestCreateDefault(t *testing.T) {
	store, reg, ch := newStore(t)

	res := store.CreateDefault(context.Background(), primitive.NewObjectID(), true, true)
	assert.Equal(t, outcomes.WriteChannelNotFound, res.Outcome)

	res = store.CreateDefault(context.Background(), ch.ID, false, true)
	assert.Equal(t, outcomes.WriteInserted, res.Outcome)
	require.NotNil(t, res.Model)
	got, err := reg.Get(context.Background(), ch.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	_, ok := got.DefaultProfile()
	assert.False(t, ok, "expected config untouched without setToChannel")

	res = store.CreateDefault(context.Background(), ch.ID, true, true)
	assert.Equal(t, outcomes.WriteDataExists, res.Outcome, "expected existing default profile")
	def := store.GetDefaultProfile(context.Background(), ch.ID)
	assert.Equal(t, outcomes.GetCacheDB, def.Outcome)
	require.NotNil(t, def.Model)
	assert.Equal(t, res.Model.ID, def.Model.ID, "expected round trip to yield the same OID")

	failing := profiles.NewStore(mocks.NewRepository(), failingConfig{reg}, "", timeout)
	res = failing.CreateDefault(context.Background(), ch.ID, true, true)
	assert.Equal(t, outcomes.WriteOnSetConfig, res.Outcome)
	assert.Nil(t, res.Model, "expected no model when write back fails")
}

func TestLocalizedDefaultName(t *testing.T) {
	reg := channels.NewRegistry(chmocks.NewRepository(), chmocks.NewCache(), timeout, logger.NewMock())
	ch := reg.EnsureRegister(context.Background(), channels.PlatformLine, "C1", nil).Channel
	store := profiles.NewStore(mocks.NewRepository(), reg, "預設身分組", timeout)

	res := store.GetDefaultProfile(context.Background(), ch.ID)
	require.NotNil(t, res.Model)
	assert.Equal(t, "預設身分組", res.Model.Name)
}

func TestDefaultProfileRace(t *testing.T) {
	store, reg, ch := newStore(t)

	var wg sync.WaitGroup
	results := make([]profiles.GetResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetDefaultProfile(context.Background(), ch.ID)
		}(i)
	}
	wg.Wait()

	var oid primitive.ObjectID
	for i, res := range results {
		assert.True(t, res.Outcome.IsSuccess(), fmt.Sprintf("call %d: unexpected outcome %s", i, res.Outcome))
		require.NotNil(t, res.Model)
		if i == 0 {
			oid = res.Model.ID
		}
		assert.Equal(t, oid, res.Model.ID, fmt.Sprintf("call %d: expected a single default profile", i))
	}

	profs, err := store.ListByChannel(context.Background(), ch.ID, "")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, profs, 1)

	got, err := reg.Get(context.Background(), ch.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	def, _ := got.DefaultProfile()
	assert.Equal(t, oid, def)
}

func TestUpdate(t *testing.T) {
	store, _, ch := newStore(t)

	p := store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "Member"}).Model
	require.NotNil(t, p)
	require.Equal(t, outcomes.WriteInserted, store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "Taken"}).Outcome)

	cases := []struct {
		desc    string
		id      primitive.ObjectID
		partial map[string]any
		outcome outcomes.UpdateOutcome
	}{
		{
			desc:    "update name and color",
			id:      p.ID,
			partial: map[string]any{"n": "Renamed", "col": profiles.Color(0xFF0000)},
			outcome: outcomes.UpdateUpdated,
		},
		{
			desc:    "update with same values",
			id:      p.ID,
			partial: map[string]any{"n": "Renamed"},
			outcome: outcomes.UpdateFound,
		},
		{
			desc:    "update permission entry",
			id:      p.ID,
			partial: map[string]any{"p.301": true},
			outcome: outcomes.UpdateUpdated,
		},
		{
			desc:    "update with unknown key",
			id:      p.ID,
			partial: map[string]any{"promo": 2, "x": 1},
			outcome: outcomes.UpdatePartialArgsRemoved,
		},
		{
			desc:    "update with invalid value",
			id:      p.ID,
			partial: map[string]any{"promo": 3, "col": -5},
			outcome: outcomes.UpdatePartialArgsInvalid,
		},
		{
			desc:    "update with unknown permission code",
			id:      p.ID,
			partial: map[string]any{"promo": 4, "p.9999": true},
			outcome: outcomes.UpdatePartialArgsInvalid,
		},
		{
			desc:    "update with both unknown and invalid",
			id:      p.ID,
			partial: map[string]any{"promo": 5, "x": 1, "pls": 8},
			outcome: outcomes.UpdatePartialArgsRemoved,
		},
		{
			desc:    "update with taken name",
			id:      p.ID,
			partial: map[string]any{"n": "Taken", "promo": 6},
			outcome: outcomes.UpdatePartialArgsInvalid,
		},
		{
			desc:    "update read-only channel",
			id:      p.ID,
			partial: map[string]any{"c": primitive.NewObjectID(), "n": "Other"},
			outcome: outcomes.UpdateUneditable,
		},
		{
			desc:    "update with nothing valid",
			id:      p.ID,
			partial: map[string]any{"x": 1, "col": "red"},
			outcome: outcomes.UpdateNotExecuted,
		},
		{
			desc:    "update missing profile",
			id:      primitive.NewObjectID(),
			partial: map[string]any{"promo": 1},
			outcome: outcomes.UpdateNotFound,
		},
	}

	for _, tc := range cases {
		out := store.Update(context.Background(), tc.id, tc.partial)
		assert.Equal(t, tc.outcome, out, fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.outcome, out))
	}

	got, err := store.Get(context.Background(), p.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, profiles.Color(0xFF0000), got.Color)
	assert.True(t, got.Permission["301"])
	assert.Equal(t, 6, got.PromoVote)
	assert.Equal(t, permissions.LevelNormal, got.Level)
}

func TestDelete(t *testing.T) {
	store, _, ch := newStore(t)

	p := store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "Member"}).Model
	require.NotNil(t, p)

	assert.True(t, store.Delete(context.Background(), p.ID), "expected profile to be deleted")
	assert.False(t, store.Delete(context.Background(), p.ID), "expected second delete to fail")

	_, err := store.Get(context.Background(), p.ID)
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))
	assert.True(t, store.IsNameAvailable(context.Background(), ch.ID, "Member"), "expected name to be released")
}

func TestGetMany(t *testing.T) {
	store, _, ch := newStore(t)

	a := store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "A"}).Model
	b := store.Create(context.Background(), profiles.Profile{ChannelOID: ch.ID, Name: "B"}).Model
	require.NotNil(t, a)
	require.NotNil(t, b)

	profs, err := store.GetMany(context.Background(), []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, profs, 2)

	names, err := store.GetNames(context.Background(), []primitive.ObjectID{a.ID, b.ID})
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, map[primitive.ObjectID]string{a.ID: "A", b.ID: "B"}, names)

	profs, err = store.GetMany(context.Background(), nil)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Empty(t, profs)

	list, err := store.ListByChannel(context.Background(), ch.ID, "b")
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, list, 1)
}

func TestListAttachable(t *testing.T) {
	store, _, ch := newStore(t)

	create := func(name string, level permissions.Level, grants ...permissions.Code) {
		p := profiles.Profile{ChannelOID: ch.ID, Name: name, Level: level, Permission: map[string]bool{}}
		for _, c := range grants {
			p.Permission[c.Key()] = true
		}
		require.Equal(t, outcomes.WriteInserted, store.Create(context.Background(), p).Outcome)
	}
	create("Normal", permissions.LevelNormal)
	create("Features", permissions.LevelNormal, permissions.CNLAdjustFeatures)
	create("Mod", permissions.LevelMod)
	create("Admin", permissions.LevelAdmin)

	cases := []struct {
		desc     string
		existing permissions.Set
		highest  permissions.Level
		names    []string
	}{
		{
			desc:    "normal executor",
			highest: permissions.LevelNormal,
			names:   []string{"Normal"},
		},
		{
			desc:     "normal executor holding features permission",
			existing: permissions.NewSet(permissions.CNLAdjustFeatures),
			highest:  permissions.LevelNormal,
			names:    []string{"Features", "Normal"},
		},
		{
			desc:    "mod executor",
			highest: permissions.LevelMod,
			names:   []string{"Mod", "Normal"},
		},
		{
			desc:    "admin executor",
			highest: permissions.LevelAdmin,
			names:   []string{"Admin", "Features", "Mod", "Normal"},
		},
	}

	for _, tc := range cases {
		profs, err := store.ListAttachable(context.Background(), ch.ID, tc.existing, tc.highest)
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		names := []string{}
		allowed := permissions.DefaultOverride(tc.highest).Union(tc.existing)
		for _, p := range profs {
			names = append(names, p.Name)
			for _, c := range p.Granted() {
				assert.True(t, allowed.Has(c), fmt.Sprintf("%s: %s grants %s beyond the executor", tc.desc, p.Name, c))
			}
		}
		assert.Equal(t, tc.names, names, fmt.Sprintf("%s: unexpected attachable profiles", tc.desc))
	}
}

func TestFillPermissions(t *testing.T) {
	repo := mocks.NewRepository()
	reg := channels.NewRegistry(chmocks.NewRepository(), chmocks.NewCache(), timeout, logger.NewMock())
	store := profiles.NewStore(repo, reg, "", timeout)
	channel := primitive.NewObjectID()

	legacy, err := repo.Save(context.Background(), profiles.Profile{
		ChannelOID: channel,
		Name:       "Legacy",
		Level:      permissions.LevelAdmin,
		Permission: map[string]bool{permissions.PRFCED.Key(): false},
	})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	n, err := store.FillPermissions(context.Background())
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, int64(len(permissions.AllCodes())-1), n, "expected every missing code filled")

	n, err = store.FillPermissions(context.Background())
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, int64(0), n, "expected fill to be idempotent")

	got, err := store.Get(context.Background(), legacy.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.False(t, got.Permission[permissions.PRFCED.Key()], "expected existing entry untouched")
	assert.True(t, got.Permission[permissions.PRFControlMember.Key()], "expected ADMIN default filled")
	assert.Len(t, got.Permission, len(permissions.AllCodes()))
}
