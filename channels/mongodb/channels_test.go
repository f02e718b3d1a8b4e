// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/channels/mongodb"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRepo(t *testing.T) channels.Repository {
	_, err := db.Collection("channel").DeleteMany(context.Background(), bson.D{})
	require.Nil(t, err, fmt.Sprintf("cleaning channels expected to succeed: %s", err))
	err = mongodb.EnsureIndexes(context.Background(), db)
	require.Nil(t, err, fmt.Sprintf("creating indexes expected to succeed: %s", err))

	return mongodb.NewRepository(db)
}

func TestChannelSave(t *testing.T) {
	repo := newRepo(t)

	ch := channels.Channel{
		Platform:      channels.PlatformLine,
		Token:         "U123",
		Config:        channels.DefaultConfig(),
		BotAccessible: true,
	}

	cases := []struct {
		desc string
		ch   channels.Channel
		err  error
	}{
		{
			desc: "save new channel",
			ch:   ch,
			err:  nil,
		},
		{
			desc: "save channel with existing platform and token",
			ch:   ch,
			err:  repoerr.ErrConflict,
		},
		{
			desc: "save channel with same token on another platform",
			ch:   channels.Channel{Platform: channels.PlatformDiscord, Token: "U123", Config: channels.DefaultConfig()},
			err:  nil,
		},
	}

	for _, tc := range cases {
		saved, err := repo.Save(context.Background(), tc.ch)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		if err == nil {
			assert.False(t, saved.ID.IsZero(), fmt.Sprintf("%s: expected generated OID", tc.desc))
		}
	}
}

func TestChannelRetrieve(t *testing.T) {
	repo := newRepo(t)

	saved, err := repo.Save(context.Background(), channels.Channel{
		Platform:      channels.PlatformDiscord,
		Token:         "1234567890",
		Config:        channels.DefaultConfig(),
		BotAccessible: true,
	})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	ch, err := repo.RetrieveByID(context.Background(), saved.ID)
	assert.Nil(t, err, fmt.Sprintf("retrieve by OID: unexpected error: %s", err))
	assert.Equal(t, saved, ch, "retrieve by OID: retrieved channel differs from saved")

	ch, err = repo.RetrieveByToken(context.Background(), channels.PlatformDiscord, "1234567890")
	assert.Nil(t, err, fmt.Sprintf("retrieve by token: unexpected error: %s", err))
	assert.Equal(t, saved.ID, ch.ID, "retrieve by token: retrieved wrong channel")

	_, err = repo.RetrieveByID(context.Background(), primitive.NewObjectID())
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("retrieve missing: expected %s got %s", repoerr.ErrNotFound, err))

	_, err = repo.RetrieveByToken(context.Background(), channels.PlatformLine, "1234567890")
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("retrieve by token on another platform: expected %s got %s", repoerr.ErrNotFound, err))
}

func TestChannelRetrieveAll(t *testing.T) {
	repo := newRepo(t)

	var ids []primitive.ObjectID
	for i := 0; i < 4; i++ {
		ch, err := repo.Save(context.Background(), channels.Channel{
			Platform:      channels.PlatformLine,
			Token:         fmt.Sprintf("C%d", i),
			Config:        channels.DefaultConfig(),
			BotAccessible: i%2 == 0,
		})
		require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
		ids = append(ids, ch.ID)
	}

	cases := []struct {
		desc           string
		ids            []primitive.ObjectID
		accessibleOnly bool
		size           int
	}{
		{desc: "retrieve all channels", ids: ids, size: 4},
		{desc: "retrieve accessible channels", ids: ids, accessibleOnly: true, size: 2},
		{desc: "retrieve subset", ids: ids[:1], size: 1},
		{desc: "retrieve unknown", ids: []primitive.ObjectID{primitive.NewObjectID()}, size: 0},
	}

	for _, tc := range cases {
		chs, err := repo.RetrieveAll(context.Background(), tc.ids, tc.accessibleOnly)
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Len(t, chs, tc.size, fmt.Sprintf("%s: unexpected number of channels", tc.desc))
	}

	n, err := repo.Count(context.Background(), true)
	assert.Nil(t, err, fmt.Sprintf("count: unexpected error: %s", err))
	assert.Equal(t, int64(2), n, "count: unexpected number of accessible channels")
}

func TestChannelRetrieveByKeyword(t *testing.T) {
	repo := newRepo(t)

	public, private := "Study Group", "Secret Study"
	cfg := channels.DefaultConfig()
	cfg.DefaultName = &public
	_, err := repo.Save(context.Background(), channels.Channel{Platform: channels.PlatformLine, Token: "C1", Config: cfg})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	cfg = channels.DefaultConfig()
	cfg.DefaultName = &private
	cfg.InfoPrivate = true
	_, err = repo.Save(context.Background(), channels.Channel{Platform: channels.PlatformLine, Token: "C2", Config: cfg})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	chs, err := repo.RetrieveByKeyword(context.Background(), "study", false)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Len(t, chs, 2, "expected both channels")
	assert.Equal(t, "C2", chs[0].Token, "expected newest channel first")

	chs, err = repo.RetrieveByKeyword(context.Background(), "study", true)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, chs, 1, "expected private channel to be hidden")

	chs, err = repo.RetrieveByKeyword(context.Background(), "C1", true)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, chs, 1, "expected token match")
}

func TestChannelUpdates(t *testing.T) {
	repo := newRepo(t)

	ch, err := repo.Save(context.Background(), channels.Channel{
		Platform:      channels.PlatformLine,
		Token:         "C1",
		Config:        channels.DefaultConfig(),
		BotAccessible: true,
	})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	matched, modified, err := repo.UpdateAccessibility(context.Background(), channels.PlatformLine, "C1", false)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, [2]int64{1, 1}, [2]int64{matched, modified}, "expected accessibility to change")

	matched, modified, err = repo.UpdateAccessibility(context.Background(), channels.PlatformLine, "C1", false)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, [2]int64{1, 0}, [2]int64{matched, modified}, "expected accessibility to stay unchanged")

	user := primitive.NewObjectID()
	updated, err := repo.UpdateNickname(context.Background(), ch.ID, user, "Family")
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, "Family", updated.Names[user.Hex()], "expected nickname to be set")

	updated, err = repo.UpdateNickname(context.Background(), ch.ID, user, "")
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	_, ok := updated.Names[user.Hex()]
	assert.False(t, ok, "expected nickname to be removed")

	_, err = repo.UpdateNickname(context.Background(), primitive.NewObjectID(), user, "Family")
	assert.True(t, errors.Contains(err, repoerr.ErrNotFound), fmt.Sprintf("expected %s got %s", repoerr.ErrNotFound, err))

	oid := primitive.NewObjectID()
	matched, modified, err = repo.UpdateConfig(context.Background(), ch.ID, channels.KeyDefaultProfileOID, oid)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, [2]int64{1, 1}, [2]int64{matched, modified}, "expected default profile to be set")

	got, err := repo.RetrieveByID(context.Background(), ch.ID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.NotNil(t, got.Config.DefaultProfileOID, "expected default profile OID")
	assert.Equal(t, oid, *got.Config.DefaultProfileOID, "unexpected default profile OID")

	matched, _, err = repo.UpdateConfig(context.Background(), primitive.NewObjectID(), channels.KeyVotePromoMod, 3)
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, int64(0), matched, "expected no channel to match")
}
