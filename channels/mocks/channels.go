// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/absmach/jelly/channels"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ channels.Repository = (*channelRepositoryMock)(nil)

type channelRepositoryMock struct {
	mu       sync.Mutex
	channels map[primitive.ObjectID]channels.Channel
}

// NewRepository creates in-memory channel repository.
func NewRepository() channels.Repository {
	return &channelRepositoryMock{
		channels: make(map[primitive.ObjectID]channels.Channel),
	}
}

func (crm *channelRepositoryMock) Save(_ context.Context, ch channels.Channel) (channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	for _, c := range crm.channels {
		if c.Platform == ch.Platform && c.Token == ch.Token {
			return channels.Channel{}, repoerr.ErrConflict
		}
	}
	if ch.ID.IsZero() {
		ch.ID = primitive.NewObjectID()
	}
	crm.channels[ch.ID] = clone(ch)

	return clone(ch), nil
}

func (crm *channelRepositoryMock) RetrieveByID(_ context.Context, id primitive.ObjectID) (channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	ch, ok := crm.channels[id]
	if !ok {
		return channels.Channel{}, repoerr.ErrNotFound
	}

	return clone(ch), nil
}

func (crm *channelRepositoryMock) RetrieveByToken(_ context.Context, platform channels.Platform, token string) (channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	for _, ch := range crm.channels {
		if ch.Platform == platform && ch.Token == token {
			return clone(ch), nil
		}
	}

	return channels.Channel{}, repoerr.ErrNotFound
}

func (crm *channelRepositoryMock) RetrieveAll(_ context.Context, ids []primitive.ObjectID, accessibleOnly bool) ([]channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	chs := []channels.Channel{}
	for _, id := range ids {
		ch, ok := crm.channels[id]
		if !ok || (accessibleOnly && !ch.BotAccessible) {
			continue
		}
		chs = append(chs, clone(ch))
	}

	return chs, nil
}

func (crm *channelRepositoryMock) RetrieveByKeyword(_ context.Context, keyword string, hidePrivate bool) ([]channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	chs := []channels.Channel{}
	for _, ch := range crm.channels {
		if hidePrivate && ch.Config.InfoPrivate {
			continue
		}
		name := ""
		if ch.Config.DefaultName != nil {
			name = *ch.Config.DefaultName
		}
		if strings.Contains(ch.Token, keyword) || strings.Contains(name, keyword) {
			chs = append(chs, clone(ch))
		}
	}
	sort.Slice(chs, func(i, j int) bool {
		return chs[i].ID.Hex() > chs[j].ID.Hex()
	})

	return chs, nil
}

func (crm *channelRepositoryMock) UpdateAccessibility(_ context.Context, platform channels.Platform, token string, accessible bool) (int64, int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	for id, ch := range crm.channels {
		if ch.Platform != platform || ch.Token != token {
			continue
		}
		if ch.BotAccessible == accessible {
			return 1, 0, nil
		}
		ch.BotAccessible = accessible
		crm.channels[id] = ch
		return 1, 1, nil
	}

	return 0, 0, nil
}

func (crm *channelRepositoryMock) UpdateNickname(_ context.Context, id, user primitive.ObjectID, name string) (channels.Channel, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	ch, ok := crm.channels[id]
	if !ok {
		return channels.Channel{}, repoerr.ErrNotFound
	}
	ch = clone(ch)
	if name == "" {
		delete(ch.Names, user.Hex())
	} else {
		if ch.Names == nil {
			ch.Names = map[string]string{}
		}
		ch.Names[user.Hex()] = name
	}
	crm.channels[id] = ch

	return clone(ch), nil
}

func (crm *channelRepositoryMock) UpdateConfig(_ context.Context, id primitive.ObjectID, key string, value any) (int64, int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	ch, ok := crm.channels[id]
	if !ok {
		return 0, 0, nil
	}
	before := clone(ch)
	cfg := &ch.Config
	switch key {
	case channels.KeyVotePromoMod:
		cfg.VotePromoMod = value.(int)
	case channels.KeyVotePromoAdmin:
		cfg.VotePromoAdmin = value.(int)
	case channels.KeyEnableAutoReply:
		cfg.EnableAutoReply = value.(bool)
	case channels.KeyEnableTimer:
		cfg.EnableTimer = value.(bool)
	case channels.KeyEnableCalculator:
		cfg.EnableCalculator = value.(bool)
	case channels.KeyEnableBotCommand:
		cfg.EnableBotCommand = value.(bool)
	case channels.KeyInfoPrivate:
		cfg.InfoPrivate = value.(bool)
	case channels.KeyDefaultProfileOID:
		cfg.DefaultProfileOID = nil
		if oid, ok := value.(primitive.ObjectID); ok {
			cfg.DefaultProfileOID = &oid
		}
	case channels.KeyDefaultName:
		cfg.DefaultName = nil
		if name, ok := value.(string); ok {
			cfg.DefaultName = &name
		}
	default:
		return 0, 0, repoerr.ErrMalformedEntity
	}
	crm.channels[id] = ch

	if sameConfig(before.Config, ch.Config) {
		return 1, 0, nil
	}

	return 1, 1, nil
}

func (crm *channelRepositoryMock) Count(_ context.Context, accessibleOnly bool) (int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	var n int64
	for _, ch := range crm.channels {
		if !accessibleOnly || ch.BotAccessible {
			n++
		}
	}

	return n, nil
}

func clone(ch channels.Channel) channels.Channel {
	if ch.Names != nil {
		names := make(map[string]string, len(ch.Names))
		for k, v := range ch.Names {
			names[k] = v
		}
		ch.Names = names
	}
	if ch.Config.DefaultProfileOID != nil {
		oid := *ch.Config.DefaultProfileOID
		ch.Config.DefaultProfileOID = &oid
	}
	if ch.Config.DefaultName != nil {
		name := *ch.Config.DefaultName
		ch.Config.DefaultName = &name
	}

	return ch
}

func sameConfig(a, b channels.Config) bool {
	sameOID := (a.DefaultProfileOID == nil) == (b.DefaultProfileOID == nil) &&
		(a.DefaultProfileOID == nil || *a.DefaultProfileOID == *b.DefaultProfileOID)
	sameName := (a.DefaultName == nil) == (b.DefaultName == nil) &&
		(a.DefaultName == nil || *a.DefaultName == *b.DefaultName)
	a.DefaultProfileOID, b.DefaultProfileOID = nil, nil
	a.DefaultName, b.DefaultName = nil, nil

	return sameOID && sameName && a == b
}
