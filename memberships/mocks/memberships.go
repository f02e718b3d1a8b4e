// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/absmach/jelly/memberships"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ memberships.Repository = (*connectionRepositoryMock)(nil)

type connectionRepositoryMock struct {
	mu    sync.Mutex
	conns map[primitive.ObjectID]memberships.Connection
}

// NewRepository creates in-memory connection repository.
func NewRepository() memberships.Repository {
	return &connectionRepositoryMock{
		conns: make(map[primitive.ObjectID]memberships.Connection),
	}
}

// Seed stores c as is. It is used to set up dangling references in tests.
func Seed(repo memberships.Repository, c memberships.Connection) memberships.Connection {
	crm := repo.(*connectionRepositoryMock)
	crm.mu.Lock()
	defer crm.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	crm.conns[c.ID] = clone(c)

	return c
}

func (crm *connectionRepositoryMock) Attach(_ context.Context, channel, user primitive.ObjectID, profiles []primitive.ObjectID) error {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	c, ok := crm.find(channel, user)
	if !ok {
		c = memberships.Connection{
			ID:          primitive.NewObjectID(),
			ChannelOID:  channel,
			UserOID:     user,
			ProfileOIDs: []primitive.ObjectID{},
		}
	}
	c = clone(c)
	existing := memberships.NewIDSet(c.ProfileOIDs...)
	for _, p := range profiles {
		if !existing.Has(p) {
			c.ProfileOIDs = append(c.ProfileOIDs, p)
			existing[p] = struct{}{}
		}
	}
	crm.conns[c.ID] = c

	return nil
}

func (crm *connectionRepositoryMock) Retrieve(_ context.Context, channel, user primitive.ObjectID) (memberships.Connection, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	c, ok := crm.find(channel, user)
	if !ok {
		return memberships.Connection{}, repoerr.ErrNotFound
	}

	return clone(c), nil
}

func (crm *connectionRepositoryMock) RetrieveByUser(_ context.Context, user primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	conns := crm.filter(func(c memberships.Connection) bool {
		return c.UserOID == user && (!availableOnly || c.Available())
	})
	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].Starred != conns[j].Starred {
			return conns[i].Starred
		}
		return conns[i].ID.Hex() > conns[j].ID.Hex()
	})

	return conns, nil
}

func (crm *connectionRepositoryMock) RetrieveByChannels(_ context.Context, channels []primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	chs := memberships.NewIDSet(channels...)
	return crm.filter(func(c memberships.Connection) bool {
		return chs.Has(c.ChannelOID) && (!availableOnly || c.Available())
	}), nil
}

func (crm *connectionRepositoryMock) RetrieveAvailable(_ context.Context) ([]memberships.Connection, error) {
	return crm.filter(memberships.Connection.Available), nil
}

func (crm *connectionRepositoryMock) ChannelMap(_ context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	us := memberships.NewIDSet(users...)
	ret := map[primitive.ObjectID]memberships.IDSet{}
	for _, c := range crm.filter(func(c memberships.Connection) bool { return us.Has(c.UserOID) && c.Available() }) {
		if _, ok := ret[c.UserOID]; !ok {
			ret[c.UserOID] = memberships.IDSet{}
		}
		ret[c.UserOID][c.ChannelOID] = struct{}{}
	}

	return ret, nil
}

func (crm *connectionRepositoryMock) ProfileMembers(_ context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	ps := memberships.NewIDSet(profiles...)
	ret := map[primitive.ObjectID]memberships.IDSet{}
	for _, c := range crm.filter(func(memberships.Connection) bool { return true }) {
		for _, p := range c.ProfileOIDs {
			if !ps.Has(p) {
				continue
			}
			if _, ok := ret[p]; !ok {
				ret[p] = memberships.IDSet{}
			}
			ret[p][c.UserOID] = struct{}{}
		}
	}

	return ret, nil
}

func (crm *connectionRepositoryMock) Count(_ context.Context, channel primitive.ObjectID, user *primitive.ObjectID, availableOnly bool) (int64, error) {
	conns := crm.filter(func(c memberships.Connection) bool {
		return c.ChannelOID == channel && (user == nil || c.UserOID == *user) && (!availableOnly || c.Available())
	})

	return int64(len(conns)), nil
}

func (crm *connectionRepositoryMock) ClearProfiles(_ context.Context, channel, user primitive.ObjectID) (int64, int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	c, ok := crm.find(channel, user)
	if !ok {
		return 0, 0, nil
	}
	if len(c.ProfileOIDs) == 0 {
		return 1, 0, nil
	}
	c = clone(c)
	c.ProfileOIDs = []primitive.ObjectID{}
	crm.conns[c.ID] = c

	return 1, 1, nil
}

func (crm *connectionRepositoryMock) PullProfile(_ context.Context, profile primitive.ObjectID, user *primitive.ObjectID) (int64, int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	var matched, modified int64
	for id, c := range crm.conns {
		if user != nil && c.UserOID != *user {
			continue
		}
		if !memberships.NewIDSet(c.ProfileOIDs...).Has(profile) {
			continue
		}
		matched++
		c = clone(c)
		kept := []primitive.ObjectID{}
		for _, p := range c.ProfileOIDs {
			if p != profile {
				kept = append(kept, p)
			}
		}
		c.ProfileOIDs = kept
		crm.conns[id] = c
		modified++
	}

	return matched, modified, nil
}

func (crm *connectionRepositoryMock) UpdateStar(_ context.Context, channel, user primitive.ObjectID, starred bool) (int64, error) {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	c, ok := crm.find(channel, user)
	if !ok || c.Starred == starred {
		return 0, nil
	}
	c.Starred = starred
	crm.conns[c.ID] = c

	return 1, nil
}

func (crm *connectionRepositoryMock) find(channel, user primitive.ObjectID) (memberships.Connection, bool) {
	for _, c := range crm.conns {
		if c.ChannelOID == channel && c.UserOID == user {
			return c, true
		}
	}
	return memberships.Connection{}, false
}

func (crm *connectionRepositoryMock) filter(match func(c memberships.Connection) bool) []memberships.Connection {
	crm.mu.Lock()
	defer crm.mu.Unlock()

	conns := []memberships.Connection{}
	for _, c := range crm.conns {
		if match(c) {
			conns = append(conns, clone(c))
		}
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID.Hex() > conns[j].ID.Hex() })

	return conns
}

func clone(c memberships.Connection) memberships.Connection {
	c.ProfileOIDs = append([]primitive.ObjectID{}, c.ProfileOIDs...)
	return c
}
