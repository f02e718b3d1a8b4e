// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/absmach/jelly/permissions"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/absmach/jelly/profiles"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ profiles.Repository = (*profileRepositoryMock)(nil)

type profileRepositoryMock struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]profiles.Profile
}

// NewRepository creates in-memory profile repository.
func NewRepository() profiles.Repository {
	return &profileRepositoryMock{
		profiles: make(map[primitive.ObjectID]profiles.Profile),
	}
}

func (prm *profileRepositoryMock) Save(_ context.Context, p profiles.Profile) (profiles.Profile, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	for _, existing := range prm.profiles {
		if existing.ChannelOID == p.ChannelOID && existing.Name == p.Name {
			return profiles.Profile{}, repoerr.ErrConflict
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	prm.profiles[p.ID] = clone(p)

	return clone(p), nil
}

func (prm *profileRepositoryMock) RetrieveByID(_ context.Context, id primitive.ObjectID) (profiles.Profile, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	p, ok := prm.profiles[id]
	if !ok {
		return profiles.Profile{}, repoerr.ErrNotFound
	}

	return clone(p), nil
}

func (prm *profileRepositoryMock) RetrieveByName(_ context.Context, channel primitive.ObjectID, name string) (profiles.Profile, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	for _, p := range prm.profiles {
		if p.ChannelOID == channel && p.Name == name {
			return clone(p), nil
		}
	}

	return profiles.Profile{}, repoerr.ErrNotFound
}

func (prm *profileRepositoryMock) RetrieveAll(_ context.Context, ids []primitive.ObjectID) ([]profiles.Profile, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	profs := []profiles.Profile{}
	for _, id := range ids {
		if p, ok := prm.profiles[id]; ok {
			profs = append(profs, clone(p))
		}
	}

	return profs, nil
}

func (prm *profileRepositoryMock) RetrieveByChannel(_ context.Context, channel primitive.ObjectID, nameSubstring string) ([]profiles.Profile, error) {
	return prm.filter(func(p profiles.Profile) bool {
		return p.ChannelOID == channel && strings.Contains(strings.ToLower(p.Name), strings.ToLower(nameSubstring))
	}), nil
}

func (prm *profileRepositoryMock) RetrieveAttachable(_ context.Context, channel primitive.ObjectID, forbidden []permissions.Code, highest permissions.Level) ([]profiles.Profile, error) {
	return prm.filter(func(p profiles.Profile) bool {
		if p.ChannelOID != channel || p.Level > highest {
			return false
		}
		for _, c := range forbidden {
			if p.Permission[c.Key()] {
				return false
			}
		}
		return true
	}), nil
}

func (prm *profileRepositoryMock) Update(_ context.Context, id primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	p, ok := prm.profiles[id]
	if !ok {
		return 0, 0, nil
	}
	before := clone(p)
	p = clone(p)
	for key, value := range fields {
		switch {
		case strings.HasPrefix(key, profiles.PermissionKeyPrefix):
			p.Permission[strings.TrimPrefix(key, profiles.PermissionKeyPrefix)] = value.(bool)
		case key == profiles.FieldName.Key:
			p.Name = value.(string)
		case key == profiles.FieldColor.Key:
			p.Color = value.(profiles.Color)
		case key == profiles.FieldLevel.Key:
			p.Level = value.(permissions.Level)
		case key == profiles.FieldPromoVote.Key:
			p.PromoVote = value.(int)
		case key == profiles.FieldEmailKeyword.Key:
			p.EmailKeyword = value.([]string)
		default:
			return 0, 0, repoerr.ErrMalformedEntity
		}
	}
	prm.profiles[id] = p

	if reflect.DeepEqual(before, p) {
		return 1, 0, nil
	}

	return 1, 1, nil
}

func (prm *profileRepositoryMock) Remove(_ context.Context, id primitive.ObjectID) error {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	if _, ok := prm.profiles[id]; !ok {
		return repoerr.ErrNotFound
	}
	delete(prm.profiles, id)

	return nil
}

func (prm *profileRepositoryMock) FillPermission(_ context.Context, code permissions.Code, level permissions.Level, value bool) (int64, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	var n int64
	for id, p := range prm.profiles {
		if p.Level != level {
			continue
		}
		if _, ok := p.Permission[code.Key()]; ok {
			continue
		}
		p = clone(p)
		p.Permission[code.Key()] = value
		prm.profiles[id] = p
		n++
	}

	return n, nil
}

func (prm *profileRepositoryMock) filter(match func(p profiles.Profile) bool) []profiles.Profile {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	profs := []profiles.Profile{}
	for _, p := range prm.profiles {
		if match(p) {
			profs = append(profs, clone(p))
		}
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].Name < profs[j].Name })

	return profs
}

func clone(p profiles.Profile) profiles.Profile {
	perm := make(map[string]bool, len(p.Permission))
	for k, v := range p.Permission {
		perm[k] = v
	}
	p.Permission = perm
	if p.EmailKeyword != nil {
		p.EmailKeyword = append([]string{}, p.EmailKeyword...)
	}

	return p
}
