// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sort"
	"sync"

	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ promotions.Repository = (*promotionRepositoryMock)(nil)

type promotionRepositoryMock struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]promotions.Record
}

// NewRepository creates in-memory promotion repository.
func NewRepository() promotions.Repository {
	return &promotionRepositoryMock{
		records: make(map[primitive.ObjectID]promotions.Record),
	}
}

func (prm *promotionRepositoryMock) Save(_ context.Context, r promotions.Record) (promotions.Record, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	for _, rec := range prm.records {
		if rec.SupporterOID == r.SupporterOID && rec.TargetOID == r.TargetOID && rec.ProfileOID == r.ProfileOID {
			return promotions.Record{}, repoerr.ErrConflict
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	prm.records[r.ID] = r

	return r, nil
}

func (prm *promotionRepositoryMock) RetrieveByTarget(_ context.Context, target primitive.ObjectID, profile *primitive.ObjectID) ([]promotions.Record, error) {
	return prm.filter(func(r promotions.Record) bool {
		return r.TargetOID == target && (profile == nil || r.ProfileOID == *profile)
	}), nil
}

func (prm *promotionRepositoryMock) RetrieveByProfile(_ context.Context, profile primitive.ObjectID) ([]promotions.Record, error) {
	return prm.filter(func(r promotions.Record) bool {
		return r.ProfileOID == profile
	}), nil
}

func (prm *promotionRepositoryMock) Remove(_ context.Context, target, profile *primitive.ObjectID) (int64, error) {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	var n int64
	for id, r := range prm.records {
		if (target == nil || r.TargetOID == *target) && (profile == nil || r.ProfileOID == *profile) {
			delete(prm.records, id)
			n++
		}
	}

	return n, nil
}

func (prm *promotionRepositoryMock) filter(match func(r promotions.Record) bool) []promotions.Record {
	prm.mu.Lock()
	defer prm.mu.Unlock()

	recs := []promotions.Record{}
	for _, r := range prm.records {
		if match(r) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID.Hex() < recs[j].ID.Hex() })

	return recs
}
