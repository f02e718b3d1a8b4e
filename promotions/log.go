// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package promotions

import (
	"context"
	"time"

	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppendResult is the result of appending a vote.
type AppendResult struct {
	Outcome outcomes.WriteOutcome
	Err     error
	Record  Record
}

// Log specifies an API for the promotion vote log.
type Log interface {
	// Append appends a vote. A repeated vote keeps the first record and
	// returns it with O_DATA_EXISTS.
	Append(ctx context.Context, supporter, target, profile primitive.ObjectID) AppendResult

	// ListByTarget lists the votes for the target.
	ListByTarget(ctx context.Context, target primitive.ObjectID, profile *primitive.ObjectID) ([]Record, error)

	// ListByProfile lists the votes for the profile.
	ListByProfile(ctx context.Context, profile primitive.ObjectID) ([]Record, error)

	// Clear removes the votes matching target and profile. Nil arguments
	// match everything.
	Clear(ctx context.Context, target, profile *primitive.ObjectID) (int64, error)
}

var _ Log = (*promotionLog)(nil)

type promotionLog struct {
	repo    Repository
	timeout time.Duration
	now     func() time.Time
}

// NewLog returns a promotion log backed by repo.
func NewLog(repo Repository, timeout time.Duration) Log {
	return &promotionLog{
		repo:    repo,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (l *promotionLog) Append(ctx context.Context, supporter, target, profile primitive.ObjectID) AppendResult {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	r := Record{
		SupporterOID: supporter,
		TargetOID:    target,
		ProfileOID:   profile,
		CreatedAt:    l.now(),
	}
	saved, err := l.repo.Save(ctx, r)
	switch {
	case err == nil:
		return AppendResult{Outcome: outcomes.WriteInserted, Record: saved}
	case errors.Contains(err, repoerr.ErrConflict):
		recs, lerr := l.repo.RetrieveByTarget(ctx, target, &profile)
		if lerr != nil {
			return AppendResult{Outcome: outcomes.WriteExceptionOccurred, Err: lerr}
		}
		for _, rec := range recs {
			if rec.SupporterOID == supporter {
				return AppendResult{Outcome: outcomes.WriteDataExists, Record: rec}
			}
		}
		return AppendResult{Outcome: outcomes.WriteNotAcknowledged, Err: err}
	default:
		return AppendResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
	}
}

func (l *promotionLog) ListByTarget(ctx context.Context, target primitive.ObjectID, profile *primitive.ObjectID) ([]Record, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	return l.repo.RetrieveByTarget(ctx, target, profile)
}

func (l *promotionLog) ListByProfile(ctx context.Context, profile primitive.ObjectID) ([]Record, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	return l.repo.RetrieveByProfile(ctx, profile)
}

func (l *promotionLog) Clear(ctx context.Context, target, profile *primitive.ObjectID) (int64, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	return l.repo.Remove(ctx, target, profile)
}

func (l *promotionLog) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, l.timeout)
}
