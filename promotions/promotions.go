// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package promotions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a single vote of a supporter for promoting the target to the
// profile.
type Record struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SupporterOID primitive.ObjectID `bson:"s"             json:"supporter"`
	TargetOID    primitive.ObjectID `bson:"t"             json:"target"`
	ProfileOID   primitive.ObjectID `bson:"p"             json:"profile"`
	CreatedAt    time.Time          `bson:"at"            json:"created_at"`
}

// Repository specifies a promotion record persistence API.
type Repository interface {
	// Save persists the record. Saving a second vote of the same supporter
	// for the same target and profile returns repository.ErrConflict.
	Save(ctx context.Context, r Record) (Record, error)

	// RetrieveByTarget retrieves the votes for the target, optionally
	// narrowed to a single profile.
	RetrieveByTarget(ctx context.Context, target primitive.ObjectID, profile *primitive.ObjectID) ([]Record, error)

	// RetrieveByProfile retrieves the votes for the profile.
	RetrieveByProfile(ctx context.Context, profile primitive.ObjectID) ([]Record, error)

	// Remove removes the votes matching the given target and profile. Nil
	// arguments match everything.
	Remove(ctx context.Context, target, profile *primitive.ObjectID) (int64, error)
}
