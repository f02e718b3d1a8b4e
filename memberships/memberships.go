// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package memberships

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection links a user to a channel. A connection with no profiles
// belongs to a former member.
type Connection struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ChannelOID  primitive.ObjectID   `bson:"c"             json:"channel"`
	UserOID     primitive.ObjectID   `bson:"u"             json:"user"`
	ProfileOIDs []primitive.ObjectID `bson:"p"             json:"profiles"`
	Starred     bool                 `bson:"s"             json:"starred"`
}

// Available reports whether the user is currently a member.
func (c Connection) Available() bool {
	return len(c.ProfileOIDs) > 0
}

// IDSet is a set of OIDs.
type IDSet map[primitive.ObjectID]struct{}

// NewIDSet returns a set of ids.
func NewIDSet(ids ...primitive.ObjectID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// Repository specifies a connection persistence API.
type Repository interface {
	// Attach adds profiles to the (channel, user) connection, creating a
	// non-starred connection when there is none.
	Attach(ctx context.Context, channel, user primitive.ObjectID, profiles []primitive.ObjectID) error

	// Retrieve retrieves the (channel, user) connection.
	Retrieve(ctx context.Context, channel, user primitive.ObjectID) (Connection, error)

	// RetrieveByUser retrieves the user connections, starred first and then
	// newest first. With availableOnly former memberships are skipped.
	RetrieveByUser(ctx context.Context, user primitive.ObjectID, availableOnly bool) ([]Connection, error)

	// RetrieveByChannels retrieves the connections of the channels.
	RetrieveByChannels(ctx context.Context, channels []primitive.ObjectID, availableOnly bool) ([]Connection, error)

	// RetrieveAvailable retrieves every connection of a current member.
	RetrieveAvailable(ctx context.Context) ([]Connection, error)

	// ChannelMap returns, per user among users, the channels the user is a
	// current member of. Users without any are absent.
	ChannelMap(ctx context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error)

	// ProfileMembers returns, per profile among profiles, the users it is
	// attached to. Profiles without users are absent.
	ProfileMembers(ctx context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error)

	// Count counts channel connections, optionally of a single user.
	Count(ctx context.Context, channel primitive.ObjectID, user *primitive.ObjectID, availableOnly bool) (int64, error)

	// ClearProfiles empties the profile list of the (channel, user) connection.
	ClearProfiles(ctx context.Context, channel, user primitive.ObjectID) (matched, modified int64, err error)

	// PullProfile removes the profile from the user connections, or from
	// every connection when user is nil.
	PullProfile(ctx context.Context, profile primitive.ObjectID, user *primitive.ObjectID) (matched, modified int64, err error)

	// UpdateStar sets the starred flag of the (channel, user) connection and
	// returns the number of connections whose flag changed.
	UpdateStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) (modified int64, err error)
}
