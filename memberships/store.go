// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package memberships

import (
	"context"
	"time"

	"github.com/absmach/jelly/outcomes"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store specifies an API for managing connections.
type Store interface {
	// Attach adds profiles to the (channel, user) connection. Attaching an
	// already attached profile is a no-op.
	Attach(ctx context.Context, channel, user primitive.ObjectID, profiles ...primitive.ObjectID) outcomes.OperationOutcome

	// GetConnection retrieves the (channel, user) connection.
	GetConnection(ctx context.Context, channel, user primitive.ObjectID) (Connection, error)

	// ListUserConnections retrieves the user connections, starred first and
	// then newest first. With insideOnly former memberships are skipped.
	ListUserConnections(ctx context.Context, user primitive.ObjectID, insideOnly bool) ([]Connection, error)

	// ListChannelConnections retrieves the connections of the channels.
	ListChannelConnections(ctx context.Context, channels []primitive.ObjectID, availableOnly bool) ([]Connection, error)

	// ExistChannelMap returns, for every user, the channels the user is in.
	ExistChannelMap(ctx context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error)

	// UserProfileMap returns the profiles of every member of the channel.
	UserProfileMap(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]IDSet, error)

	// AvailableConnections retrieves every connection of a current member.
	AvailableConnections(ctx context.Context) ([]Connection, error)

	// ProfileUsers returns the users the profile is attached to.
	ProfileUsers(ctx context.Context, profile primitive.ObjectID) (IDSet, error)

	// ProfilesUsers returns, for every profile, the users it is attached to.
	ProfilesUsers(ctx context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error)

	// IsUserInChannel reports whether the user is a current channel member.
	IsUserInChannel(ctx context.Context, channel, user primitive.ObjectID) bool

	// UserChannels returns the channels the user is a current member of.
	UserChannels(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error)

	// ChannelMemberOIDs returns the users connected to the channel.
	ChannelMemberOIDs(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]primitive.ObjectID, error)

	// CountChannelMembers counts the users connected to the channel.
	CountChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) (int64, error)

	// MarkUnavailable clears the profiles of the (channel, user) connection
	// and keeps the connection record.
	MarkUnavailable(ctx context.Context, channel, user primitive.ObjectID) outcomes.UpdateOutcome

	// Detach removes the profile from the user connections, or from every
	// connection when user is nil.
	Detach(ctx context.Context, profile primitive.ObjectID, user *primitive.ObjectID) outcomes.UpdateOutcome

	// ChangeStar sets the starred flag of the (channel, user) connection. It
	// reports whether the flag changed.
	ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool
}

var _ Store = (*store)(nil)

type store struct {
	repo    Repository
	timeout time.Duration
}

// NewStore returns a connection store backed by repo. Every repository
// call is bounded by timeout.
func NewStore(repo Repository, timeout time.Duration) Store {
	return &store{
		repo:    repo,
		timeout: timeout,
	}
}

func (s *store) Attach(ctx context.Context, channel, user primitive.ObjectID, profiles ...primitive.ObjectID) outcomes.OperationOutcome {
	if len(profiles) == 0 {
		return outcomes.OpNotExecuted
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Attach(ctx, channel, user, profiles); err != nil {
		return outcomes.OpError
	}

	return outcomes.OpCompleted
}

func (s *store) GetConnection(ctx context.Context, channel, user primitive.ObjectID) (Connection, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.Retrieve(ctx, channel, user)
}

func (s *store) ListUserConnections(ctx context.Context, user primitive.ObjectID, insideOnly bool) ([]Connection, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveByUser(ctx, user, insideOnly)
}

func (s *store) ListChannelConnections(ctx context.Context, channels []primitive.ObjectID, availableOnly bool) ([]Connection, error) {
	if len(channels) == 0 {
		return []Connection{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveByChannels(ctx, channels, availableOnly)
}

func (s *store) ExistChannelMap(ctx context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error) {
	ret := make(map[primitive.ObjectID]IDSet, len(users))
	if len(users) == 0 {
		return ret, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.repo.ChannelMap(ctx, users)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if chs, ok := found[u]; ok {
			ret[u] = chs
			continue
		}
		ret[u] = IDSet{}
	}

	return ret, nil
}

func (s *store) UserProfileMap(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]IDSet, error) {
	conns, err := s.ListChannelConnections(ctx, []primitive.ObjectID{channel}, true)
	if err != nil {
		return nil, err
	}

	ret := make(map[primitive.ObjectID]IDSet, len(conns))
	for _, c := range conns {
		ret[c.UserOID] = NewIDSet(c.ProfileOIDs...)
	}

	return ret, nil
}

func (s *store) AvailableConnections(ctx context.Context) ([]Connection, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveAvailable(ctx)
}

func (s *store) ProfileUsers(ctx context.Context, profile primitive.ObjectID) (IDSet, error) {
	m, err := s.ProfilesUsers(ctx, []primitive.ObjectID{profile})
	if err != nil {
		return nil, err
	}

	return m[profile], nil
}

func (s *store) ProfilesUsers(ctx context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]IDSet, error) {
	ret := make(map[primitive.ObjectID]IDSet, len(profiles))
	if len(profiles) == 0 {
		return ret, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.repo.ProfileMembers(ctx, profiles)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if users, ok := found[p]; ok {
			ret[p] = users
			continue
		}
		ret[p] = IDSet{}
	}

	return ret, nil
}

func (s *store) IsUserInChannel(ctx context.Context, channel, user primitive.ObjectID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repo.Count(ctx, channel, &user, true)

	return err == nil && n > 0
}

func (s *store) UserChannels(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	conns, err := s.ListUserConnections(ctx, user, true)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.ChannelOID)
	}

	return ids, nil
}

func (s *store) ChannelMemberOIDs(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]primitive.ObjectID, error) {
	conns, err := s.ListChannelConnections(ctx, []primitive.ObjectID{channel}, availableOnly)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.UserOID)
	}

	return ids, nil
}

func (s *store) CountChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.Count(ctx, channel, nil, availableOnly)
}

func (s *store) MarkUnavailable(ctx context.Context, channel, user primitive.ObjectID) outcomes.UpdateOutcome {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	matched, modified, err := s.repo.ClearProfiles(ctx, channel, user)
	if err != nil {
		return outcomes.UpdateExceptionOccurred
	}

	return outcomes.FromCounts(matched, modified)
}

func (s *store) Detach(ctx context.Context, profile primitive.ObjectID, user *primitive.ObjectID) outcomes.UpdateOutcome {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	matched, modified, err := s.repo.PullProfile(ctx, profile, user)
	if err != nil {
		return outcomes.UpdateExceptionOccurred
	}

	return outcomes.FromCounts(matched, modified)
}

func (s *store) ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	modified, err := s.repo.UpdateStar(ctx, channel, user, starred)

	return err == nil && modified > 0
}

func (s *store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}
