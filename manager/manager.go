// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/profiles"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config holds the manager settings loaded from the environment.
type Config struct {
	// Test makes every background task run inline.
	Test bool `env:"TEST" envDefault:"false"`
}

// ArgParseResult is the result of parsing profile arguments. Parsed is keyed
// by json key and is nil on failure.
type ArgParseResult struct {
	Outcome outcomes.OperationOutcome
	Err     error
	Parsed  map[string]any
}

// RegisterProfileResult is the result of a profile registration. Outcome is
// a write outcome for new profiles and a get outcome for default profiles.
type RegisterProfileResult struct {
	Outcome outcomes.Outcome
	Err     error
	Model   *profiles.Profile
	Attach  outcomes.OperationOutcome
	Parse   outcomes.OperationOutcome
}

// ChannelProfileListEntry is a channel of a user together with the profiles
// the user holds there.
type ChannelProfileListEntry struct {
	Connection        primitive.ObjectID
	Channel           channels.Channel
	ChannelName       string
	Profiles          []profiles.Profile
	Starred           bool
	DefaultProfileOID *primitive.ObjectID
	CanCED            bool
}

// ChannelMember is a channel user with the profiles attached to the user.
type ChannelMember struct {
	User     primitive.ObjectID
	Profiles []profiles.Profile
	Level    permissions.Level
}

// EnsureChannelResult is the result of EnsureChannel. DefaultProfile is set
// when the channel was registered by the call.
type EnsureChannelResult struct {
	Outcome        outcomes.WriteOutcome
	Err            error
	Channel        channels.Channel
	DefaultProfile *profiles.Profile
}

// Service specifies the profile manager API.
type Service interface {
	// ProcessCreateProfileKwargs parses the arguments of a new profile.
	ProcessCreateProfileKwargs(m map[string]string) ArgParseResult

	// ProcessEditProfileKwargs parses the arguments of a profile update.
	ProcessEditProfileKwargs(m map[string]string) ArgParseResult

	// RegisterNew parses m, creates the profile and attaches it to user.
	RegisterNew(ctx context.Context, user primitive.ObjectID, m map[string]string) RegisterProfileResult

	// RegisterNewModel creates p and attaches it to user. The profile may
	// only grant what user holds or what its own level implies.
	RegisterNewModel(ctx context.Context, user primitive.ObjectID, p profiles.Profile) RegisterProfileResult

	// RegisterNewDefault attaches the channel default profile to user,
	// creating the profile when the channel has none.
	RegisterNewDefault(ctx context.Context, channel, user primitive.ObjectID) RegisterProfileResult

	// RegisterNewDefaultAsync runs RegisterNewDefault in the background.
	RegisterNewDefaultAsync(ctx context.Context, channel, user primitive.ObjectID)

	// UpdateProfile parses m and applies it to the profile on behalf of
	// executor.
	UpdateProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, m map[string]string) outcomes.UpdateOutcome

	// AttachProfile attaches the profile to target, or to executor when
	// target is nil.
	AttachProfile(ctx context.Context, channel, executor, profile primitive.ObjectID, target *primitive.ObjectID, bypassExistence bool) outcomes.OperationOutcome

	// AttachProfileName attaches the channel profile named name.
	AttachProfileName(ctx context.Context, channel, executor primitive.ObjectID, name string, target *primitive.ObjectID) outcomes.OperationOutcome

	// DetachProfile detaches the profile from target, or from every user
	// when target is nil.
	DetachProfile(ctx context.Context, channel, profile, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome

	// DetachProfileName detaches the channel profile named name.
	DetachProfileName(ctx context.Context, channel primitive.ObjectID, name string, executor primitive.ObjectID, target *primitive.ObjectID) outcomes.OperationOutcome

	// DeleteProfile detaches the profile from every user and deletes it.
	DeleteProfile(ctx context.Context, channel, profile, executor primitive.ObjectID) outcomes.OperationOutcome

	// GetUserChannelProfiles lists the channels of user with the profiles
	// the user holds in each. Dangling references are reported, not returned.
	GetUserChannelProfiles(ctx context.Context, user primitive.ObjectID, insideOnly, accessibleOnly bool) ([]ChannelProfileListEntry, error)

	// MarkUnavailableAsync marks user as a former channel member in the
	// background.
	MarkUnavailableAsync(ctx context.Context, channel, user primitive.ObjectID) *Handle

	// GetUserProfiles retrieves the profiles attached to user in the channel.
	GetUserProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error)

	// GetUserPermissions returns the effective permissions of user in the
	// channel. An empty set means the user is not in the channel.
	GetUserPermissions(ctx context.Context, channel, user primitive.ObjectID) (permissions.Set, error)

	// GetUserPermissionLevels returns the highest level of every channel member.
	GetUserPermissionLevels(ctx context.Context, channel primitive.ObjectID) (map[primitive.ObjectID]permissions.Level, error)

	// GetChannelMembers lists the channel users, highest level first.
	GetChannelMembers(ctx context.Context, channel primitive.ObjectID, availableOnly bool) ([]ChannelMember, error)

	// GetAttachableProfiles lists the channel profiles user may attach,
	// excluding the channel default profile.
	GetAttachableProfiles(ctx context.Context, channel, user primitive.ObjectID) ([]profiles.Profile, error)

	// ChangeStar sets the starred flag of the user channel.
	ChangeStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) bool

	// EnsureChannel registers the channel when needed and creates the
	// default profile of a newly registered channel.
	EnsureChannel(ctx context.Context, platform channels.Platform, token string, defaultName *string) EnsureChannelResult

	// RecordPromotion logs a promotion vote of supporter for target.
	RecordPromotion(ctx context.Context, channel, supporter, target, profile primitive.ObjectID) promotions.AppendResult
}
