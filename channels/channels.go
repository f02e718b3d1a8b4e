// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package channels

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform is the messaging platform a channel lives on.
type Platform int

// Supported platforms.
const (
	PlatformUnknown Platform = iota
	PlatformLine
	PlatformDiscord
)

func (p Platform) String() string {
	switch p {
	case PlatformLine:
		return "LINE"
	case PlatformDiscord:
		return "Discord"
	default:
		return "Unknown"
	}
}

// ParsePlatform returns the platform named s, ignoring case.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range []Platform{PlatformLine, PlatformDiscord} {
		if strings.EqualFold(p.String(), s) {
			return p, true
		}
	}

	return PlatformUnknown, false
}

// Default vote thresholds for promotions.
const (
	DefaultVotePromoMod   = 10
	DefaultVotePromoAdmin = 20
)

// Config is the per-channel configuration. Json keys are the keys accepted
// by Registry.SetConfig.
type Config struct {
	VotePromoMod      int                 `bson:"v-m"              json:"v-m"`
	VotePromoAdmin    int                 `bson:"v-a"              json:"v-a"`
	EnableAutoReply   bool                `bson:"e-ar"             json:"e-ar"`
	EnableTimer       bool                `bson:"e-tmr"            json:"e-tmr"`
	EnableCalculator  bool                `bson:"e-calc"           json:"e-calc"`
	EnableBotCommand  bool                `bson:"e-bot"            json:"e-bot"`
	InfoPrivate       bool                `bson:"prv"              json:"prv"`
	DefaultProfileOID *primitive.ObjectID `bson:"d-prof,omitempty" json:"d-prof,omitempty"`
	DefaultName       *string             `bson:"d-name,omitempty" json:"d-name,omitempty"`
}

// DefaultConfig returns the configuration of a newly registered channel.
func DefaultConfig() Config {
	return Config{
		VotePromoMod:     DefaultVotePromoMod,
		VotePromoAdmin:   DefaultVotePromoAdmin,
		EnableAutoReply:  true,
		EnableTimer:      true,
		EnableCalculator: true,
		EnableBotCommand: true,
	}
}

// Channel is a platform channel known to the bot.
type Channel struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Platform      Platform           `bson:"p"             json:"platform"`
	Token         string             `bson:"t"             json:"token"`
	Names         map[string]string  `bson:"n,omitempty"   json:"names,omitempty"`
	Config        Config             `bson:"c"             json:"config"`
	BotAccessible bool               `bson:"acc"           json:"bot_accessible"`
}

// Nickname returns the name user gave the channel, if any.
func (ch Channel) Nickname(user primitive.ObjectID) (string, bool) {
	name, ok := ch.Names[user.Hex()]
	return name, ok && name != ""
}

// DisplayName resolves the channel name shown to user: the user's nickname,
// then the channel default name, then a rendering of platform and token.
func (ch Channel) DisplayName(user primitive.ObjectID) string {
	if name, ok := ch.Nickname(user); ok {
		return name
	}
	if ch.Config.DefaultName != nil && *ch.Config.DefaultName != "" {
		return *ch.Config.DefaultName
	}
	return fmt.Sprintf("%s / %s", ch.Platform, ch.Token)
}

// DefaultProfile returns the OID of the channel default profile, if set.
func (ch Channel) DefaultProfile() (primitive.ObjectID, bool) {
	if ch.Config.DefaultProfileOID == nil || ch.Config.DefaultProfileOID.IsZero() {
		return primitive.NilObjectID, false
	}
	return *ch.Config.DefaultProfileOID, true
}

// NormalizeName trims a channel name; an empty result means "no name".
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Repository specifies a channel persistence API.
type Repository interface {
	// Save persists a new channel. It returns ErrConflict when a channel with
	// the same platform and token exists.
	Save(ctx context.Context, ch Channel) (Channel, error)

	// RetrieveByID retrieves the channel with the given OID.
	RetrieveByID(ctx context.Context, id primitive.ObjectID) (Channel, error)

	// RetrieveByToken retrieves the channel with the given platform and token.
	RetrieveByToken(ctx context.Context, platform Platform, token string) (Channel, error)

	// RetrieveAll retrieves the channels among ids.
	RetrieveAll(ctx context.Context, ids []primitive.ObjectID, accessibleOnly bool) ([]Channel, error)

	// RetrieveByKeyword retrieves channels whose token or default name contains
	// keyword, newest first.
	RetrieveByKeyword(ctx context.Context, keyword string, hidePrivate bool) ([]Channel, error)

	// UpdateAccessibility sets the bot accessibility of a channel.
	UpdateAccessibility(ctx context.Context, platform Platform, token string, accessible bool) (matched, modified int64, err error)

	// UpdateNickname sets the nickname user gave the channel. An empty name
	// removes it. The updated channel is returned.
	UpdateNickname(ctx context.Context, id, user primitive.ObjectID, name string) (Channel, error)

	// UpdateConfig sets a single config key.
	UpdateConfig(ctx context.Context, id primitive.ObjectID, key string, value any) (matched, modified int64, err error)

	// Count returns the number of channels.
	Count(ctx context.Context, accessibleOnly bool) (int64, error)
}

// Cache contains channel caching interface.
type Cache interface {
	// Save stores the channel.
	Save(ctx context.Context, ch Channel) error

	// Retrieve returns the cached channel.
	Retrieve(ctx context.Context, id primitive.ObjectID) (Channel, error)

	// Remove evicts the channel.
	Remove(ctx context.Context, id primitive.ObjectID) error
}
