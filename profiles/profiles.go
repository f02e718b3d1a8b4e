// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package profiles

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultProfileName is the name of a channel default profile.
const DefaultProfileName = "Default Profile"

// MaxColor is the largest 24-bit color.
const MaxColor Color = 0xFFFFFF

var (
	// ErrInvalidColor indicates a malformed #RRGGBB color.
	ErrInvalidColor = errors.New("invalid color")

	// ErrTypeMismatch indicates a value of the wrong type for a field.
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrInvalidValue indicates a value rejected by a field validator.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnknownField indicates a field name or key the profile does not have.
	ErrUnknownField = errors.New("unknown field")
)

// Color is a 24-bit RGB color.
type Color int

// ParseColor parses a #RRGGBB hex color. The leading hash is optional.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, ErrInvalidColor
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, ErrInvalidColor
	}

	return Color(n), nil
}

// Valid reports whether c fits into 24 bits.
func (c Color) Valid() bool {
	return c >= 0 && c <= MaxColor
}

func (c Color) String() string {
	return fmt.Sprintf("#%06X", int(c))
}

// Profile is a named permission bundle of a channel.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"   json:"_id,omitempty"`
	ChannelOID   primitive.ObjectID `bson:"c"               json:"c"                validate:"required"`
	Name         string             `bson:"n"               json:"n"                validate:"required"`
	Color        Color              `bson:"col"             json:"col"              validate:"gte=0,lte=16777215"`
	Level        permissions.Level  `bson:"pls"             json:"pls"              validate:"gte=0,lte=2"`
	Permission   map[string]bool    `bson:"p"               json:"p"`
	PromoVote    int                `bson:"promo"           json:"promo"            validate:"gte=0"`
	EmailKeyword []string           `bson:"e-kw,omitempty"  json:"e-kw,omitempty"   validate:"dive,required"`
}

var _ permissions.Grant = Profile{}

// PermissionLevel returns the level the profile carries.
func (p Profile) PermissionLevel() permissions.Level {
	return p.Level
}

// Granted returns the codes the profile maps to true, in ascending order.
func (p Profile) Granted() []permissions.Code {
	codes := []permissions.Code{}
	for key, on := range p.Permission {
		if !on {
			continue
		}
		if c, err := permissions.ParseCode(key); err == nil {
			codes = append(codes, c)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	return codes
}

// Normalize trims the name, drops permission keys that are not known codes
// and fills every missing code with its default for the profile level.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)

	perm := make(map[string]bool, len(permissions.AllCodes()))
	for key, on := range p.Permission {
		if c, err := permissions.ParseCode(key); err == nil {
			perm[c.Key()] = on
		}
	}
	for _, c := range permissions.AllCodes() {
		if _, ok := perm[c.Key()]; !ok {
			perm[c.Key()] = permissions.OverrideHas(p.Level, c)
		}
	}
	p.Permission = perm

	return p
}

// GetResult is the result of GetDefaultProfile. Model is nil on failure.
type GetResult struct {
	Outcome outcomes.GetOutcome
	Err     error
	Model   *Profile
}

// CreateResult is the result of a profile creation. Model is nil on failure.
type CreateResult struct {
	Outcome outcomes.WriteOutcome
	Err     error
	Model   *Profile
}

// ChannelResolver resolves channels and writes back their default profile.
type ChannelResolver interface {
	Get(ctx context.Context, id primitive.ObjectID) (channels.Channel, error)
	SetConfig(ctx context.Context, id primitive.ObjectID, key string, value any) outcomes.UpdateOutcome
}

// Repository specifies a profile persistence API.
type Repository interface {
	// Save persists a new profile. It returns ErrConflict when the channel
	// already has a profile with the same name.
	Save(ctx context.Context, p Profile) (Profile, error)

	// RetrieveByID retrieves the profile with the given OID.
	RetrieveByID(ctx context.Context, id primitive.ObjectID) (Profile, error)

	// RetrieveByName retrieves the channel profile with the given name.
	RetrieveByName(ctx context.Context, channel primitive.ObjectID, name string) (Profile, error)

	// RetrieveAll retrieves the profiles among ids.
	RetrieveAll(ctx context.Context, ids []primitive.ObjectID) ([]Profile, error)

	// RetrieveByChannel retrieves the channel profiles whose name contains
	// nameSubstring, sorted by name.
	RetrieveByChannel(ctx context.Context, channel primitive.ObjectID, nameSubstring string) ([]Profile, error)

	// RetrieveAttachable retrieves the channel profiles at or below highest
	// that grant none of the forbidden codes, sorted by name.
	RetrieveAttachable(ctx context.Context, channel primitive.ObjectID, forbidden []permissions.Code, highest permissions.Level) ([]Profile, error)

	// Update sets the given json keys of a profile.
	Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (matched, modified int64, err error)

	// Remove deletes the profile. It returns ErrNotFound when nothing was deleted.
	Remove(ctx context.Context, id primitive.ObjectID) error

	// FillPermission sets the code to value on every profile of the level
	// that lacks it, returning the number of modified profiles.
	FillPermission(ctx context.Context, code permissions.Code, level permissions.Level, value bool) (int64, error)
}
