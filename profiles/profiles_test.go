// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package profiles_test

import (
	"fmt"
	"testing"

	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	"github.com/absmach/jelly/profiles"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		desc  string
		s     string
		color profiles.Color
		err   error
	}{
		{desc: "parse black", s: "#000000", color: 0},
		{desc: "parse white", s: "#FFFFFF", color: 0xFFFFFF},
		{desc: "parse lower case without hash", s: "00ff7f", color: 0x00FF7F},
		{desc: "parse short color", s: "#FFF", err: profiles.ErrInvalidColor},
		{desc: "parse non-hex color", s: "#GG0000", err: profiles.ErrInvalidColor},
		{desc: "parse empty color", s: "", err: profiles.ErrInvalidColor},
	}

	for _, tc := range cases {
		c, err := profiles.ParseColor(tc.s)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		assert.Equal(t, tc.color, c, fmt.Sprintf("%s: expected %d got %d\n", tc.desc, tc.color, c))
	}

	assert.Equal(t, "#00FF7F", profiles.Color(0x00FF7F).String())
	assert.False(t, profiles.Color(0x1000000).Valid())
}

func TestNormalize(t *testing.T) {
	p := profiles.Profile{
		ChannelOID: primitive.NewObjectID(),
		Name:       "  Member ",
		Level:      permissions.LevelMod,
		Permission: map[string]bool{
			"301":  true,
			"9999": true,
			"101":  false,
		},
	}.Normalize()

	assert.Equal(t, "Member", p.Name, "expected trimmed name")
	assert.Len(t, p.Permission, len(permissions.AllCodes()), "expected an entry for every known code")
	_, ok := p.Permission["9999"]
	assert.False(t, ok, "expected unknown code to be dropped")
	assert.True(t, p.Permission["301"], "expected explicit grant to be kept")
	assert.False(t, p.Permission["101"], "expected explicit denial to be kept")
	assert.True(t, p.Permission[permissions.PRFControlSelf.Key()], "expected MOD default to be filled")
	assert.False(t, p.Permission[permissions.PRFCED.Key()], "expected ADMIN-only code to default to false")
}

func TestGranted(t *testing.T) {
	p := profiles.Profile{
		Level:      permissions.LevelNormal,
		Permission: map[string]bool{"503": true, "301": true, "101": false, "x": true},
	}

	assert.Equal(t, []permissions.Code{permissions.CNLAdjustFeatures, permissions.PRFControlMember}, p.Granted())
	assert.Equal(t, permissions.LevelNormal, p.PermissionLevel())

	perms := permissions.Permissions([]profiles.Profile{p})
	assert.True(t, perms.Has(permissions.Normal), "expected NORMAL baseline")
	assert.True(t, permissions.CanControlMember(perms))
}

func TestFieldParse(t *testing.T) {
	oid := primitive.NewObjectID()

	cases := []struct {
		desc  string
		field profiles.Field
		s     string
		value any
		err   error
	}{
		{desc: "parse channel OID", field: profiles.FieldChannelOID, s: oid.Hex(), value: oid},
		{desc: "parse invalid channel OID", field: profiles.FieldChannelOID, s: "xyz", err: profiles.ErrInvalidValue},
		{desc: "parse name", field: profiles.FieldName, s: " A ", value: "A"},
		{desc: "parse blank name", field: profiles.FieldName, s: "  ", err: profiles.ErrInvalidValue},
		{desc: "parse color", field: profiles.FieldColor, s: "#0000FF", value: profiles.Color(0xFF)},
		{desc: "parse invalid color", field: profiles.FieldColor, s: "blue", err: profiles.ErrInvalidValue},
		{desc: "parse level name", field: profiles.FieldLevel, s: "admin", value: permissions.LevelAdmin},
		{desc: "parse level value", field: profiles.FieldLevel, s: "1", value: permissions.LevelMod},
		{desc: "parse invalid level", field: profiles.FieldLevel, s: "OWNER", err: profiles.ErrInvalidValue},
		{desc: "parse promo vote", field: profiles.FieldPromoVote, s: "3", value: 3},
		{desc: "parse non-numeric promo vote", field: profiles.FieldPromoVote, s: "three", err: profiles.ErrTypeMismatch},
		{desc: "parse negative promo vote", field: profiles.FieldPromoVote, s: "-1", err: profiles.ErrInvalidValue},
		{desc: "parse keywords", field: profiles.FieldEmailKeyword, s: "a, b,,c ", value: []string{"a", "b", "c"}},
	}

	for _, tc := range cases {
		v, err := tc.field.Parse(tc.s)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		assert.Equal(t, tc.value, v, fmt.Sprintf("%s: expected %v got %v\n", tc.desc, tc.value, v))
	}
}

func TestFieldCast(t *testing.T) {
	cases := []struct {
		desc  string
		field profiles.Field
		value any
		cast  any
		err   error
	}{
		{desc: "cast name", field: profiles.FieldName, value: "B ", cast: "B"},
		{desc: "cast name of wrong type", field: profiles.FieldName, value: 1, err: profiles.ErrTypeMismatch},
		{desc: "cast color from int", field: profiles.FieldColor, value: 255, cast: profiles.Color(255)},
		{desc: "cast color out of range", field: profiles.FieldColor, value: 0x1000000, err: profiles.ErrInvalidValue},
		{desc: "cast level", field: profiles.FieldLevel, value: permissions.LevelAdmin, cast: permissions.LevelAdmin},
		{desc: "cast unknown level", field: profiles.FieldLevel, value: 7, err: profiles.ErrInvalidValue},
		{desc: "cast level of wrong type", field: profiles.FieldLevel, value: "ADMIN", err: profiles.ErrTypeMismatch},
		{desc: "cast keywords", field: profiles.FieldEmailKeyword, value: []string{" a"}, cast: []string{"a"}},
		{desc: "cast blank keyword", field: profiles.FieldEmailKeyword, value: []string{" "}, err: profiles.ErrInvalidValue},
	}

	for _, tc := range cases {
		v, err := tc.field.Cast(tc.value)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s\n", tc.desc, tc.err, err))
		assert.Equal(t, tc.cast, v, fmt.Sprintf("%s: expected %v got %v\n", tc.desc, tc.cast, v))
	}
}

func TestLookups(t *testing.T) {
	f, ok := profiles.FieldByName("PermissionLevel")
	assert.True(t, ok)
	assert.Equal(t, "pls", f.Key)

	f, ok = profiles.FieldByKey("c")
	assert.True(t, ok)
	assert.True(t, f.ReadOnly, "expected channel OID to be read-only")

	_, ok = profiles.FieldByName("X")
	assert.False(t, ok)

	code, isPerm, err := profiles.ParsePermissionEntry("Permission.301", profiles.PermissionNamePrefix)
	assert.True(t, isPerm)
	assert.Nil(t, err)
	assert.Equal(t, permissions.CNLAdjustFeatures, code)

	_, isPerm, err = profiles.ParsePermissionEntry("p.9999", profiles.PermissionKeyPrefix)
	assert.True(t, isPerm)
	assert.True(t, errors.Contains(err, permissions.ErrInvalidCode))

	_, isPerm, _ = profiles.ParsePermissionEntry("Name", profiles.PermissionNamePrefix)
	assert.False(t, isPerm)

	assert.Equal(t, "Permission.501", profiles.PermissionName(permissions.PRFCED))
	assert.Equal(t, "p.501", profiles.PermissionKey(permissions.PRFCED))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "T", "yes", "Y", "1"} {
		b, err := profiles.ParseBool(s)
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", s, err))
		assert.True(t, b, s)
	}
	for _, s := range []string{"false", "F", "no", "N", "0"} {
		b, err := profiles.ParseBool(s)
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", s, err))
		assert.False(t, b, s)
	}
	_, err := profiles.ParseBool("maybe")
	assert.True(t, errors.Contains(err, profiles.ErrTypeMismatch))
}
