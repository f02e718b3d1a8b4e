// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"sort"
	"strings"

	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	svcerr "github.com/absmach/jelly/pkg/errors/service"
	"github.com/absmach/jelly/profiles"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errMissingField = errors.New("missing required field")
	errFieldType    = errors.New("field has unexpected type")
)

// Fields parsed by the dedicated steps of ProcessCreateProfileKwargs.
var createSteps = map[string]struct{}{
	profiles.FieldID.Name:         {},
	profiles.FieldChannelOID.Name: {},
	profiles.FieldLevel.Name:      {},
	profiles.FieldColor.Name:      {},
}

// ProcessCreateProfileKwargs parses the arguments of a new profile. The
// channel OID is required; the permission map always lists every known
// code.
func ProcessCreateProfileKwargs(m map[string]string) ArgParseResult {
	parsed := map[string]any{}
	remaining := make(map[string]struct{}, len(m))
	for k := range m {
		remaining[k] = struct{}{}
	}

	raw, ok := m[profiles.FieldChannelOID.Name]
	if !ok {
		return ArgParseResult{Outcome: outcomes.OpMissingChannelOID, Err: errors.Wrap(svcerr.ErrParseArgs, errMissingField)}
	}
	channel, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return ArgParseResult{Outcome: outcomes.OpInvalidChannelOID, Err: errors.Wrap(svcerr.ErrParseArgs, err)}
	}
	parsed[profiles.FieldChannelOID.Key] = channel
	delete(remaining, profiles.FieldChannelOID.Name)

	level := permissions.Lowest
	if raw, ok := m[profiles.FieldLevel.Name]; ok {
		if level, err = permissions.ParseLevel(raw); err != nil {
			return ArgParseResult{Outcome: outcomes.OpInvalidPermLevel, Err: errors.Wrap(svcerr.ErrParseArgs, err)}
		}
		parsed[profiles.FieldLevel.Key] = level
		delete(remaining, profiles.FieldLevel.Name)
	}

	perm := map[string]bool{}
	for _, k := range sortedKeys(m) {
		code, isPerm, err := parsePermissionName(k)
		if !isPerm || err != nil {
			continue
		}
		on, err := profiles.ParseBool(m[k])
		if err != nil {
			return ArgParseResult{Outcome: outcomes.OpValueTypeMismatch, Err: errors.Wrap(svcerr.ErrParseArgs, err)}
		}
		perm[code.Key()] = on
		delete(remaining, k)
	}
	for c := range permissions.DefaultOverride(level) {
		perm[c.Key()] = true
	}
	for _, c := range permissions.AllCodes() {
		if _, ok := perm[c.Key()]; !ok {
			perm[c.Key()] = false
		}
	}
	parsed[profiles.PermissionMapKey] = perm

	if raw, ok := m[profiles.FieldColor.Name]; ok {
		color, err := profiles.ParseColor(raw)
		if err != nil {
			return ArgParseResult{Outcome: outcomes.OpInvalidColor, Err: errors.Wrap(svcerr.ErrParseArgs, err)}
		}
		parsed[profiles.FieldColor.Key] = color
		delete(remaining, profiles.FieldColor.Name)
	}

	for _, f := range profiles.Fields() {
		if _, ok := createSteps[f.Name]; ok {
			continue
		}
		raw, ok := m[f.Name]
		if !ok {
			continue
		}
		v, res, failed := parseField(f, raw)
		if failed {
			return res
		}
		parsed[f.Key] = v
		delete(remaining, f.Name)
	}

	switch {
	case len(remaining) > 0:
		return ArgParseResult{Outcome: outcomes.OpAddlArgsOmitted, Parsed: parsed}
	default:
		return ArgParseResult{Outcome: outcomes.OpCompleted, Parsed: parsed}
	}
}

// ProcessEditProfileKwargs parses the arguments of a profile update into
// json keys. Read-only and unknown arguments are omitted.
func ProcessEditProfileKwargs(m map[string]string) ArgParseResult {
	parsed := map[string]any{}
	var readonly, addl bool

	for _, k := range sortedKeys(m) {
		code, isPerm, err := parsePermissionName(k)
		if isPerm {
			if err != nil {
				addl = true
				continue
			}
			on, err := profiles.ParseBool(m[k])
			if err != nil {
				return ArgParseResult{Outcome: outcomes.OpValueTypeMismatch, Err: errors.Wrap(svcerr.ErrParseArgs, err)}
			}
			parsed[profiles.PermissionKey(code)] = on
			continue
		}

		f, ok := profiles.FieldByName(k)
		switch {
		case !ok:
			addl = true
			continue
		case f.ReadOnly:
			readonly = true
			continue
		}
		v, res, failed := parseField(f, m[k])
		if failed {
			return res
		}
		parsed[f.Key] = v
	}

	switch {
	case len(parsed) == 0:
		return ArgParseResult{Outcome: outcomes.OpEmptyArgs, Err: svcerr.ErrParseArgs}
	case readonly:
		return ArgParseResult{Outcome: outcomes.OpReadonlyArgsOmitted, Parsed: parsed}
	case addl:
		return ArgParseResult{Outcome: outcomes.OpAddlArgsOmitted, Parsed: parsed}
	default:
		return ArgParseResult{Outcome: outcomes.OpCompleted, Parsed: parsed}
	}
}

// buildProfile constructs a profile from the output of
// ProcessCreateProfileKwargs.
func buildProfile(parsed map[string]any) (profiles.Profile, outcomes.WriteOutcome, error) {
	var p profiles.Profile

	for _, key := range []string{profiles.FieldChannelOID.Key, profiles.FieldName.Key} {
		if _, ok := parsed[key]; !ok {
			return p, outcomes.WriteRequiredNotFilled, errors.Wrap(errMissingField, errors.New(key))
		}
	}

	var ok bool
	for key, v := range parsed {
		switch key {
		case profiles.FieldChannelOID.Key:
			p.ChannelOID, ok = v.(primitive.ObjectID)
		case profiles.FieldName.Key:
			p.Name, ok = v.(string)
		case profiles.FieldColor.Key:
			p.Color, ok = v.(profiles.Color)
		case profiles.FieldLevel.Key:
			p.Level, ok = v.(permissions.Level)
		case profiles.FieldPromoVote.Key:
			p.PromoVote, ok = v.(int)
		case profiles.FieldEmailKeyword.Key:
			p.EmailKeyword, ok = v.([]string)
		case profiles.PermissionMapKey:
			p.Permission, ok = v.(map[string]bool)
		default:
			return p, outcomes.WriteInvalidModel, errors.Wrap(errFieldType, errors.New(key))
		}
		if !ok {
			return p, outcomes.WriteTypeMismatch, errors.Wrap(errFieldType, errors.New(key))
		}
	}

	return p, outcomes.WriteMisc, nil
}

func parseField(f profiles.Field, raw string) (any, ArgParseResult, bool) {
	v, err := f.Parse(raw)
	switch {
	case err == nil:
		return v, ArgParseResult{}, false
	case errors.Contains(err, profiles.ErrTypeMismatch):
		return nil, ArgParseResult{Outcome: outcomes.OpValueTypeMismatch, Err: errors.Wrap(svcerr.ErrParseArgs, err)}, true
	default:
		return nil, ArgParseResult{Outcome: outcomes.OpValueInvalid, Err: errors.Wrap(svcerr.ErrParseArgs, err)}, true
	}
}

// parsePermissionName accepts the permission prefix in any case.
func parsePermissionName(k string) (permissions.Code, bool, error) {
	prefix := profiles.PermissionNamePrefix
	if len(k) < len(prefix) || !strings.EqualFold(k[:len(prefix)], prefix) {
		return 0, false, nil
	}
	return profiles.ParsePermissionEntry(prefix+k[len(prefix):], prefix)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
