// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package permissions

var (
	baseline = []Code{Normal}

	modExtras = []Code{ARAccessPinnedModule, PRFControlSelf}

	adminExtras = []Code{MBRChangeMembers, CNLAdjustFeatures, CNLAdjustPrivacy, PRFCED, PRFControlMember}

	// overrides is totally ordered by inclusion: NORMAL ⊆ MOD ⊆ ADMIN.
	overrides = map[Level]Set{
		LevelNormal: NewSet(baseline...),
		LevelMod:    NewSet(append(append([]Code{}, baseline...), modExtras...)...),
		LevelAdmin:  NewSet(append(append(append([]Code{}, baseline...), modExtras...), adminExtras...)...),
	}
)

// DefaultOverride returns the permissions implicitly granted at level. The
// returned set is a copy.
func DefaultOverride(level Level) Set {
	set, ok := overrides[level]
	if !ok {
		set = overrides[Lowest]
	}
	return set.Union(nil)
}

// OverrideHas reports whether level implicitly grants c.
func OverrideHas(level Level, c Code) bool {
	set, ok := overrides[level]
	if !ok {
		return false
	}
	return set.Has(c)
}
