// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package permissions

// Grant is the permission view of a profile.
type Grant interface {
	// PermissionLevel returns the level the profile carries.
	PermissionLevel() Level

	// Granted returns every code the profile maps to true.
	Granted() []Code
}

// HighestLevel returns the highest level among grants, or Lowest when empty.
func HighestLevel[G Grant](grants []G) Level {
	highest := Lowest
	for _, g := range grants {
		if lvl := g.PermissionLevel(); lvl > highest {
			highest = lvl
		}
	}
	return highest
}

// Permissions returns the effective permission set of grants: the union of
// all explicit grants and the default-override set of the highest level.
// No grants yield an empty set, which callers read as "not in the channel".
func Permissions[G Grant](grants []G) Set {
	if len(grants) == 0 {
		return Set{}
	}
	ret := DefaultOverride(HighestLevel(grants))
	for _, g := range grants {
		ret.Add(g.Granted()...)
	}
	return ret
}

// CanCED reports whether perms allow creating, editing and deleting profiles.
func CanCED(perms Set) bool {
	return perms.Has(PRFCED)
}

// CanControlMember reports whether perms allow changing other members' profiles.
func CanControlMember(perms Set) bool {
	return perms.Has(PRFControlMember)
}

// CanControlSelf reports whether perms allow changing one's own profiles.
func CanControlSelf(perms Set) bool {
	return perms.Has(PRFControlSelf)
}
