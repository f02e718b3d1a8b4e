// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package memberships contains connections between users and channels and
// the profiles attached to each of them.
package memberships
