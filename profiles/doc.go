// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package profiles contains channel-scoped profiles: named permission
// bundles that users are attached to through memberships.
package profiles
