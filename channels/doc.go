// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package channels contains the channel registry: platform channels the
// bot has encountered, their display configuration and the OID of each
// channel's default profile.
package channels
