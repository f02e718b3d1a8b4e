// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package permissions evaluates the effective permission set of a user in a
// channel. A user's profiles grant permission codes explicitly; the highest
// permission level among them contributes its default-override set. The
// package performs no I/O.
package permissions
