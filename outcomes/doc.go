// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package outcomes contains the typed results returned across component
// boundaries of the profile core. Every outcome is a stable integer wire
// code; negative codes are successes and positive codes are failures.
package outcomes
