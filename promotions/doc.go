// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package promotions keeps the log of promotion votes users cast for each
// other. Records are stored as is; no vote counting rules are applied.
package promotions
