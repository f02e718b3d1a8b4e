// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package manager contains the profile manager. It parses external profile
// arguments, authorizes profile changes against the executor's effective
// permissions and orchestrates the channel, profile and membership stores.
package manager
