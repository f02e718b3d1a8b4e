// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package jelly contains the profile and permission core of the Jelly
// chat-bot platform. It decides which profiles are attached to which user in
// a channel and which permissions those profiles grant.
package jelly
