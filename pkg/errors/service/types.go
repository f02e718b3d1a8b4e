// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package service

import "github.com/absmach/jelly/pkg/errors"

// Wrapper for Service errors.
var (
	// ErrAuthorization indicates that the executor lacks the required permission.
	ErrAuthorization = errors.New("failed to perform authorization over the entity")

	// ErrCreateEntity indicates an error in creating entity or entities.
	ErrCreateEntity = errors.New("failed to create entity")

	// ErrMalformedEntity indicates a malformed entity specification.
	ErrMalformedEntity = errors.New("malformed entity specification")

	// ErrNotFound indicates a non-existent entity request.
	ErrNotFound = errors.New("entity not found")

	// ErrParseArgs indicates that external arguments could not be parsed.
	ErrParseArgs = errors.New("failed to parse arguments")

	// ErrViewEntity indicates that stored entities could not be loaded.
	ErrViewEntity = errors.New("view entity failed")

	// ErrScheduleTask indicates that a background task failed.
	ErrScheduleTask = errors.New("background task failed")
)
