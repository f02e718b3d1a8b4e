// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package errors

var (
	// ErrMalformedEntity indicates a malformed entity specification.
	ErrMalformedEntity = New("malformed entity specification")

	// ErrNotFound indicates a non-existent entity request.
	ErrNotFound = New("entity not found")

	// ErrConflict indicates that entity already exists.
	ErrConflict = New("entity already exists")

	// ErrTimeout indicates that the store did not answer in time.
	ErrTimeout = New("operation timed out")

	// ErrInvalidOID indicates that a value could not be parsed as an object ID.
	ErrInvalidOID = New("invalid object id")
)
