// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package outcomes

import "strconv"

// Unknown is the name of a code that belongs to no declared outcome.
const Unknown = "UNKNOWN"

// Outcome is implemented by every outcome family.
type Outcome interface {
	// Code returns the wire code.
	Code() int

	// IsSuccess reports whether the outcome represents a success.
	IsSuccess() bool

	// String returns the outcome name, e.g. O_COMPLETED.
	String() string

	// Display returns the family-prefixed code, e.g. O-1.
	Display() string
}

func display(prefix string, code int) string {
	return prefix + strconv.Itoa(code)
}

func name(names map[int]string, code int) string {
	if n, ok := names[code]; ok {
		return n
	}
	return Unknown
}
