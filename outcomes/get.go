// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package outcomes

// GetOutcome is the result of a lookup that may create what it looks for.
type GetOutcome int

const (
	// GetCacheDB means the record was served from the store or its cache.
	GetCacheDB GetOutcome = -2
	// GetAdded means the record did not exist and was created.
	GetAdded                   GetOutcome = -1
	GetNotFoundAttemptedInsert GetOutcome = 101
	GetNotFoundAbortedInsert   GetOutcome = 102
	GetNotFoundFirstQuery      GetOutcome = 103
	GetNotFoundSecondQuery     GetOutcome = 104
	GetChannelNotFound         GetOutcome = 301
	GetChannelConfigError      GetOutcome = 302
	GetDefaultProfileError     GetOutcome = 303
	GetNotExecuted             GetOutcome = 901
	GetExceptionOccurred       GetOutcome = 902
)

var getNames = map[int]string{
	-2:  "O_CACHE_DB",
	-1:  "O_ADDED",
	101: "X_NOT_FOUND_ATTEMPTED_INSERT",
	102: "X_NOT_FOUND_ABORTED_INSERT",
	103: "X_NOT_FOUND_FIRST_QUERY",
	104: "X_NOT_FOUND_SECOND_QUERY",
	301: "X_CHANNEL_NOT_FOUND",
	302: "X_CHANNEL_CONFIG_ERROR",
	303: "X_DEFAULT_PROFILE_ERROR",
	901: "X_NOT_EXECUTED",
	902: "X_EXCEPTION_OCCURRED",
}

var _ Outcome = GetOutcome(0)

func (o GetOutcome) Code() int { return int(o) }

func (o GetOutcome) IsSuccess() bool { return o < 0 }

func (o GetOutcome) String() string { return name(getNames, int(o)) }

func (o GetOutcome) Display() string { return display("G", int(o)) }
