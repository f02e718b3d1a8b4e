// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package outcomes

// UpdateOutcome is the result of a partial update.
type UpdateOutcome int

const (
	// UpdateFound means the document matched but nothing changed.
	UpdateFound                  UpdateOutcome = -101
	UpdatePartialArgsRemoved     UpdateOutcome = -102
	UpdatePartialArgsInvalid     UpdateOutcome = -103
	UpdateUpdated                UpdateOutcome = -1
	UpdateNotFound               UpdateOutcome = 101
	UpdateArgsParseFailed        UpdateOutcome = 102
	UpdateUneditable             UpdateOutcome = 103
	UpdateChannelNotFound        UpdateOutcome = 301
	UpdateConfigNotExists        UpdateOutcome = 302
	UpdateConfigTypeMismatch     UpdateOutcome = 303
	UpdateConfigValueInvalid     UpdateOutcome = 304
	UpdateInsufficientPermission UpdateOutcome = 305
	UpdateNotExecuted            UpdateOutcome = 901
	UpdateExceptionOccurred      UpdateOutcome = 902
)

var updateNames = map[int]string{
	-101: "O_FOUND",
	-102: "O_PARTIAL_ARGS_REMOVED",
	-103: "O_PARTIAL_ARGS_INVALID",
	-1:   "O_UPDATED",
	101:  "X_NOT_FOUND",
	102:  "X_ARGS_PARSE_FAILED",
	103:  "X_UNEDITABLE",
	301:  "X_CHANNEL_NOT_FOUND",
	302:  "X_CONFIG_NOT_EXISTS",
	303:  "X_CONFIG_TYPE_MISMATCH",
	304:  "X_CONFIG_VALUE_INVALID",
	305:  "X_INSUFFICIENT_PERMISSION",
	901:  "X_NOT_EXECUTED",
	902:  "X_EXCEPTION_OCCURRED",
}

var _ Outcome = UpdateOutcome(0)

func (o UpdateOutcome) Code() int { return int(o) }

func (o UpdateOutcome) IsSuccess() bool { return o < 0 }

func (o UpdateOutcome) String() string { return name(updateNames, int(o)) }

func (o UpdateOutcome) Display() string { return display("U", int(o)) }

// FromCounts maps matched/modified document counts to an outcome.
func FromCounts(matched, modified int64) UpdateOutcome {
	switch {
	case matched > 0 && modified > 0:
		return UpdateUpdated
	case matched > 0:
		return UpdateFound
	default:
		return UpdateNotFound
	}
}
