// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package outcomes

// OperationOutcome is the result of a composite manager operation.
type OperationOutcome int

const (
	OpAddlArgsOmitted        OperationOutcome = -101
	OpReadonlyArgsOmitted    OperationOutcome = -102
	OpCompleted              OperationOutcome = -1
	OpChannelNotFound        OperationOutcome = 201
	OpInsufficientPermission OperationOutcome = 401
	OpUnattachable           OperationOutcome = 402
	OpProfileNotFoundName    OperationOutcome = 403
	OpNoAttachableProfiles   OperationOutcome = 404
	OpTargetNotInChannel     OperationOutcome = 405
	OpDetachFailed           OperationOutcome = 406
	OpInvalidPermLevel       OperationOutcome = 407
	OpInvalidColor           OperationOutcome = 408
	OpEmptyArgs              OperationOutcome = 409
	OpExecutorNotInChannel   OperationOutcome = 410
	OpProfileNotFoundOID     OperationOutcome = 411
	OpMissingChannelOID      OperationOutcome = 412
	OpInvalidChannelOID      OperationOutcome = 413
	OpValueTypeMismatch      OperationOutcome = 414
	OpValueInvalid           OperationOutcome = 415
	OpDeleteFailed           OperationOutcome = 416
	OpConstructionError      OperationOutcome = 501
	OpNotExecuted            OperationOutcome = 901
	OpNotUpdated             OperationOutcome = 902
	OpNotDeleted             OperationOutcome = 903
	OpError                  OperationOutcome = 999
)

var operationNames = map[int]string{
	-101: "O_ADDL_ARGS_OMITTED",
	-102: "O_READONLY_ARGS_OMITTED",
	-1:   "O_COMPLETED",
	201:  "X_CHANNEL_NOT_FOUND",
	401:  "X_INSUFFICIENT_PERMISSION",
	402:  "X_UNATTACHABLE",
	403:  "X_PROFILE_NOT_FOUND_NAME",
	404:  "X_NO_ATTACHABLE_PROFILES",
	405:  "X_TARGET_NOT_IN_CHANNEL",
	406:  "X_DETACH_FAILED",
	407:  "X_INVALID_PERM_LV",
	408:  "X_INVALID_COLOR",
	409:  "X_EMPTY_ARGS",
	410:  "X_EXECUTOR_NOT_IN_CHANNEL",
	411:  "X_PROFILE_NOT_FOUND_OID",
	412:  "X_MISSING_CHANNEL_OID",
	413:  "X_INVALID_CHANNEL_OID",
	414:  "X_VALUE_TYPE_MISMATCH",
	415:  "X_VALUE_INVALID",
	416:  "X_DELETE_FAILED",
	501:  "X_CONSTRUCTION_ERROR",
	901:  "X_NOT_EXECUTED",
	902:  "X_NOT_UPDATED",
	903:  "X_NOT_DELETED",
	999:  "X_ERROR",
}

var _ Outcome = OperationOutcome(0)

func (o OperationOutcome) Code() int { return int(o) }

func (o OperationOutcome) IsSuccess() bool { return o < 0 }

func (o OperationOutcome) String() string { return name(operationNames, int(o)) }

func (o OperationOutcome) Display() string { return display("O", int(o)) }
