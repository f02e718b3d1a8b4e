// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package outcomes

// WriteOutcome is the result of an insert or a single-document write.
type WriteOutcome int

const (
	WriteInserted               WriteOutcome = -201
	WriteDataUpdated            WriteOutcome = -151
	WriteDataExists             WriteOutcome = -101
	WriteMisc                   WriteOutcome = -1
	WriteInsufficientPermission WriteOutcome = 101
	WritePinnedContentExisted   WriteOutcome = 103
	WriteOnSetConfig            WriteOutcome = 109
	WriteDefaultCreateFailed    WriteOutcome = 113
	WriteNotAcknowledged        WriteOutcome = 202
	WriteInvalidModel           WriteOutcome = 205
	WriteTypeMismatch           WriteOutcome = 302
	WriteRequiredNotFilled      WriteOutcome = 305
	WriteChannelNotFound        WriteOutcome = 501
	WriteNotExecuted            WriteOutcome = 901
	WriteExceptionOccurred      WriteOutcome = 902
)

var writeNames = map[int]string{
	-201: "O_INSERTED",
	-151: "O_DATA_UPDATED",
	-101: "O_DATA_EXISTS",
	-1:   "O_MISC",
	101:  "X_INSUFFICIENT_PERMISSION",
	103:  "X_PINNED_CONTENT_EXISTED",
	109:  "X_ON_SET_CONFIG",
	113:  "X_CNL_DEFAULT_CREATE_FAILED",
	202:  "X_NOT_ACKNOWLEDGED",
	205:  "X_INVALID_MODEL",
	302:  "X_TYPE_MISMATCH",
	305:  "X_REQUIRED_NOT_FILLED",
	501:  "X_CHANNEL_NOT_FOUND",
	901:  "X_NOT_EXECUTED",
	902:  "X_EXCEPTION_OCCURRED",
}

var _ Outcome = WriteOutcome(0)

func (o WriteOutcome) Code() int { return int(o) }

func (o WriteOutcome) IsSuccess() bool { return o < 0 }

func (o WriteOutcome) String() string { return name(writeNames, int(o)) }

func (o WriteOutcome) Display() string { return display("I", int(o)) }

// IsInserted reports whether a new document was written.
func (o WriteOutcome) IsInserted() bool { return o < -200 }

// DataFound reports whether the written data already existed.
func (o WriteOutcome) DataFound() bool { return o > -200 && o < -100 }
