// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"sort"
	"strconv"
	"strings"

	"github.com/absmach/jelly/pkg/errors"
)

// ErrInvalidCode indicates a value that is not a known permission code.
var ErrInvalidCode = errors.New("invalid permission code")

// Code is a stable wire identifier of a permission.
type Code int

// Known permission codes.
const (
	Normal               Code = 1
	ARAccessPinnedModule Code = 101
	MBRChangeMembers     Code = 201
	CNLAdjustFeatures    Code = 301
	CNLAdjustPrivacy     Code = 302
	PRFCED               Code = 501
	PRFControlSelf       Code = 502
	PRFControlMember     Code = 503
)

var codeNames = map[Code]string{
	Normal:               "NORMAL",
	ARAccessPinnedModule: "AR_ACCESS_PINNED_MODULE",
	MBRChangeMembers:     "MBR_CHANGE_MEMBERS",
	CNLAdjustFeatures:    "CNL_ADJUST_FEATURES",
	CNLAdjustPrivacy:     "CNL_ADJUST_PRIVACY",
	PRFCED:               "PRF_CED",
	PRFControlSelf:       "PRF_CONTROL_SELF",
	PRFControlMember:     "PRF_CONTROL_MEMBER",
}

// String returns the code name.
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Key returns the decimal string used as the permission-map key.
func (c Code) Key() string {
	return strconv.Itoa(int(c))
}

// Valid reports whether c is a known code.
func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

// ParseCode accepts either the decimal code or the code name.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if c := Code(n); c.Valid() {
			return c, nil
		}
		return 0, ErrInvalidCode
	}
	upper := strings.ToUpper(s)
	for c, n := range codeNames {
		if n == upper {
			return c, nil
		}
	}
	return 0, ErrInvalidCode
}

// AllCodes returns every known code in ascending order.
func AllCodes() []Code {
	codes := make([]Code, 0, len(codeNames))
	for c := range codeNames {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
