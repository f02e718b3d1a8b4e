// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"strconv"
	"strings"

	"github.com/absmach/jelly/pkg/errors"
)

// ErrInvalidLevel indicates a value that is not a permission level.
var ErrInvalidLevel = errors.New("invalid permission level")

// Level is an ordinal; a higher level implies every lower one.
type Level int

// Permission levels.
const (
	LevelNormal Level = iota
	LevelMod
	LevelAdmin
)

// Lowest is the level of a user without profiles.
const Lowest = LevelNormal

var levelNames = map[Level]string{
	LevelNormal: "NORMAL",
	LevelMod:    "MOD",
	LevelAdmin:  "ADMIN",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return "UNKNOWN"
}

// Valid reports whether l is a declared level.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel accepts the level name (any case) or its integer value.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
		return 0, ErrInvalidLevel
	}
	upper := strings.ToUpper(s)
	for l, n := range levelNames {
		if n == upper {
			return l, nil
		}
	}
	return 0, ErrInvalidLevel
}

// Levels returns every level in ascending order.
func Levels() []Level {
	return []Level{LevelNormal, LevelMod, LevelAdmin}
}
