// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to out at the given level.
func New(out io.Writer, levelText string) (*slog.Logger, error) {
	var level Level
	if err := level.UnmarshalText(levelText); err != nil {
		return nil, fmt.Errorf("%w: %q", err, levelText)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level.slog(),
	})

	return slog.New(handler), nil
}

// ExitWithError closes the current process with error code.
func ExitWithError(code *int) {
	os.Exit(*code)
}
