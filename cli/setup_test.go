// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/absmach/jelly/cli"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

type outputLog uint8

const (
	usageLog outputLog = iota
	errLog
	entityLog
	okLog
	countLog
)

func executeCommand(t *testing.T, ctx context.Context, root *cobra.Command, args ...string) string {
	buffer := new(bytes.Buffer)
	root.SetOut(buffer)
	root.SetErr(buffer)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	assert.NoError(t, err, "Error executing command")
	return buffer.String()
}

func setFlags(rootCmd *cobra.Command) *cobra.Command {
	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		cli.RawOutput,
		"Enables raw output mode for easier parsing of output",
	)

	rootCmd.PersistentFlags().StringVarP(
		&cli.Name,
		"name",
		"n",
		"",
		"Name substring filter",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.InsideOnly,
		"inside",
		"",
		false,
		"Only channels the user is in",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.AccessibleOnly,
		"accessible",
		"",
		false,
		"Only channels the bot can reach",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.AvailableOnly,
		"available",
		"",
		false,
		"Only current members",
	)

	return rootCmd
}

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}
