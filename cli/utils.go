// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/absmach/jelly/pkg/errors"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ConfigPath config path parameter.
	ConfigPath string = ""
	// RawOutput raw output mode.
	RawOutput bool = false
	// Name name substring filter.
	Name string = ""
	// InsideOnly lists only the channels the user is a member of.
	InsideOnly bool = false
	// AccessibleOnly lists only the channels the bot can reach.
	AccessibleOnly bool = false
	// AvailableOnly lists only current members.
	AvailableOnly bool = false
)

var errInvalidOID = errors.New("invalid object id")

func logJSONCmd(cmd cobra.Command, iList ...interface{}) {
	for _, i := range iList {
		m, err := json.Marshal(i)
		if err != nil {
			logErrorCmd(cmd, err)
			return
		}

		if RawOutput {
			fmt.Fprintln(cmd.OutOrStdout(), string(m))
			continue
		}

		pj, err := prettyjson.Format(m)
		if err != nil {
			logErrorCmd(cmd, err)
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
	}
}

func logUsageCmd(cmd cobra.Command, u string) {
	fmt.Fprintf(cmd.OutOrStdout(), color.YellowString("\nusage: %s\n\n"), u)
}

func logErrorCmd(cmd cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	boldRed.Fprintf(cmd.ErrOrStderr(), "\nerror: ")

	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n", color.RedString(err.Error()))
}

func logOKCmd(cmd cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", color.BlueString("ok"))
}

func logCountCmd(cmd cobra.Command, what string, n int64) {
	if RawOutput {
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), color.BlueString("\n%s: %d\n\n"), what, n)
}

func parseOIDs(args ...string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(args))
	for _, a := range args {
		oid, err := primitive.ObjectIDFromHex(a)
		if err != nil {
			return nil, errors.Wrap(errInvalidOID, fmt.Errorf("%q", a))
		}
		oids = append(oids, oid)
	}

	return oids, nil
}
