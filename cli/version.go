// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/absmach/jelly"
	"github.com/spf13/cobra"
)

// NewVersionCmd returns version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Jelly version",
		Long:  `Prints the version of the Jelly tools`,
		Run: func(cmd *cobra.Command, args []string) {
			logJSONCmd(*cmd, map[string]string{"version": jelly.Version})
		},
	}
}
