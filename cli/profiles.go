// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/spf13/cobra"

var cmdProfiles = []cobra.Command{
	{
		Use:   "get <channel_oid>",
		Short: "Get channel profiles",
		Long: `Lists the profiles of a channel.
		Use --name to match a name substring.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			oids, err := parseOIDs(args...)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			profs, err := backend.Profiles.ListByChannel(cmd.Context(), oids[0], Name)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, profs)
		},
	},
	{
		Use:   "attachable <channel_oid> <user_oid>",
		Short: "Get attachable profiles",
		Long:  `Lists the channel profiles the user may attach`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			oids, err := parseOIDs(args...)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			profs, err := backend.Service.GetAttachableProfiles(cmd.Context(), oids[0], oids[1])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, profs)
		},
	},
	{
		Use:   "fill",
		Short: "Fill missing permissions",
		Long:  `Sets every missing profile permission to the default of the profile level`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			n, err := backend.Profiles.FillPermissions(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logCountCmd(*cmd, "updated", n)
		},
	},
}

// NewProfilesCmd returns profiles command.
func NewProfilesCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "profiles [get | attachable | fill]",
		Short: "Profiles management",
		Long:  `Profiles management: list channel profiles, list attachable profiles and fill missing permissions`,
	}

	for i := range cmdProfiles {
		cmd.AddCommand(&cmdProfiles[i])
	}

	return &cmd
}
