// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/spf13/cobra"

var cmdUsers = []cobra.Command{
	{
		Use:   "channels <user_oid>",
		Short: "Get user channels",
		Long: `Lists the channels of a user with the profiles held in each.
		Use --inside to skip channels the user left and --accessible to skip channels the bot cannot reach.`,
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

			entries, err := backend.Service.GetUserChannelProfiles(cmd.Context(), oids[0], InsideOnly, AccessibleOnly)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, entries)
		},
	},
	{
		Use:   "profiles <channel_oid> <user_oid>",
		Short: "Get user profiles",
		Long:  `Lists the profiles attached to the user in the channel`,
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

			profs, err := backend.Service.GetUserProfiles(cmd.Context(), oids[0], oids[1])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, profs)
		},
	},
	{
		Use:   "permissions <channel_oid> <user_oid>",
		Short: "Get user permissions",
		Long:  `Shows the effective permissions of the user in the channel`,
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

			perms, err := backend.Service.GetUserPermissions(cmd.Context(), oids[0], oids[1])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			names := []string{}
			for _, c := range perms.Slice() {
				names = append(names, c.String())
			}
			logJSONCmd(*cmd, names)
		},
	},
}

// NewUsersCmd returns users command.
func NewUsersCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "users [channels | profiles | permissions]",
		Short: "User profiles",
		Long:  `User profiles: list user channels, attached profiles and effective permissions`,
	}

	for i := range cmdUsers {
		cmd.AddCommand(&cmdUsers[i])
	}

	return &cmd
}
