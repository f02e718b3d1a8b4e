// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/spf13/cobra"

var cmdChannels = []cobra.Command{
	{
		Use:   "members <channel_oid>",
		Short: "Get channel members",
		Long: `Lists the channel members and their profiles, highest level first.
		Use --available to skip former members.`,
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

			members, err := backend.Service.GetChannelMembers(cmd.Context(), oids[0], AvailableOnly)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, members)
		},
	},
	{
		Use:   "levels <channel_oid>",
		Short: "Get member levels",
		Long:  `Shows the highest permission level of every channel member`,
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

			levels, err := backend.Service.GetUserPermissionLevels(cmd.Context(), oids[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			res := make(map[string]string, len(levels))
			for user, l := range levels {
				res[user.Hex()] = l.String()
			}
			logJSONCmd(*cmd, res)
		},
	},
}

// NewChannelsCmd returns channels command.
func NewChannelsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "channels [members | levels]",
		Short: "Channel members",
		Long:  `Channel members: list members with their profiles or their permission levels`,
	}

	for i := range cmdChannels {
		cmd.AddCommand(&cmdChannels[i])
	}

	return &cmd
}
