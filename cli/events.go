// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"

	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/pkg/uuid"
	"github.com/spf13/cobra"
)

const consumerPrefix = "jelly-cli-"

var cmdEvents = []cobra.Command{
	{
		Use:   "subscribe <stream>",
		Short: "Subscribe to stream",
		Long:  `Prints the events published to the stream until interrupted`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			id, err := uuid.New().ID()
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			cfg := events.SubscriberConfig{
				Consumer: consumerPrefix + id,
				Stream:   args[0],
				Handler: events.HandlerFunc(func(_ context.Context, event events.Event) error {
					data, err := event.Encode()
					if err != nil {
						return err
					}
					logJSONCmd(*cmd, data)
					return nil
				}),
			}
			if err := backend.Subscriber.Subscribe(cmd.Context(), cfg); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			<-cmd.Context().Done()
		},
	},
}

// NewEventsCmd returns events command.
func NewEventsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "events [subscribe]",
		Short: "Event streams",
		Long:  `Event streams: follow the events published by the service`,
	}

	for i := range cmdEvents {
		cmd.AddCommand(&cmdEvents[i])
	}

	return &cmd
}
