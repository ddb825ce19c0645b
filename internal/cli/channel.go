package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewChannelCmd создаёт группу команд для реестра целей.
func NewChannelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage publication targets",
	}

	cmd.AddCommand(
		newChannelListCmd(clientFn, outputFn),
		newChannelRefreshVKCmd(clientFn, outputFn),
	)

	return cmd
}

var channelHeaders = []string{"PLATFORM", "ID", "TITLE", "CAN_POST", "UPDATED"}

func channelRow(ch ChannelResponse) []string {
	return []string{
		ch.Platform,
		fmt.Sprintf("%d", ch.ExternalID),
		ch.Title,
		strconv.FormatBool(ch.CanPost),
		ch.UpdatedAt,
	}
}

func newChannelListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := clientFn().ListChannels(platform)
			if err != nil {
				return err
			}

			rows := make([][]string, len(channels))
			for i, ch := range channels {
				rows[i] = channelRow(ch)
			}
			outputFn().Print(channelHeaders, rows, channels)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform (telegram, vk)")
	return cmd
}

func newChannelRefreshVKCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-vk",
		Short: "Re-poll VK groups and replace the VK registry slice",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := clientFn().RefreshVKChannels()
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("VK groups refreshed: %d", len(channels)))
			rows := make([][]string, len(channels))
			for i, ch := range channels {
				rows[i] = channelRow(ch)
			}
			out.Print(channelHeaders, rows, channels)
			return nil
		},
	}
}
