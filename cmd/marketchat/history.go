package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("unread", false, "only show messages not yet read")
}

var historyCmd = &cobra.Command{
	Use:   "history <order-id>",
	Short: "Print the message history of an order conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unreadOnly, _ := cmd.Flags().GetBool("unread")
		msgs, err := newRESTClient(cfg).ConversationHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		now := time.Now()
		shown := 0
		for _, m := range msgs {
			if unreadOnly && m.Read {
				continue
			}
			fmt.Println(formatMessage(m, now))
			shown++
		}
		fmt.Printf("\n%d of %d messages\n", shown, len(msgs))
		return nil
	},
}
