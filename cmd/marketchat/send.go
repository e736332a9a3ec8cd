package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
)

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Duration("timeout", 5*time.Second, "how long to wait for the server echo")
}

var sendCmd = &cobra.Command{
	Use:   "send <order-id> <recipient-id> <text...>",
	Short: "Send a message and wait for the server to accept it",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return send(ctx, args[0], args[1], strings.Join(args[2:], " "))
	},
}

func send(ctx context.Context, orderID, recipientID, text string) error {
	c := *cfg
	c.Reconnect.Disabled = true
	client, err := newChatClient(ctx, &c)
	if err != nil {
		return err
	}
	defer client.Close()

	echoed := make(chan marketchat.Message, 1)
	client.OnMessage(func(m marketchat.Message) {
		if m.ConversationID == orderID && m.SenderID == c.User {
			select {
			case echoed <- m:
			default:
			}
		}
	})
	client.SetActiveConversation(orderID)

	if err := client.Connect(ctx); err != nil {
		return err
	}
	if err := client.SendMessage(ctx, text, recipientID, orderID); err != nil {
		return err
	}

	select {
	case m := <-echoed:
		fmt.Printf("sent %s\n", m.ID)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no echo from server: %w", ctx.Err())
	}
}
