package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

var watchCmd = &cobra.Command{
	Use:   "watch [order-id]",
	Short: "Stream incoming messages until interrupted",
	Long: `Connects with the configured session and prints every message as it
arrives. With an order id the conversation is treated as open: its history
is loaded first and its messages raise no notifications.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			cfg.MetricsAddr = addr
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		var open string
		if len(args) == 1 {
			open = args[0]
		}
		return watch(ctx, open)
	},
}

func watch(ctx context.Context, open string) error {
	client, err := newChatClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.OnMessage(func(m marketchat.Message) {
		fmt.Printf("%s  %s\n", m.ConversationID, formatMessage(m, time.Now()))
	})
	client.OnTyping(func(s marketchat.TypingState) {
		if len(s.UserIDs) > 0 {
			fmt.Printf("%s  %s typing...\n", s.ConversationID, strings.Join(s.UserIDs, ", "))
		}
	})
	client.OnStateChanged(func(ev marketchat.StateEvent) {
		fmt.Fprintf(os.Stderr, "-- %s\n", ev.NewState)
	})

	if open != "" {
		client.SetActiveConversation(open)
		if _, err := client.LoadHistory(ctx, open); err != nil {
			fmt.Fprintf(os.Stderr, "history unavailable: %v\n", err)
		}
		for _, m := range client.Messages(open) {
			fmt.Printf("%s  %s\n", open, formatMessage(m, time.Now()))
		}
	}

	if err := client.Connect(ctx); err != nil && !marketchat.IsConnectionError(err) {
		return err
	}
	<-ctx.Done()
	return nil
}
