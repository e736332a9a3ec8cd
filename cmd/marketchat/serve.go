package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat-sdk-go/internal/echoserver"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local messaging backend for development",
	Long: `Starts an in-process backend with a WebSocket endpoint at /ws and the
history API at /api/messages/order/{orderId}. Messages live in memory only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if log.GetLevel() < logrus.InfoLevel {
			log.SetLevel(logrus.InfoLevel)
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           echoserver.New(log).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.WithFields(logrus.Fields{"addr": addr}).Info("serving")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}
