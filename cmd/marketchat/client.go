package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
	"github.com/vovakirdan/marketchat-sdk-go/marketchat/logging"
	"github.com/vovakirdan/marketchat-sdk-go/marketchat/promstats"
	"github.com/vovakirdan/marketchat-sdk-go/marketchat/rest"
)

func newRESTClient(c *cliConfig) *rest.Client {
	api := rest.NewClient(c.API)
	api.SetToken(c.Token)
	return api
}

// newChatClient wires logging, notifications, history and, when an address
// is configured, a Prometheus endpoint into a client for the configured session.
func newChatClient(ctx context.Context, c *cliConfig) (*marketchat.Client, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	client := marketchat.NewClient(c.clientConfig(), c.session())
	client.SetLogger(logging.NewLogrus(log))
	client.SetHistorySource(newRESTClient(c))
	client.SetNotifier(marketchat.NotifierFunc(printNotification))

	if c.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := promstats.New(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		client.SetMetrics(collector)
		serveMetrics(ctx, c.MetricsAddr, reg)
	}
	return client, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithFields(logrus.Fields{"addr": addr, "error": err.Error()}).Error("metrics server stopped")
		}
	}()
}

func printNotification(n marketchat.Notification) {
	switch n.Level {
	case marketchat.NotifyFatal:
		fmt.Fprintf(os.Stderr, "!! %s\n", n.Text)
	case marketchat.NotifyError:
		fmt.Fprintf(os.Stderr, "! %s\n", n.Text)
	default:
		fmt.Fprintf(os.Stderr, "* %s (%s)\n", n.Text, n.Link)
	}
}
