package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxbridge/luxbridge/pkg/common"
	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/metrics"
	"github.com/luxbridge/luxbridge/pkg/monitor"
	"github.com/luxbridge/luxbridge/pkg/poller"
	"github.com/luxbridge/luxbridge/pkg/publish"
	"github.com/luxbridge/luxbridge/pkg/server"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	m := monitor.Configured()
	c := metrics.NewCollector()
	pub := publish.Configured()
	p := poller.Configured(m, c, pub)

	// init server
	srv := server.Configured(m, c)

	// parse flags
	lflag.Configure()
	log.SetLevelFromFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Ctx(ctx).InfoContext(ctx, "starting luxbridge", slog.String("version", common.Version()))

	if err := p.Start(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to start poller", "error", err)
		os.Exit(1)
	}
	defer p.Stop()
	defer pub.Close()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
