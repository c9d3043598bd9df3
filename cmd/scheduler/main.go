package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NordCoder/SiteStatus/internal/app"
	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	"github.com/NordCoder/SiteStatus/internal/obs"
	"github.com/NordCoder/SiteStatus/internal/services/scheduler"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.StringP("config", "c", "config/sitestatus.yaml", "path to the YAML config")
	flag.Parse()

	// init
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting scheduler",
		zap.String("cron", cfg.Schedule.Cron),
		zap.Int("domains", len(cfg.Domains)),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, &cfg.OTEL)
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// wiring
	a, err := app.Build(ctx, cfg, l)
	if err != nil {
		l.Fatal("bootstrap", zap.Error(err))
	}
	defer a.Close()

	// run metrics server
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, a.Health, l)

	runner := scheduler.New(l, scheduler.NewUC(a.Runner, cfg.Domains), scheduler.Config{
		Cron:       cfg.Schedule.Cron,
		RunOnStart: cfg.Schedule.RunOnStart,
	})

	// run
	outboxDone := make(chan struct{})
	if a.Outbox != nil {
		go func() { a.Outbox.Run(ctx); close(outboxDone) }()
	} else {
		close(outboxDone)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	// loop
	select {
	case <-ctx.Done():
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("scheduler error", zap.Error(err))
	}

	// graceful shutdown
	stop()
	<-outboxDone
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
