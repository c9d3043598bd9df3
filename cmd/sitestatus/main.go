package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NordCoder/SiteStatus/internal/app"
	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	checker "github.com/NordCoder/SiteStatus/internal/services/status-checker"
	"github.com/NordCoder/SiteStatus/internal/obs"
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
	defer func() { _ = l.Sync() }()

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

	domains := flag.Args()
	if len(domains) == 0 {
		domains = cfg.Domains
	}
	if len(domains) == 0 {
		l.Warn("no domains given")
	}

	// run
	rep, err := a.Runner.Run(ctx, domains...)
	if errors.Is(err, checker.ErrRunAborted) {
		a.Close()
		l.Fatal("run aborted before checks", zap.Error(err))
	}

	if a.Outbox != nil {
		a.Outbox.Drain(ctx)
	}

	for _, r := range rep.Results {
		l.Info("domain",
			zap.String("domain", r.Domain),
			zap.String("classification", string(r.Classification)),
			zap.Int("status", r.StatusCode()),
			zap.Timep("ssl_expiry", r.SSLExpiry()),
		)
	}
	l.Info("summary",
		zap.Int("total", rep.Summary.Total),
		zap.Int("ok", rep.Summary.OKCount),
		zap.Int("issues", rep.Summary.IssueCount),
		zap.Int("expired", rep.Summary.ExpiredCount),
		zap.Strings("problem_domains", rep.Summary.ProblemDomains),
		zap.Bool("notified", rep.Notified),
	)
}
