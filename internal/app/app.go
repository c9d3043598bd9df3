package app

import (
	"context"
	"fmt"

	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/obs/retry"
	outboxsvc "github.com/NordCoder/SiteStatus/internal/outbox"
	"github.com/NordCoder/SiteStatus/internal/repository/kafka"
	pg "github.com/NordCoder/SiteStatus/internal/repository/postgres"
	notifier "github.com/NordCoder/SiteStatus/internal/services/email-notifier"
	checker "github.com/NordCoder/SiteStatus/internal/services/status-checker"
	"go.uber.org/zap"
)

// App holds the wired batch runner and the resources it owns.
type App struct {
	Runner *checker.Runner
	Health func(context.Context) error
	// Outbox is set when run events go through the Postgres outbox.
	Outbox *outboxsvc.Runner

	closers []func()
}

// Build wires the runner from cfg. Disabled features are left out entirely.
func Build(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Health: func(context.Context) error { return nil }}

	var (
		rec *checker.Reconciler
		st  *store
	)
	if cfg.Store.Enabled {
		var err error
		st, err = openStore(ctx, cfg, l)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.close)
		a.Health = st.health
		rec = checker.NewReconciler(st.repo, st.tx)
		l.Info("result store ready", zap.String("backend", cfg.Store.Backend), zap.String("table", cfg.Store.Table))
	}

	var mailer status.Notifier
	if cfg.Email.Enabled {
		tr := notifier.SelectTransport(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			UseTLS:   cfg.SMTP.UseTLS,
			Timeout:  cfg.SMTP.Timeout,
		}, cfg.Sendmail.Path, l)
		mailer = notifier.New(notifier.Config{
			From:       cfg.Email.From,
			FromName:   cfg.Email.FromName,
			To:         cfg.Email.To,
			SubjPrefix: cfg.Email.SubjPrefix,
		}, tr, l)
		l.Info("email notifications enabled", zap.String("transport", tr.Name()), zap.String("to", cfg.Email.To))
	}

	var events status.RunEvents
	if cfg.Kafka.Enabled {
		prod := kafka.BootstrapProducer(ctx, cfg.Kafka, l)
		a.closers = append(a.closers, func() { _ = prod.Close() })
		if cfg.Outbox.Enabled && st != nil && st.pg != nil {
			repo := pg.NewOutboxRepo(st.pg)
			events = outboxsvc.Events{Repo: repo}
			a.Outbox = outboxsvc.NewOutboxRunner(l, repo,
				outboxsvc.MakeGlobalOutboxHandler(prod, retry.DefaultKafkaPolicy(l)),
				outboxsvc.Config{
					Workers:       cfg.Outbox.Workers,
					BatchSize:     cfg.Outbox.BatchSize,
					WaitTime:      cfg.Outbox.WaitTime,
					InProgressTTL: cfg.Outbox.InProgressTTL,
				})
			l.Info("run events via outbox", zap.String("topic", cfg.Kafka.Topic))
		} else {
			events = kafka.NewRunEvents(prod, retry.DefaultKafkaPolicy(l))
		}
	}

	eval := &checker.Evaluator{
		Prober: checker.HTTPProber{
			Client: checker.NewHTTPClient(checker.HTTPConfig{
				ConnectTimeout: cfg.Check.ConnectTimeout,
				RequestTimeout: cfg.Check.RequestTimeout,
			}),
			UserAgent: cfg.Check.UserAgent,
		},
		Inspector: checker.CertInspector{Timeout: cfg.Check.TLSTimeout, Port: cfg.Check.TLSPort},
		Clock:     status.SystemClock{},
		Log:       l.With(zap.String("component", "status-checker.evaluator")),
		CheckSSL:  cfg.Check.SSLExpiry,
		FailSafe:  cfg.Check.SSLFailSafe,
	}

	a.Runner = checker.NewRunner(l, eval, rec, mailer, events, status.SystemClock{}, checker.Options{
		StoreResults:      cfg.Store.Enabled,
		SendEmail:         cfg.Email.Enabled,
		TruncateBeforeRun: cfg.Store.TruncateBeforeRun,
		Concurrency:       cfg.Check.Concurrency,
		BatchTimeout:      cfg.Check.BatchTimeout,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wrap(backend string, err error) error {
	return fmt.Errorf("open %s store: %w", backend, err)
}
