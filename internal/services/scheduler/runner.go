package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	Cron       string
	RunOnStart bool
}

var (
	mTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_ticks_total", Help: "Scheduled batches started",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_errors_total", Help: "Scheduled batches that returned an error",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "scheduler_tick_duration_seconds", Help: "Scheduled batch duration",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)

// Runner fires the batch on a cron schedule. Overlapping ticks are skipped.
type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg Config
}

func New(log *zap.Logger, uc *Usecase, cfg Config) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Log: log.With(zap.String("component", "scheduler")), UC: uc, Cfg: cfg}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	mTicks.Inc()
	rep, err := r.UC.Tick(ctx)
	mLoopDur.Observe(time.Since(start).Seconds())
	if err != nil {
		mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
		return
	}
	r.Log.Info("scheduled batch done",
		zap.String("run_id", rep.Summary.RunID),
		zap.Int("total", rep.Summary.Total),
		zap.Int("problems", len(rep.Summary.ProblemDomains)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Run blocks until ctx is done, then waits for a running batch to finish.
func (r *Runner) Run(ctx context.Context) error {
	clog := cronLogger{l: r.Log.Sugar()}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	if _, err := c.AddFunc(r.Cfg.Cron, func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", r.Cfg.Cron, err)
	}

	if r.Cfg.RunOnStart {
		r.tick(ctx)
	}
	c.Start()
	r.Log.Info("schedule armed", zap.String("cron", r.Cfg.Cron))

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Debugw(msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Errorw(msg, append(kv, "error", err)...)
}
