package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/obs"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStoreDisabled = errors.New("result store disabled")
	// ErrRunAborted wraps failures that stop a batch before any domain is checked.
	ErrRunAborted = errors.New("run aborted")
)

type Options struct {
	StoreResults      bool
	SendEmail         bool
	TruncateBeforeRun bool
	// Concurrency bounds parallel evaluations; 1 checks domains strictly in order.
	Concurrency  int
	BatchTimeout time.Duration
}

// Report is everything one run produced.
type Report struct {
	Summary   status.RunSummary
	Results   []status.CheckResult
	Notified  bool
	NotifyErr error
	EventErr  error
}

type Runner struct {
	log      *zap.Logger
	eval     *Evaluator
	rec      *Reconciler
	notifier status.Notifier
	events   status.RunEvents
	clock    status.Clock
	opts     Options
}

// NewRunner wires the orchestrator. rec, notifier and events may be nil.
func NewRunner(
	log *zap.Logger,
	eval *Evaluator,
	rec *Reconciler,
	notifier status.Notifier,
	events status.RunEvents,
	clock status.Clock,
	opts Options,
) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = status.SystemClock{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{
		log:      log.With(zap.String("component", "status-checker.runner")),
		eval:     eval,
		rec:      rec,
		notifier: notifier,
		events:   events,
		clock:    clock,
		opts:     opts,
	}
}

// Run checks the domains in input order and notifies once all are done.
// Failures of single domains never abort the batch. A cancelled ctx stops
// the batch between domains; the partial report is returned with ctx's error
// and no notification is sent. Domains in flight at that moment are left out
// of the report and the store.
func (r *Runner) Run(ctx context.Context, domains ...string) (*Report, error) {
	if r.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.BatchTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	started := r.clock.Now()
	mRuns.Inc()

	tr := otel.Tracer("sitestatus.runner")
	ctx, span := tr.Start(ctx, "sitestatus.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.domains", len(domains)),
		attribute.Int("run.concurrency", r.opts.Concurrency),
	))
	defer span.End()

	log := obs.WithTrace(ctx, r.log).With(zap.String("run_id", runID))
	log.Info("run started", zap.Int("domains", len(domains)), zap.Int("concurrency", r.opts.Concurrency))

	if r.storing() && r.opts.TruncateBeforeRun {
		if err := r.rec.Truncate(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "truncate")
			return nil, fmt.Errorf("%w: truncate before run: %w", ErrRunAborted, err)
		}
		log.Info("stored results truncated")
	}

	results := make([]status.CheckResult, len(domains))
	done := make([]bool, len(domains))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, d := range domains {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i], done[i] = r.checkOne(ctx, tr, log, i, d)
			return nil
		})
	}
	_ = g.Wait()

	checked := make([]status.CheckResult, 0, len(domains))
	for i := range results {
		if done[i] {
			checked = append(checked, results[i])
		}
	}

	rep := &Report{Summary: status.Summarize(checked), Results: checked}
	rep.Summary.RunID = runID
	rep.Summary.StartedAt = started
	rep.Summary.FinishedAt = r.clock.Now()
	mRunDur.Observe(rep.Summary.FinishedAt.Sub(started).Seconds())

	span.SetAttributes(
		attribute.Int("run.ok", rep.Summary.OKCount),
		attribute.Int("run.issues", rep.Summary.IssueCount),
		attribute.Int("run.expired", rep.Summary.ExpiredCount),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		log.Warn("run cancelled", zap.Int("checked", len(checked)), zap.Int("domains", len(domains)), zap.Error(err))
		return rep, err
	}

	log.Info("run finished",
		zap.Int("total", rep.Summary.Total),
		zap.Int("ok", rep.Summary.OKCount),
		zap.Int("issues", rep.Summary.IssueCount),
		zap.Int("expired", rep.Summary.ExpiredCount),
		zap.Strings("problem_domains", rep.Summary.ProblemDomains),
		zap.Int("storage_errors", len(rep.Summary.StorageErrors)),
	)

	r.notify(ctx, log, rep)
	r.publish(ctx, log, rep)
	return rep, nil
}

// checkOne evaluates and stores one domain. It reports false when the batch
// ctx ended while the domain was in flight; such a result is not a verdict.
func (r *Runner) checkOne(ctx context.Context, tr trace.Tracer, log *zap.Logger, i int, domain string) (status.CheckResult, bool) {
	ctx, span := tr.Start(ctx, "sitestatus.check", trace.WithAttributes(
		attribute.Int("domain.index", i),
		attribute.String("domain.name", domain),
	))
	defer span.End()

	start := time.Now()
	res := r.eval.Evaluate(ctx, i, domain)
	mEvalDur.Observe(time.Since(start).Seconds())
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "abandoned")
		log.Debug("check abandoned", zap.String("domain", domain), zap.Error(err))
		return res, false
	}
	mChecked.WithLabelValues(string(res.Classification)).Inc()
	span.SetAttributes(attribute.String("domain.classification", string(res.Classification)))
	if res.HTTPStatus != nil {
		span.SetAttributes(attribute.Int("http.status_code", *res.HTTPStatus))
	}

	if r.storing() {
		ack, err := r.rec.Reconcile(ctx, res)
		if err != nil {
			res.StoreErr = err
			mStoreErrors.Inc()
			span.RecordError(err)
			log.Error("store result", zap.String("domain", domain), zap.Error(err))
		} else {
			log.Debug("result stored", zap.String("domain", domain), zap.String("action", string(ack.Action)))
		}
	}
	return res, true
}

func (r *Runner) notify(ctx context.Context, log *zap.Logger, rep *Report) {
	if !r.opts.SendEmail || r.notifier == nil {
		return
	}
	if err := r.notifier.Send(ctx, rep.Summary); err != nil {
		rep.NotifyErr = err
		mNotifications.WithLabelValues("error").Inc()
		log.Error("send summary", zap.Error(err))
		return
	}
	rep.Notified = true
	mNotifications.WithLabelValues("sent").Inc()
}

func (r *Runner) publish(ctx context.Context, log *zap.Logger, rep *Report) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishRunCompleted(ctx, rep.Summary); err != nil {
		rep.EventErr = err
		log.Warn("publish run event", zap.Error(err))
	}
}

// Results returns every stored row.
func (r *Runner) Results(ctx context.Context) ([]*status.Row, error) {
	if r.rec == nil {
		return nil, ErrStoreDisabled
	}
	return r.rec.ListAll(ctx)
}

func (r *Runner) storing() bool {
	return r.opts.StoreResults && r.rec != nil
}
