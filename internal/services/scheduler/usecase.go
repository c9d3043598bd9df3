package scheduler

import (
	"context"

	checker "github.com/NordCoder/SiteStatus/internal/services/status-checker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type BatchRunner interface {
	Run(ctx context.Context, domains ...string) (*checker.Report, error)
}

// Usecase runs one full batch over the configured domains.
type Usecase struct {
	Batch   BatchRunner
	Domains []string
}

func NewUC(batch BatchRunner, domains []string) *Usecase {
	return &Usecase{Batch: batch, Domains: domains}
}

func (u *Usecase) Tick(ctx context.Context) (*checker.Report, error) {
	tr := otel.Tracer("scheduler.uc")
	ctx, span := tr.Start(ctx, "scheduler.tick",
		trace.WithAttributes(attribute.Int("batch.domains", len(u.Domains))),
	)
	defer span.End()

	rep, err := u.Batch.Run(ctx, u.Domains...)
	if err != nil {
		span.RecordError(err)
		return rep, err
	}
	span.SetAttributes(
		attribute.Int("batch.problems", len(rep.Summary.ProblemDomains)),
		attribute.Bool("batch.notified", rep.Notified),
	)
	return rep, nil
}
