package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/obs/retry"
)

type publisher interface {
	PublishJSON(ctx context.Context, key []byte, v any) error
}

// RunEvents publishes one message per finished run, keyed by run id.
type RunEvents struct {
	p      publisher
	policy retry.Policy
}

func NewRunEvents(p *Producer, policy retry.Policy) *RunEvents {
	return &RunEvents{p: p, policy: policy}
}

var _ status.RunEvents = (*RunEvents)(nil)

type RunCompleted struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Total          int       `json:"total"`
	OK             int       `json:"ok"`
	Issues         int       `json:"issues"`
	Expired        int       `json:"expired"`
	ProblemDomains []string  `json:"problem_domains"`
	StorageErrors  int       `json:"storage_errors"`
}

func NewRunCompleted(s status.RunSummary) RunCompleted {
	problems := s.ProblemDomains
	if problems == nil {
		problems = []string{}
	}
	return RunCompleted{
		RunID:          s.RunID,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		Total:          s.Total,
		OK:             s.OKCount,
		Issues:         s.IssueCount,
		Expired:        s.ExpiredCount,
		ProblemDomains: problems,
		StorageErrors:  len(s.StorageErrors),
	}
}

func (e *RunEvents) PublishRunCompleted(ctx context.Context, s status.RunSummary) error {
	ev := NewRunCompleted(s)
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, []byte(ev.RunID), ev)
	}, e.policy)
}
