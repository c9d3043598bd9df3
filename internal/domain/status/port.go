package status

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Repo persists results keyed by website. Lookup returns ErrNotFound when no row exists.
type Repo interface {
	Lookup(ctx context.Context, website string) (*Row, error)
	Insert(ctx context.Context, row *Row) error
	Update(ctx context.Context, row *Row) error
	Truncate(ctx context.Context) error
	ListAll(ctx context.Context) ([]*Row, error)
}

type Notifier interface {
	Send(ctx context.Context, s RunSummary) error
}

type RunEvents interface {
	PublishRunCompleted(ctx context.Context, s RunSummary) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
