package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// websiteLocker is implemented by stores that can lock a key inside a transaction.
type websiteLocker interface {
	LockWebsite(ctx context.Context, website string) error
}

// Reconciler keeps at most one stored row per website: an existing row is
// updated in place, otherwise a new one is inserted.
type Reconciler struct {
	repo  status.Repo
	tx    Transactor
	locks keyedMutex
}

func NewReconciler(repo status.Repo, tx Transactor) *Reconciler {
	if tx == nil {
		tx = noTx{}
	}
	return &Reconciler{repo: repo, tx: tx}
}

func (r *Reconciler) Reconcile(ctx context.Context, res status.CheckResult) (status.Ack, error) {
	unlock := r.locks.Lock(res.Domain)
	defer unlock()

	ack := status.Ack{Website: res.Domain}
	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		if l, ok := r.repo.(websiteLocker); ok {
			if err := l.LockWebsite(ctx, res.Domain); err != nil {
				return err
			}
		}

		row, err := r.repo.Lookup(ctx, res.Domain)
		switch {
		case errors.Is(err, status.ErrNotFound):
			ack.Action = status.ActionInserted
			return r.repo.Insert(ctx, &status.Row{
				Website:   res.Domain,
				Status:    res.StatusCode(),
				SSLExpiry: res.SSLExpiry(),
			})
		case err != nil:
			return fmt.Errorf("lookup: %w", err)
		}

		row.Status = res.StatusCode()
		row.SSLExpiry = res.SSLExpiry()
		ack.Action = status.ActionUpdated
		return r.repo.Update(ctx, row)
	})
	if err != nil {
		return status.Ack{Website: res.Domain}, fmt.Errorf("reconcile %s: %w", res.Domain, err)
	}
	return ack, nil
}

// Truncate drops every stored row. It is a separate pre-run step, never part
// of per-domain reconciliation.
func (r *Reconciler) Truncate(ctx context.Context) error {
	return r.repo.Truncate(ctx)
}

func (r *Reconciler) ListAll(ctx context.Context) ([]*status.Row, error) {
	return r.repo.ListAll(ctx)
}
