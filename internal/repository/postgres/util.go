package postgres

import (
	"errors"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = status.ErrNotFound

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
