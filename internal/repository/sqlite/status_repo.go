package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
)

var _ status.Repo = (*StatusRepo)(nil)

type StatusRepo struct {
	db    *sql.DB
	table string
}

func NewStatusRepo(db *sql.DB, table string) *StatusRepo {
	if table == "" {
		table = DefaultTable
	}
	return &StatusRepo{db: db, table: quoteIdent(table)}
}

func (r *StatusRepo) q(format string) string { return fmt.Sprintf(format, r.table) }

func (r *StatusRepo) Lookup(ctx context.Context, website string) (*status.Row, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT id, website, status, ssl_expiry
		FROM %s
		WHERE website = ?
		ORDER BY id
		LIMIT 1
	`), website)
	res, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	return res, err
}

func (r *StatusRepo) Insert(ctx context.Context, row *status.Row) error {
	res, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO %s(website, status, ssl_expiry)
		VALUES(?, ?, ?)
	`), row.Website, row.Status, formatTime(row.SSLExpiry))
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert status id: %w", err)
	}
	row.ID = id
	return nil
}

func (r *StatusRepo) Update(ctx context.Context, row *status.Row) error {
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE %s SET status = ?, ssl_expiry = ?
		WHERE id = ?
	`), row.Status, formatTime(row.SSLExpiry), row.ID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("update status %q: %w", row.Website, status.ErrNotFound)
	}
	return nil
}

// Truncate empties the table; sqlite has no TRUNCATE statement.
func (r *StatusRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM %s`)); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func (r *StatusRepo) ListAll(ctx context.Context) ([]*status.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, website, status, ssl_expiry
		FROM %s
		ORDER BY id
	`))
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	defer rows.Close()

	var out []*status.Row
	for rows.Next() {
		res, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*status.Row, error) {
	var (
		row    status.Row
		expiry sql.NullString
	)
	if err := s.Scan(&row.ID, &row.Website, &row.Status, &expiry); err != nil {
		return nil, err
	}
	if expiry.Valid && expiry.String != "" {
		t, err := time.Parse(time.RFC3339Nano, expiry.String)
		if err != nil {
			return nil, fmt.Errorf("parse ssl_expiry %q: %w", expiry.String, err)
		}
		row.SSLExpiry = &t
	}
	return &row, nil
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
