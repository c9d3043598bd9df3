package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/jackc/pgx/v5"
)

var _ status.Repo = (*StatusRepoImpl)(nil)

const DefaultTable = "site_status"

type StatusRepoImpl struct {
	db    *DB
	table string
}

func NewStatusRepo(db *DB, table string) *StatusRepoImpl {
	if table == "" {
		table = DefaultTable
	}
	return &StatusRepoImpl{db: db, table: pgx.Identifier{table}.Sanitize()}
}

func (r *StatusRepoImpl) q(format string) string { return fmt.Sprintf(format, r.table) }

func (r *StatusRepoImpl) Lookup(ctx context.Context, website string) (*status.Row, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := r.q(`
SELECT id, website, status, ssl_expiry
FROM %s
WHERE website = $1
ORDER BY id
LIMIT 1;`)

	var row status.Row
	err := r.db.execQueryer(ctx).QueryRow(ctx, q, website).
		Scan(&row.ID, &row.Website, &row.Status, &row.SSLExpiry)
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (r *StatusRepoImpl) Insert(ctx context.Context, row *status.Row) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := r.q(`
INSERT INTO %s (website, status, ssl_expiry)
VALUES ($1, $2, $3)
RETURNING id;`)

	if err := r.db.execQueryer(ctx).QueryRow(ctx, q,
		row.Website, row.Status, nullTime(row.SSLExpiry),
	).Scan(&row.ID); err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

func (r *StatusRepoImpl) Update(ctx context.Context, row *status.Row) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := r.q(`
UPDATE %s
SET status = $2, ssl_expiry = $3
WHERE id = $1;`)

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, q, row.ID, row.Status, nullTime(row.SSLExpiry))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("update status %q: %w", row.Website, ErrNotFound)
	}
	return nil
}

func (r *StatusRepoImpl) Truncate(ctx context.Context) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, r.q(`TRUNCATE TABLE %s;`)); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func (r *StatusRepoImpl) ListAll(ctx context.Context) ([]*status.Row, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, r.q(`
SELECT id, website, status, ssl_expiry
FROM %s
ORDER BY id;`))
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	defer rows.Close()

	var out []*status.Row
	for rows.Next() {
		var row status.Row
		if err := rows.Scan(&row.ID, &row.Website, &row.Status, &row.SSLExpiry); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// LockWebsite takes a transaction-scoped advisory lock on the website key.
// Outside a transaction it is a no-op.
func (r *StatusRepoImpl) LockWebsite(ctx context.Context, website string) error {
	tx, err := extractTx(ctx)
	if err != nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, r.table+":"+website); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}
