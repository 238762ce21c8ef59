// Package repo provides clone-job ledger implementations. The ledger exists
// for observability; the pipeline never depends on reading it back.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"siteclone/internal/domain"
)

// DB is the slice of the pgx pool interface the repository needs; tests stub
// it without a live database.
type DB interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// CloneJobRepositoryPG implements domain.CloneJobRepository on PostgreSQL.
type CloneJobRepositoryPG struct {
	db DB
}

// NewCloneJobRepository creates a ledger backed by PostgreSQL.
func NewCloneJobRepository(db DB) *CloneJobRepositoryPG {
	return &CloneJobRepositoryPG{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (r *CloneJobRepositoryPG) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS clone_jobs (
    id           TEXT PRIMARY KEY,
    source_url   TEXT NOT NULL,
    status       TEXT NOT NULL,
    output_dir   TEXT NOT NULL DEFAULT '',
    error_detail TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);
`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure clone_jobs schema: %w", err)
	}
	return nil
}

// Create inserts a new job record.
func (r *CloneJobRepositoryPG) Create(ctx context.Context, job *domain.CloneJob) error {
	query := `
INSERT INTO clone_jobs (id, source_url, status, output_dir, error_detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.SourceURL,
		job.Status,
		job.OutputDir,
		job.ErrorDetail,
		job.CreatedAt,
	)
	return err
}

// UpdateStatus advances a job's status. Terminal statuses also stamp
// completed_at.
func (r *CloneJobRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.CloneStatus, errDetail, outputDir string) error {
	query := `
UPDATE clone_jobs
SET status = $2,
    error_detail = $3,
    output_dir = $4,
    completed_at = CASE WHEN $2 IN ('complete', 'failed') THEN NOW() ELSE completed_at END
WHERE id = $1;
`
	_, err := r.db.Exec(ctx, query, id, status, errDetail, outputDir)
	return err
}

// GetByID fetches a job by its identifier.
func (r *CloneJobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.CloneJob, error) {
	query := `
SELECT id, source_url, status, output_dir, error_detail, created_at, completed_at
FROM clone_jobs
WHERE id = $1;
`
	var job domain.CloneJob
	var completedAt sql.NullTime
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.SourceURL,
		&job.Status,
		&job.OutputDir,
		&job.ErrorDetail,
		&job.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}
	return &job, nil
}

var _ domain.CloneJobRepository = (*CloneJobRepositoryPG)(nil)
