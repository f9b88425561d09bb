package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAppealRepository struct {
	BaseRepository
}

// newPgxAppealRepository creates a new repository for appeal data.
func newPgxAppealRepository(pool *pgxpool.Pool) *PgxAppealRepository {
	return &PgxAppealRepository{BaseRepository{Pool: pool}}
}

// Ensure PgxAppealRepository implements ports.AppealRepository
var _ ports.AppealRepository = (*PgxAppealRepository)(nil)

const appealColumns = `appeal_id, account_id, justification, status, created_at, reviewed_at, reviewed_by`

func scanAppeal(row pgx.Row) (domain.Appeal, error) {
	var appeal domain.Appeal
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullString
	err := row.Scan(
		&appeal.AppealID,
		&appeal.AccountID,
		&appeal.Justification,
		&appeal.Status,
		&appeal.CreatedAt,
		&reviewedAt,
		&reviewedBy,
	)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		appeal.ReviewedAt = &t
	}
	if reviewedBy.Valid {
		appeal.ReviewedBy = reviewedBy.String
	}
	return appeal, err
}

// SaveAppeal inserts a new appeal.
func (r *PgxAppealRepository) SaveAppeal(ctx context.Context, appeal domain.Appeal) error {
	query := `
		INSERT INTO appeals (appeal_id, account_id, justification, status, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query,
		appeal.AppealID,
		appeal.AccountID,
		appeal.Justification,
		appeal.Status,
		appeal.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: appeal %s already exists", apperrors.ErrDuplicate, appeal.AppealID)
		}
		return fmt.Errorf("failed to save appeal %s: %w", appeal.AppealID, err)
	}
	return nil
}

// FindAppealsByAccount returns the account's appeal history, newest first.
func (r *PgxAppealRepository) FindAppealsByAccount(ctx context.Context, accountID string) ([]domain.Appeal, error) {
	query := `
		SELECT ` + appealColumns + ` FROM appeals
		WHERE account_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appeals for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var appeals []domain.Appeal
	for rows.Next() {
		appeal, err := scanAppeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appeal row: %w", err)
		}
		appeals = append(appeals, appeal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appeal rows: %w", err)
	}
	return appeals, nil
}

// FindPendingAppealByAccount returns ErrNotFound when the account has no
// PENDING appeal.
func (r *PgxAppealRepository) FindPendingAppealByAccount(ctx context.Context, accountID string) (*domain.Appeal, error) {
	query := `
		SELECT ` + appealColumns + ` FROM appeals
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1;
	`
	appeal, err := scanAppeal(r.Pool.QueryRow(ctx, query, accountID, domain.AppealPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no pending appeal for account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find pending appeal for account %s: %w", accountID, err)
	}
	return &appeal, nil
}

// ResolveAppeal moves a PENDING appeal to a terminal status and stamps the
// review. The status guard lives in the WHERE clause so a concurrent
// resolution loses cleanly.
func (r *PgxAppealRepository) ResolveAppeal(ctx context.Context, appealID string, status domain.AppealStatus, reviewedBy string, reviewedAt time.Time) error {
	query := `
		UPDATE appeals SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE appeal_id = $4 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, status, reviewedBy, reviewedAt, appealID, domain.AppealPending)
	if err != nil {
		return fmt.Errorf("failed to resolve appeal %s: %w", appealID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM appeals WHERE appeal_id = $1);`, appealID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check appeal %s: %w", appealID, err)
		}
		if !exists {
			return fmt.Errorf("%w: appeal %s", apperrors.ErrNotFound, appealID)
		}
		return fmt.Errorf("%w: appeal %s is not pending", apperrors.ErrInvalidState, appealID)
	}
	return nil
}
