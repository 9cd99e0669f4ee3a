// Package repository implements recovery plan persistence for PostgreSQL and MySQL.
//
// Plans are never deleted; lifecycle changes go through UpdateStatus, which is
// conditioned on the expected current status so concurrent transitions apply
// exactly once. The share-index and email uniqueness invariants live in the
// schema and surface here as conflict errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// PostgreSQLPlanRepository implements recovery plan persistence for PostgreSQL.
type PostgreSQLPlanRepository struct {
	db *sql.DB
}

// NewPostgreSQLPlanRepository creates a new PostgreSQLPlanRepository.
func NewPostgreSQLPlanRepository(db *sql.DB) *PostgreSQLPlanRepository {
	return &PostgreSQLPlanRepository{db: db}
}

// Create inserts a new recovery plan.
func (r *PostgreSQLPlanRepository) Create(ctx context.Context, plan *domain.RecoveryPlan) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recovery_plans
			  (id, owner_id, name, threshold, total_shares, waiting_period_days, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		plan.ID, plan.OwnerID, plan.Name, plan.Threshold, plan.TotalShares,
		plan.WaitingPeriodDays, string(plan.Status),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create recovery plan")
	}
	return nil
}

// GetByID retrieves a recovery plan by ID.
func (r *PostgreSQLPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecoveryPlan, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, name, threshold, total_shares, waiting_period_days, status, triggered_at, completed_at, created_at, updated_at
			  FROM recovery_plans WHERE id = $1`

	plan, err := scanPlan(querier.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get recovery plan")
	}
	return plan, nil
}

// ListByOwner retrieves an owner's plans, newest first.
func (r *PostgreSQLPlanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, name, threshold, total_shares, waiting_period_days, status, triggered_at, completed_at, created_at, updated_at
			  FROM recovery_plans
			  WHERE owner_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list recovery plans")
	}
	defer func() {
		_ = rows.Close()
	}()

	plans := make([]*domain.RecoveryPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recovery plan")
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate recovery plans")
	}
	return plans, nil
}

// UpdateStatus persists the plan's status and transition timestamps only when
// the stored status still equals expected. A zero-row update means another
// caller transitioned first and surfaces as ErrPlanNotFound.
func (r *PostgreSQLPlanRepository) UpdateStatus(ctx context.Context, plan *domain.RecoveryPlan, expected domain.PlanStatus) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE recovery_plans
			  SET status = $1, triggered_at = $2, completed_at = $3, updated_at = NOW()
			  WHERE id = $4 AND status = $5`

	result, err := querier.ExecContext(ctx, query,
		string(plan.Status), plan.TriggeredAt, plan.CompletedAt, plan.ID, string(expected),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update recovery plan status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

// scanPlan scans a recovery plan row from either *sql.Row or *sql.Rows.
func scanPlan(scanner rowScanner) (*domain.RecoveryPlan, error) {
	var plan domain.RecoveryPlan
	var status string

	err := scanner.Scan(
		&plan.ID, &plan.OwnerID, &plan.Name, &plan.Threshold, &plan.TotalShares,
		&plan.WaitingPeriodDays, &status, &plan.TriggeredAt, &plan.CompletedAt,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Status = domain.PlanStatus(status)
	return &plan, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a unique constraint violation for
// either driver, optionally narrowed to a constraint whose name contains hint.
func isUniqueViolation(err error, hint string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	unique := strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "1062")
	if !unique {
		return false
	}
	if hint == "" {
		return true
	}
	return strings.Contains(msg, hint)
}
