package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// MySQLPlanRepository implements recovery plan persistence for MySQL. UUIDs
// are stored as BINARY(16).
type MySQLPlanRepository struct {
	db *sql.DB
}

// NewMySQLPlanRepository creates a new MySQLPlanRepository.
func NewMySQLPlanRepository(db *sql.DB) *MySQLPlanRepository {
	return &MySQLPlanRepository{db: db}
}

// Create inserts a new recovery plan.
func (r *MySQLPlanRepository) Create(ctx context.Context, plan *domain.RecoveryPlan) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recovery_plans
			  (id, owner_id, name, threshold, total_shares, waiting_period_days, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		plan.ID[:], plan.OwnerID[:], plan.Name, plan.Threshold, plan.TotalShares,
		plan.WaitingPeriodDays, string(plan.Status),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create recovery plan")
	}
	return nil
}

// GetByID retrieves a recovery plan by ID.
func (r *MySQLPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecoveryPlan, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, name, threshold, total_shares, waiting_period_days, status, triggered_at, completed_at, created_at, updated_at
			  FROM recovery_plans WHERE id = ?`

	plan, err := scanMySQLPlan(querier.QueryRowContext(ctx, query, id[:]))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get recovery plan")
	}
	return plan, nil
}

// ListByOwner retrieves an owner's plans, newest first.
func (r *MySQLPlanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, name, threshold, total_shares, waiting_period_days, status, triggered_at, completed_at, created_at, updated_at
			  FROM recovery_plans
			  WHERE owner_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, ownerID[:], limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list recovery plans")
	}
	defer func() {
		_ = rows.Close()
	}()

	plans := make([]*domain.RecoveryPlan, 0)
	for rows.Next() {
		plan, err := scanMySQLPlan(rows)
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
func (r *MySQLPlanRepository) UpdateStatus(ctx context.Context, plan *domain.RecoveryPlan, expected domain.PlanStatus) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE recovery_plans
			  SET status = ?, triggered_at = ?, completed_at = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		string(plan.Status), plan.TriggeredAt, plan.CompletedAt, plan.ID[:], string(expected),
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

// scanMySQLPlan scans a recovery plan row, decoding BINARY(16) UUIDs.
func scanMySQLPlan(scanner rowScanner) (*domain.RecoveryPlan, error) {
	var plan domain.RecoveryPlan
	var idBytes, ownerBytes []byte
	var status string

	err := scanner.Scan(
		&idBytes, &ownerBytes, &plan.Name, &plan.Threshold, &plan.TotalShares,
		&plan.WaitingPeriodDays, &status, &plan.TriggeredAt, &plan.CompletedAt,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if plan.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, err
	}
	if plan.OwnerID, err = uuid.FromBytes(ownerBytes); err != nil {
		return nil, err
	}

	plan.Status = domain.PlanStatus(status)
	return &plan, nil
}
