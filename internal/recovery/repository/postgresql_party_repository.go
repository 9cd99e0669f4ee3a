package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// PostgreSQLBeneficiaryRepository implements beneficiary persistence for PostgreSQL.
type PostgreSQLBeneficiaryRepository struct {
	db *sql.DB
}

// NewPostgreSQLBeneficiaryRepository creates a new PostgreSQLBeneficiaryRepository.
func NewPostgreSQLBeneficiaryRepository(db *sql.DB) *PostgreSQLBeneficiaryRepository {
	return &PostgreSQLBeneficiaryRepository{db: db}
}

// Create inserts a new beneficiary.
func (r *PostgreSQLBeneficiaryRepository) Create(ctx context.Context, beneficiary *domain.Beneficiary) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO beneficiaries (id, plan_id, name, email, relationship, created_at)
			  VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := querier.ExecContext(ctx, query,
		beneficiary.ID, beneficiary.PlanID, beneficiary.Name, beneficiary.Email, beneficiary.Relationship,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrBeneficiaryAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create beneficiary")
	}
	return nil
}

// ListByPlan retrieves a plan's beneficiaries.
func (r *PostgreSQLBeneficiaryRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Beneficiary, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, relationship, created_at
			  FROM beneficiaries WHERE plan_id = $1 ORDER BY id ASC`

	rows, err := querier.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list beneficiaries")
	}
	defer func() {
		_ = rows.Close()
	}()

	beneficiaries := make([]*domain.Beneficiary, 0)
	for rows.Next() {
		var beneficiary domain.Beneficiary
		err := rows.Scan(
			&beneficiary.ID, &beneficiary.PlanID, &beneficiary.Name,
			&beneficiary.Email, &beneficiary.Relationship, &beneficiary.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan beneficiary")
		}
		beneficiaries = append(beneficiaries, &beneficiary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate beneficiaries")
	}
	return beneficiaries, nil
}

// PostgreSQLCoveredItemRepository implements covered item persistence for PostgreSQL.
type PostgreSQLCoveredItemRepository struct {
	db *sql.DB
}

// NewPostgreSQLCoveredItemRepository creates a new PostgreSQLCoveredItemRepository.
func NewPostgreSQLCoveredItemRepository(db *sql.DB) *PostgreSQLCoveredItemRepository {
	return &PostgreSQLCoveredItemRepository{db: db}
}

// Create links a vault item to a plan. Covering the same item twice is a
// no-op, keeping CoverItem idempotent.
func (r *PostgreSQLCoveredItemRepository) Create(ctx context.Context, item *domain.CoveredItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO covered_items (plan_id, item_id, created_at)
			  VALUES ($1, $2, NOW())
			  ON CONFLICT (plan_id, item_id) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, item.PlanID, item.ItemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create covered item")
	}
	return nil
}

// ListByPlan retrieves the items covered by a plan.
func (r *PostgreSQLCoveredItemRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.CoveredItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT plan_id, item_id, created_at
			  FROM covered_items WHERE plan_id = $1 ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list covered items")
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*domain.CoveredItem, 0)
	for rows.Next() {
		var item domain.CoveredItem
		if err := rows.Scan(&item.PlanID, &item.ItemID, &item.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan covered item")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate covered items")
	}
	return items, nil
}
