package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// MySQLBeneficiaryRepository implements beneficiary persistence for MySQL.
type MySQLBeneficiaryRepository struct {
	db *sql.DB
}

// NewMySQLBeneficiaryRepository creates a new MySQLBeneficiaryRepository.
func NewMySQLBeneficiaryRepository(db *sql.DB) *MySQLBeneficiaryRepository {
	return &MySQLBeneficiaryRepository{db: db}
}

// Create inserts a new beneficiary.
func (r *MySQLBeneficiaryRepository) Create(ctx context.Context, beneficiary *domain.Beneficiary) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO beneficiaries (id, plan_id, name, email, relationship, created_at)
			  VALUES (?, ?, ?, ?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query,
		beneficiary.ID[:], beneficiary.PlanID[:], beneficiary.Name, beneficiary.Email, beneficiary.Relationship,
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
func (r *MySQLBeneficiaryRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Beneficiary, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, relationship, created_at
			  FROM beneficiaries WHERE plan_id = ? ORDER BY id ASC`

	rows, err := querier.QueryContext(ctx, query, planID[:])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list beneficiaries")
	}
	defer func() {
		_ = rows.Close()
	}()

	beneficiaries := make([]*domain.Beneficiary, 0)
	for rows.Next() {
		var beneficiary domain.Beneficiary
		var idBytes, planBytes []byte
		err := rows.Scan(
			&idBytes, &planBytes, &beneficiary.Name,
			&beneficiary.Email, &beneficiary.Relationship, &beneficiary.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan beneficiary")
		}
		if beneficiary.ID, err = uuid.FromBytes(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal beneficiary id")
		}
		if beneficiary.PlanID, err = uuid.FromBytes(planBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal plan id")
		}
		beneficiaries = append(beneficiaries, &beneficiary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate beneficiaries")
	}
	return beneficiaries, nil
}

// MySQLCoveredItemRepository implements covered item persistence for MySQL.
type MySQLCoveredItemRepository struct {
	db *sql.DB
}

// NewMySQLCoveredItemRepository creates a new MySQLCoveredItemRepository.
func NewMySQLCoveredItemRepository(db *sql.DB) *MySQLCoveredItemRepository {
	return &MySQLCoveredItemRepository{db: db}
}

// Create links a vault item to a plan. Covering the same item twice is a
// no-op, keeping CoverItem idempotent.
func (r *MySQLCoveredItemRepository) Create(ctx context.Context, item *domain.CoveredItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO covered_items (plan_id, item_id, created_at)
			  VALUES (?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query, item.PlanID[:], item.ItemID[:])
	if err != nil {
		return apperrors.Wrap(err, "failed to create covered item")
	}
	return nil
}

// ListByPlan retrieves the items covered by a plan.
func (r *MySQLCoveredItemRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.CoveredItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT plan_id, item_id, created_at
			  FROM covered_items WHERE plan_id = ? ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, planID[:])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list covered items")
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*domain.CoveredItem, 0)
	for rows.Next() {
		var item domain.CoveredItem
		var planBytes, itemBytes []byte
		if err := rows.Scan(&planBytes, &itemBytes, &item.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan covered item")
		}
		if item.PlanID, err = uuid.FromBytes(planBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal plan id")
		}
		if item.ItemID, err = uuid.FromBytes(itemBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal item id")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate covered items")
	}
	return items, nil
}
