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

// PostgreSQLTrusteeRepository implements trustee persistence for PostgreSQL.
// Sealed share ciphertext lives in BYTEA columns; this layer can store and
// return it but never holds the key material to open it.
type PostgreSQLTrusteeRepository struct {
	db *sql.DB
}

// NewPostgreSQLTrusteeRepository creates a new PostgreSQLTrusteeRepository.
func NewPostgreSQLTrusteeRepository(db *sql.DB) *PostgreSQLTrusteeRepository {
	return &PostgreSQLTrusteeRepository{db: db}
}

// Create inserts a new trustee. Share index and email collisions within a
// plan surface as distinct conflict errors.
func (r *PostgreSQLTrusteeRepository) Create(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO trustees
			  (id, plan_id, name, email, share_index, has_approved, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		trustee.ID, trustee.PlanID, trustee.Name, trustee.Email, trustee.ShareIndex,
	)
	if err != nil {
		if isUniqueViolation(err, "share_index") {
			return domain.ErrShareIndexTaken
		}
		if isUniqueViolation(err, "") {
			return domain.ErrTrusteeAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create trustee")
	}
	return nil
}

// GetByPlanAndIndex retrieves the trustee holding a share index.
func (r *PostgreSQLTrusteeRepository) GetByPlanAndIndex(ctx context.Context, planID uuid.UUID, shareIndex int) (*domain.Trustee, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, share_index, encrypted_share, share_nonce, has_approved, approved_at, created_at, updated_at
			  FROM trustees WHERE plan_id = $1 AND share_index = $2`

	trustee, err := scanTrustee(querier.QueryRowContext(ctx, query, planID, shareIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTrusteeNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get trustee")
	}
	return trustee, nil
}

// ListByPlan retrieves a plan's trustees ordered by share index.
func (r *PostgreSQLTrusteeRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Trustee, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, share_index, encrypted_share, share_nonce, has_approved, approved_at, created_at, updated_at
			  FROM trustees WHERE plan_id = $1 ORDER BY share_index ASC`

	rows, err := querier.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list trustees")
	}
	defer func() {
		_ = rows.Close()
	}()

	trustees := make([]*domain.Trustee, 0)
	for rows.Next() {
		trustee, err := scanTrustee(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan trustee")
		}
		trustees = append(trustees, trustee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate trustees")
	}
	return trustees, nil
}

// UpdateShare persists a trustee's sealed share.
func (r *PostgreSQLTrusteeRepository) UpdateShare(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE trustees
			  SET encrypted_share = $1, share_nonce = $2, updated_at = NOW()
			  WHERE id = $3`

	if err := execExpectingRow(ctx, querier, query, trustee.EncryptedShare, trustee.ShareNonce, trustee.ID); err != nil {
		return err
	}
	return nil
}

// UpdateApproval persists a trustee's approval flag and timestamp.
func (r *PostgreSQLTrusteeRepository) UpdateApproval(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE trustees
			  SET has_approved = $1, approved_at = $2, updated_at = NOW()
			  WHERE id = $3`

	if err := execExpectingRow(ctx, querier, query, trustee.HasApproved, trustee.ApprovedAt, trustee.ID); err != nil {
		return err
	}
	return nil
}

// execExpectingRow runs an update that must affect exactly one trustee row.
func execExpectingRow(ctx context.Context, querier database.Querier, query string, args ...any) error {
	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update trustee")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrTrusteeNotFound
	}
	return nil
}

// scanTrustee scans a trustee row from either *sql.Row or *sql.Rows.
func scanTrustee(scanner rowScanner) (*domain.Trustee, error) {
	var trustee domain.Trustee

	err := scanner.Scan(
		&trustee.ID, &trustee.PlanID, &trustee.Name, &trustee.Email, &trustee.ShareIndex,
		&trustee.EncryptedShare, &trustee.ShareNonce, &trustee.HasApproved, &trustee.ApprovedAt,
		&trustee.CreatedAt, &trustee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trustee, nil
}
