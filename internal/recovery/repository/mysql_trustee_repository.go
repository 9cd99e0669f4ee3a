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

// MySQLTrusteeRepository implements trustee persistence for MySQL. Sealed
// share ciphertext lives in VARBINARY columns; this layer can store and
// return it but never holds the key material to open it.
type MySQLTrusteeRepository struct {
	db *sql.DB
}

// NewMySQLTrusteeRepository creates a new MySQLTrusteeRepository.
func NewMySQLTrusteeRepository(db *sql.DB) *MySQLTrusteeRepository {
	return &MySQLTrusteeRepository{db: db}
}

// Create inserts a new trustee. Share index and email collisions within a
// plan surface as distinct conflict errors.
func (r *MySQLTrusteeRepository) Create(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO trustees
			  (id, plan_id, name, email, share_index, has_approved, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, FALSE, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		trustee.ID[:], trustee.PlanID[:], trustee.Name, trustee.Email, trustee.ShareIndex,
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
func (r *MySQLTrusteeRepository) GetByPlanAndIndex(ctx context.Context, planID uuid.UUID, shareIndex int) (*domain.Trustee, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, share_index, encrypted_share, share_nonce, has_approved, approved_at, created_at, updated_at
			  FROM trustees WHERE plan_id = ? AND share_index = ?`

	trustee, err := scanMySQLTrustee(querier.QueryRowContext(ctx, query, planID[:], shareIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTrusteeNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get trustee")
	}
	return trustee, nil
}

// ListByPlan retrieves a plan's trustees ordered by share index.
func (r *MySQLTrusteeRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Trustee, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, plan_id, name, email, share_index, encrypted_share, share_nonce, has_approved, approved_at, created_at, updated_at
			  FROM trustees WHERE plan_id = ? ORDER BY share_index ASC`

	rows, err := querier.QueryContext(ctx, query, planID[:])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list trustees")
	}
	defer func() {
		_ = rows.Close()
	}()

	trustees := make([]*domain.Trustee, 0)
	for rows.Next() {
		trustee, err := scanMySQLTrustee(rows)
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
func (r *MySQLTrusteeRepository) UpdateShare(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE trustees
			  SET encrypted_share = ?, share_nonce = ?, updated_at = NOW()
			  WHERE id = ?`

	return execExpectingRow(ctx, querier, query, trustee.EncryptedShare, trustee.ShareNonce, trustee.ID[:])
}

// UpdateApproval persists a trustee's approval flag and timestamp.
func (r *MySQLTrusteeRepository) UpdateApproval(ctx context.Context, trustee *domain.Trustee) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE trustees
			  SET has_approved = ?, approved_at = ?, updated_at = NOW()
			  WHERE id = ?`

	return execExpectingRow(ctx, querier, query, trustee.HasApproved, trustee.ApprovedAt, trustee.ID[:])
}

// scanMySQLTrustee scans a trustee row, decoding BINARY(16) UUIDs.
func scanMySQLTrustee(scanner rowScanner) (*domain.Trustee, error) {
	var trustee domain.Trustee
	var idBytes, planBytes []byte

	err := scanner.Scan(
		&idBytes, &planBytes, &trustee.Name, &trustee.Email, &trustee.ShareIndex,
		&trustee.EncryptedShare, &trustee.ShareNonce, &trustee.HasApproved, &trustee.ApprovedAt,
		&trustee.CreatedAt, &trustee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if trustee.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, err
	}
	if trustee.PlanID, err = uuid.FromBytes(planBytes); err != nil {
		return nil, err
	}
	return &trustee, nil
}
