// Package repository implements vault item persistence for PostgreSQL and
// MySQL. Ciphertext, nonces and wrapped keys are stored as opaque binary
// columns; nothing in this layer can decrypt them.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/vault/domain"
)

// PostgreSQLItemRepository implements item metadata persistence for PostgreSQL.
type PostgreSQLItemRepository struct {
	db *sql.DB
}

// NewPostgreSQLItemRepository creates a new PostgreSQLItemRepository.
func NewPostgreSQLItemRepository(db *sql.DB) *PostgreSQLItemRepository {
	return &PostgreSQLItemRepository{db: db}
}

// Create inserts a new vault item.
func (r *PostgreSQLItemRepository) Create(ctx context.Context, item *domain.VaultItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vault_items (id, owner_id, title, content_type, current_version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Title, item.ContentType, item.CurrentVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault item")
	}
	return nil
}

// GetByID retrieves a vault item by ID.
func (r *PostgreSQLItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VaultItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, title, content_type, current_version, created_at, updated_at
			  FROM vault_items WHERE id = $1`

	var item domain.VaultItem
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.ContentType,
		&item.CurrentVersion, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get vault item")
	}
	return &item, nil
}

// ListByOwner retrieves an owner's items, newest first.
func (r *PostgreSQLItemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, title, content_type, current_version, created_at, updated_at
			  FROM vault_items
			  WHERE owner_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vault items")
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*domain.VaultItem, 0)
	for rows.Next() {
		var item domain.VaultItem
		err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.ContentType,
			&item.CurrentVersion, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault item")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate vault items")
	}
	return items, nil
}

// UpdateVersion persists the item's current version pointer.
func (r *PostgreSQLItemRepository) UpdateVersion(ctx context.Context, item *domain.VaultItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE vault_items SET current_version = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, item.CurrentVersion, item.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault item")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// PostgreSQLItemVersionRepository implements encrypted version persistence
// for PostgreSQL.
type PostgreSQLItemVersionRepository struct {
	db *sql.DB
}

// NewPostgreSQLItemVersionRepository creates a new PostgreSQLItemVersionRepository.
func NewPostgreSQLItemVersionRepository(db *sql.DB) *PostgreSQLItemVersionRepository {
	return &PostgreSQLItemVersionRepository{db: db}
}

// Create inserts a new item version.
func (r *PostgreSQLItemVersionRepository) Create(ctx context.Context, version *domain.ItemVersion) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO item_versions
			  (id, item_id, version, algorithm, wrapped_key, wrap_nonce, ciphertext, nonce, checksum, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	_, err := querier.ExecContext(ctx, query,
		version.ID, version.ItemID, version.Version, string(version.Algorithm),
		version.WrappedKey, version.WrapNonce, version.Ciphertext, version.Nonce, version.Checksum,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create item version")
	}
	return nil
}

// GetByItemAndVersion retrieves one encrypted version.
func (r *PostgreSQLItemVersionRepository) GetByItemAndVersion(ctx context.Context, itemID uuid.UUID, versionNumber int) (*domain.ItemVersion, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, item_id, version, algorithm, wrapped_key, wrap_nonce, ciphertext, nonce, checksum, created_at
			  FROM item_versions WHERE item_id = $1 AND version = $2`

	var version domain.ItemVersion
	var algorithm string
	err := querier.QueryRowContext(ctx, query, itemID, versionNumber).Scan(
		&version.ID, &version.ItemID, &version.Version, &algorithm,
		&version.WrappedKey, &version.WrapNonce, &version.Ciphertext, &version.Nonce, &version.Checksum,
		&version.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get item version")
	}
	version.Algorithm = cryptoDomain.Algorithm(algorithm)
	return &version, nil
}
