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

// MySQLItemRepository implements item metadata persistence for MySQL. UUIDs
// are stored as BINARY(16).
type MySQLItemRepository struct {
	db *sql.DB
}

// NewMySQLItemRepository creates a new MySQLItemRepository.
func NewMySQLItemRepository(db *sql.DB) *MySQLItemRepository {
	return &MySQLItemRepository{db: db}
}

// Create inserts a new vault item.
func (r *MySQLItemRepository) Create(ctx context.Context, item *domain.VaultItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vault_items (id, owner_id, title, content_type, current_version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		item.ID[:], item.OwnerID[:], item.Title, item.ContentType, item.CurrentVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault item")
	}
	return nil
}

// GetByID retrieves a vault item by ID.
func (r *MySQLItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VaultItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, title, content_type, current_version, created_at, updated_at
			  FROM vault_items WHERE id = ?`

	var item domain.VaultItem
	var idBytes, ownerBytes []byte
	err := querier.QueryRowContext(ctx, query, id[:]).Scan(
		&idBytes, &ownerBytes, &item.Title, &item.ContentType,
		&item.CurrentVersion, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get vault item")
	}

	if item.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal item id")
	}
	if item.OwnerID, err = uuid.FromBytes(ownerBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
	}
	return &item, nil
}

// ListByOwner retrieves an owner's items, newest first.
func (r *MySQLItemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, title, content_type, current_version, created_at, updated_at
			  FROM vault_items
			  WHERE owner_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, ownerID[:], limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vault items")
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*domain.VaultItem, 0)
	for rows.Next() {
		var item domain.VaultItem
		var idBytes, ownerBytes []byte
		err := rows.Scan(
			&idBytes, &ownerBytes, &item.Title, &item.ContentType,
			&item.CurrentVersion, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault item")
		}
		if item.ID, err = uuid.FromBytes(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal item id")
		}
		if item.OwnerID, err = uuid.FromBytes(ownerBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate vault items")
	}
	return items, nil
}

// UpdateVersion persists the item's current version pointer.
func (r *MySQLItemRepository) UpdateVersion(ctx context.Context, item *domain.VaultItem) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE vault_items SET current_version = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, item.CurrentVersion, item.ID[:])
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

// MySQLItemVersionRepository implements encrypted version persistence for MySQL.
type MySQLItemVersionRepository struct {
	db *sql.DB
}

// NewMySQLItemVersionRepository creates a new MySQLItemVersionRepository.
func NewMySQLItemVersionRepository(db *sql.DB) *MySQLItemVersionRepository {
	return &MySQLItemVersionRepository{db: db}
}

// Create inserts a new item version.
func (r *MySQLItemVersionRepository) Create(ctx context.Context, version *domain.ItemVersion) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO item_versions
			  (id, item_id, version, algorithm, wrapped_key, wrap_nonce, ciphertext, nonce, checksum, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query,
		version.ID[:], version.ItemID[:], version.Version, string(version.Algorithm),
		version.WrappedKey, version.WrapNonce, version.Ciphertext, version.Nonce, version.Checksum,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create item version")
	}
	return nil
}

// GetByItemAndVersion retrieves one encrypted version.
func (r *MySQLItemVersionRepository) GetByItemAndVersion(ctx context.Context, itemID uuid.UUID, versionNumber int) (*domain.ItemVersion, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, item_id, version, algorithm, wrapped_key, wrap_nonce, ciphertext, nonce, checksum, created_at
			  FROM item_versions WHERE item_id = ? AND version = ?`

	var version domain.ItemVersion
	var idBytes, itemBytes []byte
	var algorithm string
	err := querier.QueryRowContext(ctx, query, itemID[:], versionNumber).Scan(
		&idBytes, &itemBytes, &version.Version, &algorithm,
		&version.WrappedKey, &version.WrapNonce, &version.Ciphertext, &version.Nonce, &version.Checksum,
		&version.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get item version")
	}

	if version.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal version id")
	}
	if version.ItemID, err = uuid.FromBytes(itemBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal item id")
	}
	version.Algorithm = cryptoDomain.Algorithm(algorithm)
	return &version, nil
}
