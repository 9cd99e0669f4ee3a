package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
)

// MySQLAuditRecordRepository implements audit record persistence for MySQL,
// using BINARY(16) for UUIDs and BLOB for hash material.
type MySQLAuditRecordRepository struct {
	db *sql.DB
}

// NewMySQLAuditRecordRepository creates a new MySQL audit record repository.
func NewMySQLAuditRecordRepository(db *sql.DB) *MySQLAuditRecordRepository {
	return &MySQLAuditRecordRepository{db: db}
}

// Create inserts a new audit record using BINARY(16) for UUIDs.
func (m *MySQLAuditRecordRepository) Create(ctx context.Context, record *auditDomain.AuditRecord) error {
	querier := database.GetTx(ctx, m.db)

	var detailsJSON []byte
	var err error
	if record.Details != nil {
		detailsJSON, err = json.Marshal(record.Details)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record details")
		}
	}

	query := `INSERT INTO audit_records
			  (id, tenant_id, user_id, action, resource_type, resource_id, details, previous_hash, current_hash, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID[:],
		record.TenantID[:],
		record.UserID[:],
		string(record.Action),
		record.ResourceType,
		record.ResourceID,
		detailsJSON,
		record.PreviousHash,
		record.CurrentHash,
		record.Signature,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}
	return nil
}

// LastByTenant returns the most recently appended record for the tenant scope.
func (m *MySQLAuditRecordRepository) LastByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) (*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, tenant_id, user_id, action, resource_type, resource_id, details, previous_hash, current_hash, signature, created_at
			  FROM audit_records
			  WHERE tenant_id = ?
			  ORDER BY id DESC
			  LIMIT 1`

	record, err := scanMySQLAuditRecord(querier.QueryRowContext(ctx, query, tenantID[:]))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "audit chain is empty")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get last audit record")
	}
	return record, nil
}

// ListByTenant returns records for the tenant scope in insertion order.
func (m *MySQLAuditRecordRepository) ListByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	limit, offset uint,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, tenant_id, user_id, action, resource_type, resource_id, details, previous_hash, current_hash, signature, created_at
			  FROM audit_records
			  WHERE tenant_id = ?
			  ORDER BY id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, tenantID[:], limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*auditDomain.AuditRecord, 0)
	for rows.Next() {
		record, err := scanMySQLAuditRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}
	return records, nil
}

func scanMySQLAuditRecord(row rowScanner) (*auditDomain.AuditRecord, error) {
	var record auditDomain.AuditRecord
	var idBytes, tenantBytes, userBytes []byte
	var action string
	var detailsJSON []byte

	err := row.Scan(
		&idBytes,
		&tenantBytes,
		&userBytes,
		&action,
		&record.ResourceType,
		&record.ResourceID,
		&detailsJSON,
		&record.PreviousHash,
		&record.CurrentHash,
		&record.Signature,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if record.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, err
	}
	if record.TenantID, err = uuid.FromBytes(tenantBytes); err != nil {
		return nil, err
	}
	if record.UserID, err = uuid.FromBytes(userBytes); err != nil {
		return nil, err
	}

	record.Action = auditDomain.Action(action)
	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &record.Details); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
