// Package repository implements audit record persistence for PostgreSQL and MySQL.
//
// Records are write-once: repositories expose no update or delete operation.
// The stored previous_hash/current_hash columns are persisted exactly as the
// use case produced them and never recomputed here.
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

// PostgreSQLAuditRecordRepository implements audit record persistence for
// PostgreSQL, using native UUID columns and BYTEA for hash material.
type PostgreSQLAuditRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRecordRepository creates a new PostgreSQL audit record repository.
func NewPostgreSQLAuditRecordRepository(db *sql.DB) *PostgreSQLAuditRecordRepository {
	return &PostgreSQLAuditRecordRepository{db: db}
}

// Create inserts a new audit record. Supports transaction context via
// database.GetTx() so the insert shares the transaction of the hash read.
func (p *PostgreSQLAuditRecordRepository) Create(ctx context.Context, record *auditDomain.AuditRecord) error {
	querier := database.GetTx(ctx, p.db)

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
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.TenantID,
		record.UserID,
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
// UUIDv7 ids are time-ordered, so ordering by id descending yields insertion order.
func (p *PostgreSQLAuditRecordRepository) LastByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) (*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, tenant_id, user_id, action, resource_type, resource_id, details, previous_hash, current_hash, signature, created_at
			  FROM audit_records
			  WHERE tenant_id = $1
			  ORDER BY id DESC
			  LIMIT 1`

	record, err := scanAuditRecord(querier.QueryRowContext(ctx, query, tenantID))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "audit chain is empty")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get last audit record")
	}
	return record, nil
}

// ListByTenant returns records for the tenant scope in insertion order.
func (p *PostgreSQLAuditRecordRepository) ListByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	limit, offset uint,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, tenant_id, user_id, action, resource_type, resource_id, details, previous_hash, current_hash, signature, created_at
			  FROM audit_records
			  WHERE tenant_id = $1
			  ORDER BY id ASC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*auditDomain.AuditRecord, 0)
	for rows.Next() {
		record, err := scanAuditRecord(rows)
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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRecord(row rowScanner) (*auditDomain.AuditRecord, error) {
	var record auditDomain.AuditRecord
	var action string
	var detailsJSON []byte

	err := row.Scan(
		&record.ID,
		&record.TenantID,
		&record.UserID,
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

	record.Action = auditDomain.Action(action)
	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &record.Details); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
