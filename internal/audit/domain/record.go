// Package domain defines the tamper-evident audit record model.
//
// Audit records form a singly linked hash chain per tenant scope: each record's
// CurrentHash covers its own canonicalized fields concatenated with its
// predecessor's CurrentHash, so any post-hoc mutation of history is detectable
// by recomputation. Records are write-once; corrections are appended as
// compensating records, never made by mutating history.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies a security-relevant operation recorded in the audit chain.
type Action string

// Actions emitted by the key-management and recovery subsystems.
const (
	ActionKeyDerived      Action = "key.derived"
	ActionKeyCleared      Action = "key.cleared"
	ActionContentKeyWrap  Action = "content_key.wrapped"
	ActionContentKeyUse   Action = "content_key.unwrapped"
	ActionItemEncrypted   Action = "item.encrypted"
	ActionItemDecrypted   Action = "item.decrypted"
	ActionPlanCreated     Action = "plan.created"
	ActionPlanReady       Action = "plan.ready"
	ActionPlanTriggered   Action = "plan.triggered"
	ActionPlanCompleted   Action = "plan.completed"
	ActionPlanCancelled   Action = "plan.cancelled"
	ActionTrusteeAdded    Action = "trustee.registered"
	ActionTrusteeApproved Action = "trustee.approved"
	ActionTrusteeRevoked  Action = "trustee.revoked"
	ActionShareSubmitted  Action = "share.submitted"
)

// GenesisHash is the fixed previous-hash value for the first record of every
// chain scope: 32 zero bytes.
var GenesisHash = make([]byte, 32)

// AuditRecord is one entry in a tenant's hash chain.
//
// Immutable once written. CurrentHash = SHA-256(PreviousHash || canonical
// record fields); PreviousHash of the first record in a scope is GenesisHash.
// Signature is an optional HMAC over the canonical bytes, present when the
// operator has configured an audit signing seed.
type AuditRecord struct {
	ID           uuid.UUID
	TenantID     uuid.UUID // chain scope; ordering across tenants is irrelevant
	UserID       uuid.UUID
	Action       Action
	ResourceType string
	ResourceID   string
	Details      map[string]any
	PreviousHash []byte
	CurrentHash  []byte
	Signature    []byte
	CreatedAt    time.Time
}
