// Package service implements hash-chain computation and signing for audit records.
package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
)

// ChainHasher computes and verifies the per-tenant audit hash chain.
type ChainHasher interface {
	// ComputeHash returns SHA-256(previousHash || canonical(record)).
	ComputeHash(previousHash []byte, record *auditDomain.AuditRecord) ([]byte, error)

	// VerifyChain recomputes every hash in the ordered sequence. It returns
	// valid=true when every CurrentHash matches and every PreviousHash equals
	// its predecessor's CurrentHash; otherwise the index of the first broken
	// record (0-based) is returned.
	VerifyChain(records []*auditDomain.AuditRecord) (valid bool, firstBreakIndex int)
}

type chainHasher struct{}

// NewChainHasher creates a ChainHasher.
func NewChainHasher() ChainHasher {
	return &chainHasher{}
}

// canonicalize converts an audit record to its canonical byte representation.
// Format: id || tenant_id || user_id || action || resource_type || resource_id
// || details || created_at, with length-prefixed encoding for variable-length
// fields to prevent ambiguity. CurrentHash and Signature are excluded.
func canonicalize(record *auditDomain.AuditRecord) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, record.ID[:]...)
	buf = append(buf, record.TenantID[:]...)
	buf = append(buf, record.UserID[:]...)

	buf = appendLengthPrefixed(buf, []byte(record.Action))
	buf = appendLengthPrefixed(buf, []byte(record.ResourceType))
	buf = appendLengthPrefixed(buf, []byte(record.ResourceID))

	if record.Details != nil {
		detailBytes, err := json.Marshal(record.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal details: %w", err)
		}
		buf = appendLengthPrefixed(buf, detailBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	// The created_at column stores microseconds (TIMESTAMPTZ, DATETIME(6)),
	// so the canonical form must not carry sub-microsecond digits or the hash
	// would change after a persistence round-trip.
	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(record.CreatedAt.UnixMicro()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if len(data) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// ComputeHash returns SHA-256(previousHash || canonical(record)).
func (c *chainHasher) ComputeHash(previousHash []byte, record *auditDomain.AuditRecord) ([]byte, error) {
	canonical, err := canonicalize(record)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write(previousHash)
	h.Write(canonical)
	return h.Sum(nil), nil
}

// VerifyChain recomputes each hash in order.
//
// A record breaks the chain when its PreviousHash does not equal its
// predecessor's CurrentHash (GenesisHash for the first record) or when its
// stored CurrentHash does not recompute from its fields.
func (c *chainHasher) VerifyChain(records []*auditDomain.AuditRecord) (bool, int) {
	previous := auditDomain.GenesisHash
	for i, record := range records {
		if !bytes.Equal(record.PreviousHash, previous) {
			return false, i
		}
		computed, err := c.ComputeHash(previous, record)
		if err != nil {
			return false, i
		}
		if !bytes.Equal(computed, record.CurrentHash) {
			return false, i
		}
		previous = record.CurrentHash
	}
	return true, -1
}
