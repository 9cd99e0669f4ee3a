package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
)

func buildChain(t *testing.T, hasher ChainHasher, n int) []*auditDomain.AuditRecord {
	t.Helper()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	records := make([]*auditDomain.AuditRecord, 0, n)
	previous := auditDomain.GenesisHash
	for i := 0; i < n; i++ {
		record := &auditDomain.AuditRecord{
			ID:           uuid.Must(uuid.NewV7()),
			TenantID:     tenantID,
			UserID:       userID,
			Action:       auditDomain.ActionPlanCreated,
			ResourceType: "recovery_plan",
			ResourceID:   uuid.Must(uuid.NewV7()).String(),
			Details:      map[string]any{"seq": i},
			PreviousHash: previous,
			CreatedAt:    time.Now().UTC(),
		}
		hash, err := hasher.ComputeHash(previous, record)
		require.NoError(t, err)
		record.CurrentHash = hash
		previous = hash
		records = append(records, record)
	}
	return records
}

func TestChainHasher_ComputeHash(t *testing.T) {
	hasher := NewChainHasher()

	t.Run("DeterministicForSameInput", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		first, err := hasher.ComputeHash(record.PreviousHash, record)
		require.NoError(t, err)
		second, err := hasher.ComputeHash(record.PreviousHash, record)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("DependsOnPreviousHash", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		other := make([]byte, 32)
		other[0] = 0xFF
		different, err := hasher.ComputeHash(other, record)
		require.NoError(t, err)
		assert.NotEqual(t, record.CurrentHash, different)
	})

	t.Run("StableAcrossMicrosecondTruncation", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		record.CreatedAt = time.Date(2026, 3, 14, 9, 26, 53, 123456789, time.UTC)
		before, err := hasher.ComputeHash(record.PreviousHash, record)
		require.NoError(t, err)

		record.CreatedAt = record.CreatedAt.Truncate(time.Microsecond)
		after, err := hasher.ComputeHash(record.PreviousHash, record)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("DependsOnEveryField", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		record.ResourceID = "tampered"
		recomputed, err := hasher.ComputeHash(record.PreviousHash, record)
		require.NoError(t, err)
		assert.NotEqual(t, record.CurrentHash, recomputed)
	})
}

func TestChainHasher_VerifyChain(t *testing.T) {
	hasher := NewChainHasher()

	t.Run("ValidChain", func(t *testing.T) {
		records := buildChain(t, hasher, 10)
		valid, breakIndex := hasher.VerifyChain(records)
		assert.True(t, valid)
		assert.Equal(t, -1, breakIndex)
	})

	t.Run("EmptyChainIsValid", func(t *testing.T) {
		valid, breakIndex := hasher.VerifyChain(nil)
		assert.True(t, valid)
		assert.Equal(t, -1, breakIndex)
	})

	t.Run("ValidAfterTimestampPrecisionLoss", func(t *testing.T) {
		// The timestamp columns keep microseconds, so reloaded records carry
		// truncated CreatedAt values. An intact chain must still verify.
		records := buildChain(t, hasher, 10)
		for _, record := range records {
			record.CreatedAt = record.CreatedAt.Truncate(time.Microsecond)
		}

		valid, breakIndex := hasher.VerifyChain(records)
		assert.True(t, valid)
		assert.Equal(t, -1, breakIndex)
	})

	t.Run("CorruptedDetailsReportsFirstBreakIndex", func(t *testing.T) {
		for _, corrupt := range []int{0, 3, 9} {
			records := buildChain(t, hasher, 10)
			records[corrupt].Details = map[string]any{"seq": "tampered"}

			valid, breakIndex := hasher.VerifyChain(records)
			assert.False(t, valid)
			assert.Equal(t, corrupt, breakIndex)
		}
	})

	t.Run("RewrittenHashBreaksSuccessor", func(t *testing.T) {
		// Recomputing record 4's hash after tampering repairs record 4 itself
		// but breaks the link claimed by record 5.
		records := buildChain(t, hasher, 10)
		records[4].Details = map[string]any{"seq": "rewritten"}
		hash, err := hasher.ComputeHash(records[4].PreviousHash, records[4])
		require.NoError(t, err)
		records[4].CurrentHash = hash

		valid, breakIndex := hasher.VerifyChain(records)
		assert.False(t, valid)
		assert.Equal(t, 5, breakIndex)
	})

	t.Run("WrongGenesisBreaksAtZero", func(t *testing.T) {
		records := buildChain(t, hasher, 3)
		records[0].PreviousHash = []byte("not the genesis value, wrong!!!!")

		valid, breakIndex := hasher.VerifyChain(records)
		assert.False(t, valid)
		assert.Equal(t, 0, breakIndex)
	})
}

func TestRecordSigner(t *testing.T) {
	hasher := NewChainHasher()
	signer := NewRecordSigner([]byte("audit-signing-seed-for-tests"))

	t.Run("SignAndVerify", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		signature, err := signer.Sign(record)
		require.NoError(t, err)
		assert.Len(t, signature, 32)

		record.Signature = signature
		assert.NoError(t, signer.Verify(record))
	})

	t.Run("Error_TamperedRecord", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		signature, err := signer.Sign(record)
		require.NoError(t, err)
		record.Signature = signature

		record.ResourceID = "tampered"
		assert.ErrorIs(t, signer.Verify(record), auditDomain.ErrSignatureInvalid)
	})

	t.Run("Error_DifferentSeed", func(t *testing.T) {
		record := buildChain(t, hasher, 1)[0]
		signature, err := signer.Sign(record)
		require.NoError(t, err)
		record.Signature = signature

		other := NewRecordSigner([]byte("a different seed"))
		assert.ErrorIs(t, other.Verify(record), auditDomain.ErrSignatureInvalid)
	})
}
