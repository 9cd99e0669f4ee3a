package integration

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDTO "github.com/keepsakevault/keepsake/internal/audit/http/dto"
	vaultDTO "github.com/keepsakevault/keepsake/internal/vault/http/dto"
)

// tamperEarliestAuditRecord flips the action of the oldest audit record,
// which breaks both the hash chain and the record signature from that point.
// The derived-table wrapper keeps the statement valid on MySQL, which rejects
// a direct self-referencing subquery in UPDATE.
func tamperEarliestAuditRecord(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	result, err := ctx.db.Exec(
		`UPDATE audit_records SET action = 'vault.item.read'
		 WHERE id = (SELECT id FROM (SELECT id FROM audit_records ORDER BY created_at LIMIT 1) AS earliest)`)
	require.NoError(t, err, "failed to tamper audit record")

	rows, err := result.RowsAffected()
	require.NoError(t, err)
	require.Equal(t, int64(1), rows, "expected exactly one tampered record")
}

func TestIntegration_AuditChain_EndToEnd(t *testing.T) {
	forBothDatabases(t, func(t *testing.T, ctx *integrationTestContext) {
		ctx.registerAndLogin(t, "owner-audit@example.com")
		ctx.unlockVault(t)

		// Produce some auditable activity beyond registration and unlock.
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/items", vaultDTO.CreateItemRequest{
			Title:       "Insurance policy",
			ContentType: "text/plain",
			Content:     base64.StdEncoding.EncodeToString([]byte("policy number 12345")),
			Algorithm:   "aes-gcm",
		}, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "create item failed: %s", body)

		var recordCount int

		t.Run("01_ListRecordsActivity", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-records", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, "list audit records failed: %s", body)

			var list auditDTO.ListAuditRecordsResponse
			require.NoError(t, json.Unmarshal(body, &list))
			require.NotEmpty(t, list.Data)
			recordCount = len(list.Data)

			actions := make(map[string]bool, len(list.Data))
			for _, record := range list.Data {
				actions[record.Action] = true
				assert.NotEmpty(t, record.CurrentHash)
				assert.NotEmpty(t, record.Signature, "signing seed is configured, records must carry signatures")
			}
			assert.True(t, actions["key.derived"], "unlock must be audited, got %v", actions)
			assert.True(t, actions["item.encrypted"], "item creation must be audited, got %v", actions)
		})

		t.Run("02_VerifyIntactChain", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/audit-records/verify", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, "verify failed: %s", body)

			var verify auditDTO.VerifyChainResponse
			require.NoError(t, json.Unmarshal(body, &verify))
			assert.True(t, verify.Valid)
			assert.Equal(t, -1, verify.FirstBreakIndex)
			assert.GreaterOrEqual(t, verify.Records, recordCount)
		})

		t.Run("03_VerifyDetectsTampering", func(t *testing.T) {
			tamperEarliestAuditRecord(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/audit-records/verify", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode, "verify failed: %s", body)

			var verify auditDTO.VerifyChainResponse
			require.NoError(t, json.Unmarshal(body, &verify))
			assert.False(t, verify.Valid)
			assert.GreaterOrEqual(t, verify.FirstBreakIndex, 0)
		})
	})
}
