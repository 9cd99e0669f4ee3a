package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
)

// RunVerifyAuditChain recomputes a tenant's full audit hash chain and reports
// the first break, if any.
//
// The exit status signals the result: a broken chain returns an error so the
// command can drive alerting from cron.
func RunVerifyAuditChain(
	ctx context.Context,
	audit auditUseCase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantIDStr string,
	format string,
) error {
	tenantID, err := uuid.Parse(tenantIDStr)
	if err != nil {
		return fmt.Errorf("invalid tenant ID format: must be a valid UUID")
	}

	logger.Info("verifying audit chain", slog.String("tenant_id", tenantID.String()))

	result, err := audit.Verify(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to verify audit chain: %w", err)
	}

	if format == "json" {
		if err := outputVerifyJSON(writer, tenantID, result); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, tenantID, result)
	}

	logger.Info("verification completed",
		slog.Int("records", result.Records),
		slog.Bool("valid", result.Valid),
	)

	if !result.Valid {
		return fmt.Errorf("integrity check failed: chain breaks at record index %d", result.FirstBreakIndex)
	}

	return nil
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(writer io.Writer, tenantID uuid.UUID, result auditUseCase.VerifyResult) {
	_, _ = fmt.Fprintf(writer, "Audit Chain Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "===================================\n\n")
	_, _ = fmt.Fprintf(writer, "Tenant:           %s\n", tenantID)
	_, _ = fmt.Fprintf(writer, "Records Checked:  %d\n\n", result.Records)

	switch {
	case !result.Valid:
		_, _ = fmt.Fprintf(writer, "WARNING: chain breaks at record index %d!\n\n", result.FirstBreakIndex)
		_, _ = fmt.Fprintf(writer, "Status: FAILED\n")
	case result.Records == 0:
		_, _ = fmt.Fprintf(writer, "Status: No records found for tenant\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

// outputVerifyJSON outputs the verification result in JSON format for machine consumption.
func outputVerifyJSON(writer io.Writer, tenantID uuid.UUID, result auditUseCase.VerifyResult) error {
	out := map[string]interface{}{
		"tenant_id":         tenantID.String(),
		"records":           result.Records,
		"valid":             result.Valid,
		"first_break_index": result.FirstBreakIndex,
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
