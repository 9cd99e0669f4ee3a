package domain

import (
	"github.com/keepsakevault/keepsake/internal/errors"
)

// Audit-specific error definitions.
var (
	// ErrChainVerificationFailed indicates the hash chain does not recompute.
	// Trust in the log is lost from the reported break index forward; this is
	// never silently skipped.
	ErrChainVerificationFailed = errors.Wrap(errors.ErrIntegrity, "audit chain verification failed")

	// ErrSignatureInvalid indicates an audit record's HMAC signature does not verify.
	ErrSignatureInvalid = errors.Wrap(errors.ErrIntegrity, "audit record signature invalid")
)
