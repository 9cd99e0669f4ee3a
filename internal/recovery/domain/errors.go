package domain

import (
	"fmt"

	"github.com/keepsakevault/keepsake/internal/errors"
)

// Domain-specific errors for recovery plan operations.
var (
	// ErrPlanNotFound indicates the requested plan does not exist.
	ErrPlanNotFound = errors.Wrap(errors.ErrNotFound, "recovery plan not found")

	// ErrTrusteeNotFound indicates no trustee exists for the given share index.
	ErrTrusteeNotFound = errors.Wrap(errors.ErrNotFound, "trustee not found")

	// ErrInvalidPlanParameters indicates the threshold or waiting period
	// violates the plan invariants (2 <= k <= n, waiting period >= 1 day).
	ErrInvalidPlanParameters = errors.Wrap(errors.ErrInvalidInput, "invalid recovery plan parameters")

	// ErrShareIndexTaken indicates another trustee already holds the share index.
	ErrShareIndexTaken = errors.Wrap(errors.ErrConflict, "share index already assigned")

	// ErrTrusteeAlreadyExists indicates a trustee with the same email is
	// already registered on the plan.
	ErrTrusteeAlreadyExists = errors.Wrap(errors.ErrConflict, "trustee already registered")

	// ErrBeneficiaryAlreadyExists indicates a beneficiary with the same email
	// is already registered on the plan.
	ErrBeneficiaryAlreadyExists = errors.Wrap(errors.ErrConflict, "beneficiary already registered")

	// ErrInvalidTransition indicates a state machine precondition is unmet.
	// Use NewInvalidTransition so the message names the precondition.
	ErrInvalidTransition = errors.Wrap(errors.ErrPreconditionFailed, "invalid transition")

	// ErrInvalidShare indicates a submitted share failed authentication or
	// the reconstructed secret failed its digest check.
	ErrInvalidShare = errors.Wrap(errors.ErrIntegrity, "invalid share")

	// ErrInsufficientShares indicates fewer valid shares than the threshold
	// were presented for reconstruction.
	ErrInsufficientShares = errors.Wrap(errors.ErrPreconditionFailed, "insufficient shares")
)

// NewInvalidTransition returns ErrInvalidTransition annotated with the unmet
// precondition. State is left unchanged by the failed transition.
func NewInvalidTransition(precondition string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, precondition)
}
