package domain

import (
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
)

var (
	// ErrItemNotFound indicates the item does not exist or belongs to
	// someone else.
	ErrItemNotFound = apperrors.Wrap(apperrors.ErrNotFound, "vault item not found")

	// ErrVersionNotFound indicates the requested item version does not exist.
	ErrVersionNotFound = apperrors.Wrap(apperrors.ErrNotFound, "item version not found")

	// ErrItemNotRecoverable indicates a candidate master key failed to unwrap
	// the item's content key: the key is wrong or the stored envelope is
	// corrupted.
	ErrItemNotRecoverable = apperrors.Wrap(apperrors.ErrIntegrity, "item is not recoverable with this key")
)
