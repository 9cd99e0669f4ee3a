// Package service implements threshold secret sharing for recovery plans.
package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/hashicorp/vault/shamir"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// Share is one threshold share of a split secret. Index is the trustee's
// 1-based assignment slot; Payload is the raw Shamir share.
type Share struct {
	Index   int
	Payload []byte
}

// SecretSharer splits a secret into n shares with reconstruction threshold k
// and reconstructs it from any k of them.
type SecretSharer interface {
	// Split produces shares 1..n. Any k reconstruct the secret; fewer than k
	// reveal nothing about it.
	Split(secret []byte, k, n int) ([]Share, error)

	// Combine reconstructs the secret from at least k shares. Tampered input
	// fails with ErrInvalidShare; it never silently yields a wrong secret.
	Combine(shares []Share, k int) ([]byte, error)
}

type secretSharer struct{}

// NewSecretSharer creates a SecretSharer backed by Shamir secret sharing over
// GF(2^8). A SHA-256 digest of the secret is appended before the split; the
// digest is what lets Combine distinguish a tampered reconstruction from a
// correct one, since Shamir itself happily combines garbage.
func NewSecretSharer() SecretSharer {
	return &secretSharer{}
}

func (s *secretSharer) Split(secret []byte, k, n int) ([]Share, error) {
	if k < 2 || k > n || n > domain.MaxTotalShares {
		return nil, domain.ErrInvalidPlanParameters
	}
	if len(secret) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "secret cannot be empty")
	}

	digest := sha256.Sum256(secret)
	sealed := make([]byte, 0, len(secret)+sha256.Size)
	sealed = append(sealed, secret...)
	sealed = append(sealed, digest[:]...)
	defer cryptoDomain.Zero(sealed)

	payloads, err := shamir.Split(sealed, n, k)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to split secret")
	}

	shares := make([]Share, 0, n)
	for i, payload := range payloads {
		shares = append(shares, Share{Index: i + 1, Payload: payload})
	}
	return shares, nil
}

func (s *secretSharer) Combine(shares []Share, k int) ([]byte, error) {
	if len(shares) < k {
		return nil, domain.ErrInsufficientShares
	}

	seen := make(map[int]bool, len(shares))
	payloads := make([][]byte, 0, len(shares))
	for _, share := range shares {
		if len(share.Payload) == 0 {
			return nil, domain.ErrInvalidShare
		}
		if seen[share.Index] {
			return nil, domain.ErrInvalidShare
		}
		seen[share.Index] = true
		payloads = append(payloads, share.Payload)
	}

	sealed, err := shamir.Combine(payloads)
	if err != nil {
		return nil, domain.ErrInvalidShare
	}
	defer cryptoDomain.Zero(sealed)

	if len(sealed) <= sha256.Size {
		return nil, domain.ErrInvalidShare
	}

	secret := make([]byte, len(sealed)-sha256.Size)
	copy(secret, sealed[:len(secret)])

	digest := sha256.Sum256(secret)
	if subtle.ConstantTimeCompare(digest[:], sealed[len(secret):]) != 1 {
		cryptoDomain.Zero(secret)
		return nil, domain.ErrInvalidShare
	}

	return secret, nil
}
