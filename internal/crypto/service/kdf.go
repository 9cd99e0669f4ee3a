package service

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// KDFParams holds the Argon2id cost parameters.
//
// The parameters are fixed as configuration and persisted implicitly by being
// part of the deployment: re-deriving a vault master key requires the same
// parameters and salt that produced it, so changes must be rolled out as a new
// KDF version, never by mutating a running deployment in place.
type KDFParams struct {
	// MemoryKiB is the Argon2id memory cost in KiB.
	MemoryKiB uint32
	// Iterations is the Argon2id time cost.
	Iterations uint32
	// Parallelism is the Argon2id lane count.
	Parallelism uint8
}

// DefaultKDFParams returns the server-profile Argon2id costs: 64 MiB, 3
// iterations, 4 lanes.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryKiB: 64 * 1024, Iterations: 3, Parallelism: 4}
}

// Argon2Deriver implements KeyDeriver using Argon2id.
//
// Derivation is deterministic for a given (passphrase, salt) pair, which is
// what allows login-time reconstruction of the vault master key from the
// stored salt. The deriver never judges passphrase strength; that is the
// advisory CheckPassphrase function.
type Argon2Deriver struct {
	params KDFParams
}

// NewArgon2Deriver creates a KeyDeriver with the given cost parameters.
func NewArgon2Deriver(params KDFParams) *Argon2Deriver {
	return &Argon2Deriver{params: params}
}

// Derive derives a vault master key from the passphrase.
//
// If salt is nil, a fresh random salt of cryptoDomain.SaltSize bytes is
// generated and returned in the result so the caller can persist it. Providing
// the stored salt re-derives the identical key byte for byte. Fails with
// ErrKeyDerivation only on primitive or parameter failure.
func (d *Argon2Deriver) Derive(passphrase []byte, salt []byte) (*cryptoDomain.VaultMasterKey, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", cryptoDomain.ErrKeyDerivation)
	}
	if d.params.MemoryKiB == 0 || d.params.Iterations == 0 || d.params.Parallelism == 0 {
		return nil, fmt.Errorf("%w: zero cost parameter", cryptoDomain.ErrKeyDerivation)
	}

	if salt == nil {
		salt = make([]byte, cryptoDomain.SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("%w: salt generation: %v", cryptoDomain.ErrKeyDerivation, err)
		}
	} else if len(salt) < cryptoDomain.SaltSize {
		return nil, fmt.Errorf("%w: salt too short", cryptoDomain.ErrKeyDerivation)
	}

	key := argon2.IDKey(
		passphrase,
		salt,
		d.params.Iterations,
		d.params.MemoryKiB,
		d.params.Parallelism,
		cryptoDomain.KeySize,
	)

	return &cryptoDomain.VaultMasterKey{Key: key, Salt: salt}, nil
}
