// Package domain defines the core cryptographic domain models for the vault
// key hierarchy.
//
// It implements a two-tier envelope encryption scheme: a Vault Master Key (VMK)
// derived from the owner's passphrase wraps per-document Content Encryption Keys
// (CEKs), and CEKs encrypt the document bytes. The VMK exists only inside an
// authenticated session and is never persisted in cleartext.
package domain

import (
	"sync"
	"time"
)

// VaultMasterKey is the root of a vault owner's key hierarchy.
//
// The key material is derived from the owner's passphrase with Argon2id and the
// stored per-user salt. It lives only in process memory for the duration of an
// authenticated session; the salt is the only part that is ever persisted.
type VaultMasterKey struct {
	// Key is the raw derived key, exactly KeySize bytes.
	Key []byte
	// Salt is the random salt used for derivation. Persisting it allows the
	// same passphrase to re-derive the identical key at the next login.
	Salt []byte
}

// SessionState tracks the lifecycle of a session credential.
type SessionState string

const (
	// SessionUninitialized means no key material has been loaded yet.
	SessionUninitialized SessionState = "uninitialized"
	// SessionInitialized means the vault master key is available.
	SessionInitialized SessionState = "initialized"
	// SessionCleared means the key material has been zeroized; the credential
	// cannot be reused and a fresh derivation is required.
	SessionCleared SessionState = "cleared"
)

// SessionCredential holds the vault master key for one authenticated session.
//
// Exactly one holder (the active session) reads the key; nothing mutates it in
// place. Re-login replaces the credential wholesale. The explicit state field
// replaces ambient global key state: every cryptographic call receives the
// credential it operates under and can observe whether it is still live.
type SessionCredential struct {
	mu        sync.Mutex
	state     SessionState
	masterKey *VaultMasterKey
	createdAt time.Time
}

// NewSessionCredential creates an uninitialized session credential.
func NewSessionCredential() *SessionCredential {
	return &SessionCredential{state: SessionUninitialized}
}

// Initialize installs the derived vault master key. It is valid only from the
// uninitialized state: a cleared credential stays cleared and a fresh credential
// must be created instead.
func (s *SessionCredential) Initialize(vmk *VaultMasterKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionUninitialized {
		return ErrSessionNotInitialized
	}
	if len(vmk.Key) != KeySize {
		return ErrInvalidKeySize
	}

	s.masterKey = vmk
	s.state = SessionInitialized
	s.createdAt = time.Now().UTC()
	return nil
}

// MasterKey returns the vault master key if the credential is initialized.
func (s *SessionCredential) MasterKey() (*VaultMasterKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionInitialized {
		return nil, ErrSessionNotInitialized
	}
	return s.masterKey, nil
}

// State returns the current lifecycle state of the credential.
func (s *SessionCredential) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CreatedAt returns when the credential was initialized.
func (s *SessionCredential) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// Clear zeroizes the vault master key and marks the credential cleared.
//
// Called on logout, session expiry, or explicit lock. Clearing an already
// cleared or uninitialized credential is a no-op, so callers may defer it
// unconditionally.
func (s *SessionCredential) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.masterKey != nil {
		Zero(s.masterKey.Key)
		s.masterKey = nil
	}
	s.state = SessionCleared
}
