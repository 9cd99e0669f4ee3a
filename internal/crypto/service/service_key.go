package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register all service key keeper drivers.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// ServiceKeyKeeper abstracts the operator-held service key used to protect the
// audit signing seed at rest.
//
// This is a deliberately separate ownership domain from the vault key
// hierarchy: the keeper belongs to the service operator and can never decrypt
// trustee shares or document content, which are protected by keys only the
// owner (or a recovery quorum) can produce.
type ServiceKeyKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// ServiceKeyService opens keepers for the configured provider.
type ServiceKeyService interface {
	// OpenKeeper opens a keeper for the given key URI.
	// Supported schemes: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
	OpenKeeper(ctx context.Context, keyURI string) (ServiceKeyKeeper, error)
}

type serviceKeyService struct{}

// NewServiceKeyService creates a ServiceKeyService backed by gocloud.dev/secrets.
func NewServiceKeyService() ServiceKeyService {
	return &serviceKeyService{}
}

// OpenKeeper opens a secrets.Keeper for the configured provider using the keyURI.
func (s *serviceKeyService) OpenKeeper(ctx context.Context, keyURI string) (ServiceKeyKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open service key keeper: %w", err)
	}
	return keeper, nil
}
