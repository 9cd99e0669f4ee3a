package app

import (
	"context"
	"encoding/base64"
	"fmt"

	auditService "github.com/keepsakevault/keepsake/internal/audit/service"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
)

// KeyDeriver returns the Argon2id key deriver configured from the KDF cost
// parameters.
func (c *Container) KeyDeriver() cryptoService.KeyDeriver {
	c.keyDeriverInit.Do(func() {
		params := cryptoService.DefaultKDFParams()
		if c.config.KDFMemoryKiB > 0 {
			params.MemoryKiB = uint32(c.config.KDFMemoryKiB)
		}
		if c.config.KDFIterations > 0 {
			params.Iterations = uint32(c.config.KDFIterations)
		}
		if c.config.KDFParallelism > 0 {
			params.Parallelism = uint8(c.config.KDFParallelism)
		}
		c.keyDeriver = cryptoService.NewArgon2Deriver(params)
	})
	return c.keyDeriver
}

// AEADManager returns the AEAD cipher manager.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// ContentKeyManager returns the content key manager used for envelope
// encryption of item versions.
func (c *Container) ContentKeyManager() cryptoService.ContentKeyManager {
	c.contentKeyManagerInit.Do(func() {
		c.contentKeyManager = cryptoService.NewContentKeyManager(c.AEADManager())
	})
	return c.contentKeyManager
}

// ServiceKeyService returns the service key keeper factory.
func (c *Container) ServiceKeyService() cryptoService.ServiceKeyService {
	c.serviceKeyInit.Do(func() {
		c.serviceKeyService = cryptoService.NewServiceKeyService()
	})
	return c.serviceKeyService
}

// RecordSigner returns the audit record signer, or nil when no signing seed
// is configured.
//
// AUDIT_SIGNING_SEED is base64. When SERVICE_KEY_URI is set the decoded value
// is keeper ciphertext and is decrypted through the service key keeper first;
// otherwise the decoded value is the raw seed.
func (c *Container) RecordSigner() (auditService.RecordSigner, error) {
	c.recordSignerInit.Do(func() {
		if c.config.AuditSigningSeed == "" {
			return
		}

		seed, err := base64.StdEncoding.DecodeString(c.config.AuditSigningSeed)
		if err != nil {
			c.initErrors["recordSigner"] = fmt.Errorf("failed to decode audit signing seed: %w", err)
			return
		}

		if c.config.ServiceKeyURI != "" {
			keeper, err := c.ServiceKeyService().OpenKeeper(context.Background(), c.config.ServiceKeyURI)
			if err != nil {
				c.initErrors["recordSigner"] = fmt.Errorf("failed to open service key keeper: %w", err)
				return
			}
			seed, err = keeper.Decrypt(context.Background(), seed)
			if err != nil {
				c.initErrors["recordSigner"] = fmt.Errorf("failed to decrypt audit signing seed: %w", err)
				return
			}
		}

		c.recordSigner = auditService.NewRecordSigner(seed)
	})
	if storedErr, exists := c.initErrors["recordSigner"]; exists {
		return nil, storedErr
	}
	return c.recordSigner, nil
}
