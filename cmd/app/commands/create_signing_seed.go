package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
)

// RunCreateSigningSeed generates a cryptographically secure 32-byte seed for
// audit record signing and prints it as environment variable lines.
//
// When serviceKeyURI is provided the seed is encrypted with the operator's
// service key keeper before output, so only the ciphertext ever reaches the
// environment. Without a keeper the raw base64 seed is printed, which is only
// acceptable for local development. The seed bytes are zeroed before
// returning.
func RunCreateSigningSeed(ctx context.Context, writer io.Writer, serviceKeyURI string) error {
	seed := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(seed); err != nil {
		return fmt.Errorf("failed to generate signing seed: %w", err)
	}
	defer cryptoDomain.Zero(seed)

	output := seed
	if serviceKeyURI != "" {
		keeper, err := cryptoService.NewServiceKeyService().OpenKeeper(ctx, serviceKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open service key keeper: %w", err)
		}

		ciphertext, err := keeper.Encrypt(ctx, seed)
		if err != nil {
			return fmt.Errorf("failed to encrypt signing seed: %w", err)
		}
		output = ciphertext
	}

	encoded := base64.StdEncoding.EncodeToString(output)

	_, _ = fmt.Fprintln(writer, "# Audit Signing Seed Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if serviceKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "SERVICE_KEY_URI=\"%s\"\n", serviceKeyURI)
	} else {
		_, _ = fmt.Fprintln(writer, "# WARNING: seed is unencrypted; set --service-key-uri for production")
	}
	_, _ = fmt.Fprintf(writer, "AUDIT_SIGNING_SEED=\"%s\"\n", encoded)

	return nil
}
