package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
)

// RunCheckPassphrase scores a candidate vault passphrase and reports the
// advisory result.
//
// The passphrase is read from the reader rather than taken as a flag so it
// never lands in shell history or process listings.
func RunCheckPassphrase(reader io.Reader, writer io.Writer, format string) error {
	_, _ = fmt.Fprint(writer, "Enter passphrase: ")

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
		return fmt.Errorf("no passphrase provided")
	}
	passphrase := strings.TrimRight(scanner.Text(), "\r\n")

	strength := cryptoService.CheckPassphrase(passphrase)

	if format == "json" {
		out := map[string]interface{}{
			"score": strength.Score,
			"valid": strength.Valid,
		}
		jsonBytes, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
		return nil
	}

	_, _ = fmt.Fprintf(writer, "\nScore: %d/100\n", strength.Score)
	if strength.Valid {
		_, _ = fmt.Fprintln(writer, "Status: ACCEPTABLE")
	} else {
		_, _ = fmt.Fprintf(writer, "Status: WEAK (minimum score is %d)\n", cryptoService.PassphraseValidThreshold)
	}

	return nil
}
