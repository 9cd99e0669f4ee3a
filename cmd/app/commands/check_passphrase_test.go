package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCheckPassphrase(t *testing.T) {
	t.Run("success-text-acceptable", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCheckPassphrase(strings.NewReader("correct horse battery staple 1!\n"), &out, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Status: ACCEPTABLE")
	})

	t.Run("success-text-weak", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCheckPassphrase(strings.NewReader("password\n"), &out, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Score: 0/100")
		require.Contains(t, out.String(), "Status: WEAK")
	})

	t.Run("success-json", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCheckPassphrase(strings.NewReader("correct horse battery staple 1!\n"), &out, "json")
		require.NoError(t, err)

		// Skip the interactive prompt before the JSON document.
		raw := out.String()
		raw = raw[strings.Index(raw, "{"):]

		var result map[string]interface{}
		err = json.Unmarshal([]byte(raw), &result)
		require.NoError(t, err)
		require.Equal(t, true, result["valid"])
		require.Greater(t, result["score"], float64(0))
	})

	t.Run("no-input", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCheckPassphrase(strings.NewReader(""), &out, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no passphrase provided")
	})
}
