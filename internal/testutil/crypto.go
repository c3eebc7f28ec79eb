package testutil

import (
	"encoding/base64"
	"testing"

	"github.com/mythictransfers/supportdesk/internal/crypto"
)

// TestEncryptionKey is a fixed base64 key for tests.
var TestEncryptionKey = func() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}()

// GetTestSealer returns a Sealer with a deterministic key.
func GetTestSealer(t *testing.T) *crypto.Sealer {
	t.Helper()

	sealer, err := crypto.NewSealer(TestEncryptionKey)
	if err != nil {
		t.Fatalf("Failed to create sealer: %v", err)
	}
	return sealer
}
