package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

const deriveLabel = "akn-signer-v1"

// DeriveRoleSeed deterministically derives the Ed25519 seed a signer uses when
// acting in role. The same root seed and role always give the same key, so a
// role key can be re-created from the root alone.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckName("role", role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(deriveLabel))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	return h.Sum(nil)[:ed25519.SeedSize], nil
}
