package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Verify checks a "<hash>:<base64>" signature value against payload using a
// "<scheme>:<base64>" public key. It returns ErrBadSignature when the signature
// is well-formed but does not match.
func Verify(publicKey, value string, payload []byte) error {
	scheme, rawKey, err := splitEncoded(publicKey, "public key")
	if err != nil {
		return err
	}
	hashAlg, sig, err := splitEncoded(value, "signature")
	if err != nil {
		return err
	}
	digest, err := digestFor(hashAlg, payload)
	if err != nil {
		return err
	}

	switch scheme {
	case SchemeEd25519:
		if len(rawKey) != ed25519.PublicKeySize {
			return fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(rawKey))
		}
		if !ed25519.Verify(ed25519.PublicKey(rawKey), digest, sig) {
			return ErrBadSignature
		}
	case SchemeDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(rawKey); err != nil {
			return fmt.Errorf("dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return ErrBadSignature
		}
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsupported, scheme)
	}
	return nil
}

func splitEncoded(s, what string) (string, []byte, error) {
	prefix, b64, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || prefix == "" {
		return "", nil, fmt.Errorf("%s %q: want <algorithm>:<base64>", what, s)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", what, err)
	}
	return prefix, raw, nil
}
