package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

const (
	SchemeEd25519    = "ed25519"
	SchemeDilithium3 = "dilithium3"
)

// DefaultHash is used when no hash algorithm is configured.
const DefaultHash = "sha256"

var (
	ErrUnsupported  = errors.New("keys: unsupported algorithm")
	ErrBadSignature = errors.New("keys: signature does not verify")
)

// Signer produces signature values over payloads.
type Signer interface {
	// PublicKey returns the "<scheme>:<base64>" public key string.
	PublicKey() string
	// Sign returns "<hashAlg>:<base64>" over hashAlg(payload).
	Sign(payload []byte, hashAlg string) (string, error)
}

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: hash %q", ErrUnsupported, hashAlg)
	}
}

// CheckHash reports whether hashAlg can be used for signing.
func CheckHash(hashAlg string) error {
	_, err := digestFor(hashAlg, nil)
	return err
}

func formatValue(hashAlg string, sig []byte) string {
	return hashAlg + ":" + base64.StdEncoding.EncodeToString(sig)
}

// Ed25519Signer signs with an Ed25519 private key.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer returns a signer for the key derived from a 32-byte seed.
func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *Ed25519Signer) PublicKey() string {
	return PublicKeyString(s.priv.Public().(ed25519.PublicKey))
}

func (s *Ed25519Signer) Sign(payload []byte, hashAlg string) (string, error) {
	digest, err := digestFor(hashAlg, payload)
	if err != nil {
		return "", err
	}
	return formatValue(hashAlg, ed25519.Sign(s.priv, digest)), nil
}

// PublicKeyString encodes an Ed25519 public key as "ed25519:<base64>".
func PublicKeyString(pub ed25519.PublicKey) string {
	return SchemeEd25519 + ":" + base64.StdEncoding.EncodeToString(pub)
}

// PublicKeyFromSeed returns the public key string of the Ed25519 key for seed.
func PublicKeyFromSeed(seed []byte) (string, error) {
	s, err := NewEd25519Signer(seed)
	if err != nil {
		return "", err
	}
	return s.PublicKey(), nil
}

// Dilithium3Signer signs with a Dilithium3 (mode3) private key.
type Dilithium3Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

// GenerateDilithium3 creates a new Dilithium3 signer from rand.
func GenerateDilithium3(rand io.Reader) (*Dilithium3Signer, error) {
	pk, sk, err := mode3.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return &Dilithium3Signer{pub: pk, priv: sk}, nil
}

func (s *Dilithium3Signer) PublicKey() string {
	return SchemeDilithium3 + ":" + base64.StdEncoding.EncodeToString(s.pub.Bytes())
}

func (s *Dilithium3Signer) Sign(payload []byte, hashAlg string) (string, error) {
	if s.priv == nil {
		return "", fmt.Errorf("missing private key")
	}
	digest, err := digestFor(hashAlg, payload)
	if err != nil {
		return "", err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest, sig)
	return formatValue(hashAlg, sig), nil
}
