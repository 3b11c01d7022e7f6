package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store keeps Ed25519 seeds on the local filesystem:
//
//	<dir>/<signer>/root.key
//	<dir>/<signer>/roles/<role>.key
//
// Each file holds the hex seed and a newline.
type Store struct {
	Dir string
}

// Entry lists one signer and the roles derived for it.
type Entry struct {
	Signer string
	Roles  []string
}

// DefaultDir returns ~/.akn/keys.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".akn", "keys"), nil
}

// NewStore returns a store rooted at dir, or at DefaultDir when dir is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Dir: dir}, nil
}

// CheckName validates a signer or role name used as a path segment.
func CheckName(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

// ParseSeedHex decodes a 32-byte hex seed, with or without a 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (s *Store) rootPath(signer string) string {
	return filepath.Join(s.Dir, signer, "root.key")
}

func (s *Store) rolePath(signer, role string) string {
	return filepath.Join(s.Dir, signer, "roles", role+".key")
}

// path validates signer and role and returns the key file; an empty role names
// the root key.
func (s *Store) path(signer, role string) (string, error) {
	if err := CheckName("signer", signer); err != nil {
		return "", err
	}
	if role == "" {
		return s.rootPath(signer), nil
	}
	if err := CheckName("role", role); err != nil {
		return "", err
	}
	return s.rolePath(signer, role), nil
}

func writeSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return f.Close()
}

func readSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// Init stores seed as the signer's root key and returns its public key string.
// An existing key is only replaced when overwrite is set.
func (s *Store) Init(signer string, seed []byte, overwrite bool) (publicKey, path string, err error) {
	path, err = s.path(signer, "")
	if err != nil {
		return "", "", err
	}
	publicKey, err = PublicKeyFromSeed(seed)
	if err != nil {
		return "", "", err
	}
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return publicKey, path, nil
}

// Derive creates the signer's key for role from its root key.
func (s *Store) Derive(signer, role string, overwrite bool) (publicKey, path string, err error) {
	if role == "" {
		return "", "", errors.New("role cannot be empty")
	}
	path, err = s.path(signer, role)
	if err != nil {
		return "", "", err
	}
	root, err := readSeed(s.rootPath(signer))
	if err != nil {
		return "", "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return "", "", err
	}
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = PublicKeyFromSeed(seed)
	return publicKey, path, err
}

// Export returns the public key string of a stored key. An empty role selects the
// root key.
func (s *Store) Export(signer, role string) (string, error) {
	seed, err := s.seed(signer, role)
	if err != nil {
		return "", err
	}
	return PublicKeyFromSeed(seed)
}

// Signer loads a stored key for signing. An empty role selects the root key.
func (s *Store) Signer(signer, role string) (*Ed25519Signer, error) {
	seed, err := s.seed(signer, role)
	if err != nil {
		return nil, err
	}
	return NewEd25519Signer(seed)
}

func (s *Store) seed(signer, role string) ([]byte, error) {
	path, err := s.path(signer, role)
	if err != nil {
		return nil, err
	}
	return readSeed(path)
}

// List returns the stored signers and their roles, sorted by name. A missing
// store directory lists as empty.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var signers []string
	for _, e := range entries {
		if e.IsDir() {
			signers = append(signers, e.Name())
		}
	}
	sort.Strings(signers)

	var out []Entry
	for _, signer := range signers {
		roleEntries, err := os.ReadDir(filepath.Join(s.Dir, signer, "roles"))
		var roles []string
		if err == nil {
			for _, re := range roleEntries {
				if !re.IsDir() && strings.HasSuffix(re.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(re.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		out = append(out, Entry{Signer: signer, Roles: roles})
	}
	return out, nil
}
