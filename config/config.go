// Package config loads the YAML configuration shared by the akn CLI and the
// archive daemon.
//
// Example:
//
//	keys_dir: ~/.akn/keys
//	hash_alg: sha256
//	indent: 2
//	archive:
//	  write_policy: all
//	  backends:
//	    - name: local
//	      kind: localfs
//	      dir: /var/lib/akn
//	    - name: remote
//	      kind: grpc
//	      target: archive.internal:7070
//	      dial_timeout: 5s
//	      timeout: 10s
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"xdao.co/akn/keys"
	"xdao.co/akn/storage"
	"xdao.co/akn/storage/grpccas"
	"xdao.co/akn/storage/localfs"
	"xdao.co/akn/wire"
)

const (
	KindLocalFS = "localfs"
	KindGRPC    = "grpc"

	WriteFirst = "first"
	WriteAll   = "all"
)

// Config is the top-level configuration.
type Config struct {
	// KeysDir is the key store directory. Empty means ~/.akn/keys.
	KeysDir string `yaml:"keys_dir,omitempty"`
	// HashAlg is the digest signatures are computed over.
	HashAlg string `yaml:"hash_alg,omitempty"`
	// Indent is the number of spaces per level in rendered documents.
	Indent  int     `yaml:"indent"`
	Archive Archive `yaml:"archive"`
}

// Archive describes the stores documents are archived in.
//
// WritePolicy "first" writes only to the first backend and reads fall back in
// order; "all" writes to every backend and requires matching CIDs.
type Archive struct {
	WritePolicy string    `yaml:"write_policy,omitempty"`
	Backends    []Backend `yaml:"backends"`
}

// Backend is one archive store.
type Backend struct {
	// Name identifies the backend in logs and replication results. Defaults to Kind.
	Name string `yaml:"name,omitempty"`
	Kind string `yaml:"kind"`

	// localfs
	Dir string `yaml:"dir,omitempty"`

	// grpc
	Target      string        `yaml:"target,omitempty"`
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxMsgBytes int           `yaml:"max_msg_bytes,omitempty"`
}

// ID returns the backend's name, falling back to its kind.
func (b Backend) ID() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Kind
}

// Default returns the configuration used when no file is given: sha256
// signatures, two-space indentation and a local archive under ~/.akn/archive.
func Default() Config {
	dir := filepath.Join(".akn", "archive")
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, dir)
	}
	return Config{
		HashAlg: keys.DefaultHash,
		Indent:  wire.DefaultEncodeOptions.Indent,
		Archive: Archive{
			WritePolicy: WriteFirst,
			Backends:    []Backend{{Kind: KindLocalFS, Dir: dir}},
		},
	}
}

// Load reads a configuration file. Fields the file leaves out keep their
// Default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config: empty config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes a configuration document over Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.KeysDir = expandHome(cfg.KeysDir)
	for i := range cfg.Archive.Backends {
		cfg.Archive.Backends[i].Dir = expandHome(cfg.Archive.Backends[i].Dir)
	}
	return cfg, cfg.Validate()
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := keys.CheckHash(c.HashAlg); err != nil {
		return fmt.Errorf("config: hash_alg: %w", err)
	}
	if c.Indent < 0 {
		return fmt.Errorf("config: indent must not be negative, got %d", c.Indent)
	}
	return c.Archive.Validate()
}

func (a Archive) Validate() error {
	if len(a.Backends) == 0 {
		return errors.New("config: archive: at least one backend is required")
	}
	switch a.WritePolicy {
	case "", WriteFirst, WriteAll:
	default:
		return fmt.Errorf("config: archive: invalid write_policy %q", a.WritePolicy)
	}
	seen := make(map[string]struct{}, len(a.Backends))
	for i, b := range a.Backends {
		id := b.ID()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("config: archive: duplicate backend name %q", id)
		}
		seen[id] = struct{}{}
		switch b.Kind {
		case KindLocalFS:
			if b.Dir == "" {
				return fmt.Errorf("config: archive.backends[%d]: localfs requires dir", i)
			}
		case KindGRPC:
			if b.Target == "" {
				return fmt.Errorf("config: archive.backends[%d]: grpc requires target", i)
			}
		default:
			return fmt.Errorf("config: archive.backends[%d]: unknown kind %q", i, b.Kind)
		}
	}
	return nil
}

// EncodeOptions returns the rendering options the configuration selects.
func (c Config) EncodeOptions() wire.EncodeOptions {
	opts := wire.DefaultEncodeOptions
	opts.Indent = c.Indent
	return opts
}

// OpenArchive opens every configured backend and combines them according to
// the write policy. The returned function closes the backends.
func (c Config) OpenArchive(ctx context.Context) (*storage.Archive, func() error, error) {
	if err := c.Archive.Validate(); err != nil {
		return nil, nil, err
	}

	named := make([]storage.NamedCAS, 0, len(c.Archive.Backends))
	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range c.Archive.Backends {
		cas, closeFn, err := openBackend(ctx, b)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("config: open backend %q: %w", b.ID(), err)
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		named = append(named, storage.NamedCAS{Name: b.ID(), CAS: cas})
	}

	if len(named) == 1 {
		return storage.NewArchive(named[0].CAS), closeAll, nil
	}
	if c.Archive.WritePolicy == WriteAll {
		return storage.NewArchive(storage.ReplicatingCAS{Backends: named}), closeAll, nil
	}
	adapters := make([]storage.CAS, len(named))
	for i, n := range named {
		adapters[i] = n.CAS
	}
	return storage.NewArchive(storage.MultiCAS{Adapters: adapters}), closeAll, nil
}

func openBackend(ctx context.Context, b Backend) (storage.CAS, func() error, error) {
	switch b.Kind {
	case KindLocalFS:
		cas, err := localfs.New(b.Dir)
		return cas, nil, err
	case KindGRPC:
		client, err := grpccas.Dial(ctx, b.Target, grpccas.DialOptions{
			Timeout:     b.DialTimeout,
			MaxMsgBytes: b.MaxMsgBytes,
		})
		if err != nil {
			return nil, nil, err
		}
		client.Timeout = b.Timeout
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown kind %q", b.Kind)
	}
}
