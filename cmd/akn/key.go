package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/akn/keys"
)

func openKeyStore(opts *RootOptions) (*keys.Store, error) {
	store, err := keys.NewStore(opts.Config.KeysDir)
	if err != nil {
		return nil, failure("open key store", err)
	}
	return store, nil
}

// NewKeyCommand creates the key command group.
func NewKeyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage local Ed25519 signing keys",
		Long: `Manage local Ed25519 signing keys.

Keys live under keys_dir (default ~/.akn/keys) as <signer>/root.key and
<signer>/roles/<role>.key. Role keys are derived deterministically from the
signer's root key.`,
	}
	cmd.AddCommand(newKeyInitCommand(opts))
	cmd.AddCommand(newKeyDeriveCommand(opts))
	cmd.AddCommand(newKeyExportCommand(opts))
	cmd.AddCommand(newKeyListCommand(opts))
	return cmd
}

func newKeyInitCommand(opts *RootOptions) *cobra.Command {
	var (
		seedHex string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init <signer>",
		Short: "Create a signer's root key",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer := args[0]
			if err := keys.CheckName("signer", signer); err != nil {
				return usageError("invalid signer", err)
			}

			var seed []byte
			if seedHex != "" {
				var err error
				if seed, err = keys.ParseSeedHex(seedHex); err != nil {
					return usageError("invalid --seed-hex", err)
				}
			} else {
				seed = make([]byte, ed25519.SeedSize)
				if _, err := rand.Read(seed); err != nil {
					return failure("rand", err)
				}
			}

			store, err := openKeyStore(opts)
			if err != nil {
				return err
			}
			publicKey, path, err := store.Init(signer, seed, force)
			if err != nil {
				return failure("write key", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created root key: %s\nStored at: %s\n", publicKey, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "Ed25519 seed as 64 hex chars (default: random)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key")
	return cmd
}

func newKeyDeriveCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "derive <signer> <role>",
		Short: "Derive a role key from a signer's root key",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, role := args[0], args[1]
			if err := keys.CheckName("signer", signer); err != nil {
				return usageError("invalid signer", err)
			}
			if err := keys.CheckName("role", role); err != nil {
				return usageError("invalid role", err)
			}
			store, err := openKeyStore(opts)
			if err != nil {
				return err
			}
			publicKey, path, err := store.Derive(signer, role, force)
			if err != nil {
				return failure("derive role key", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created role key: %s\nStored at: %s\n", publicKey, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key")
	return cmd
}

func newKeyExportCommand(opts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "export <signer>",
		Short: "Print a stored key's public key",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKeyStore(opts)
			if err != nil {
				return err
			}
			publicKey, err := store.Export(args[0], role)
			if err != nil {
				return failure("export key", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), publicKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "export the derived role key instead of the root key")
	return cmd
}

func newKeyListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored signers and their roles",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKeyStore(opts)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return failure("list keys", err)
			}
			w := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(w, e.Signer)
				for _, r := range e.Roles {
					fmt.Fprintf(w, "  - %s\n", r)
				}
			}
			return nil
		},
	}
}
