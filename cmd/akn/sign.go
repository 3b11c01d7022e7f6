package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xdao.co/akn/akn"
	"xdao.co/akn/keys"
)

// signingKey selects a stored key.
type signingKey struct {
	Name string
	Role string
}

func (k *signingKey) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.Name, "key", "", "stored signer key name (required)")
	cmd.Flags().StringVar(&k.Role, "key-role", "", "derived role key to sign with (default: root key)")
}

func (k signingKey) load(opts *RootOptions) (*keys.Ed25519Signer, error) {
	if k.Name == "" {
		return nil, usageError("missing --key", nil)
	}
	store, err := keys.NewStore(opts.Config.KeysDir)
	if err != nil {
		return nil, failure("open key store", err)
	}
	signer, err := store.Signer(k.Name, k.Role)
	if err != nil {
		return nil, usageError(fmt.Sprintf("load key %q", k.Name), err)
	}
	return signer, nil
}

// NewSignCommand creates the sign command group.
func NewSignCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Add a signature to a document's conclusions",
		Long: `Add a signature to a document's conclusions. The signature is computed over
the document payload with the configured hash algorithm and a key from the
local key store.`,
	}
	cmd.AddCommand(newSignPersonCommand(opts))
	cmd.AddCommand(newSignSoftwareCommand(opts))
	return cmd
}

func newSignPersonCommand(opts *RootOptions) *cobra.Command {
	var (
		key       signingKey
		in        akn.PersonSignature
		timestamp string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "person <document.xml>",
		Short: "Sign as a person acting in a role",
		Long: `Sign as a person acting in a role.

Example:
  akn sign person contract.xml --key alice --key-role signer \
    --signer-ref sig1 --signer-name Alice --role-ref role1 --role-name Signer -o signed.xml`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Timestamp = time.Now().UTC().Truncate(time.Second)
			if timestamp != "" {
				t, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					return usageError("invalid --timestamp", err)
				}
				in.Timestamp = t
			}

			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			signer, err := key.load(opts)
			if err != nil {
				return err
			}
			payload, err := doc.RenderPayload()
			if err != nil {
				return failure("render payload", err)
			}
			in.Value, err = signer.Sign(payload, opts.Config.HashAlg)
			if err != nil {
				return failure("sign", err)
			}
			in.KeyMaterial = signer.PublicKey()

			sig, err := doc.AddPersonSignature(in)
			if err != nil {
				return usageError("add signature", err)
			}
			opts.Logger.Info("signed", "kind", sig.Kind, "seq", sig.Seq, "signer", in.SignerRef)
			return renderTo(cmd, doc, output)
		},
	}

	key.register(cmd)
	cmd.Flags().StringVar(&in.SignerRef, "signer-ref", "", "reference id of the signing person (required)")
	cmd.Flags().StringVar(&in.SignerName, "signer-name", "", "display name of the signing person")
	cmd.Flags().StringVar(&in.RoleRef, "role-ref", "", "reference id of the role")
	cmd.Flags().StringVar(&in.RoleName, "role-name", "", "display name of the role")
	cmd.Flags().StringVar(&in.KeyHref, "key-href", "", "where the public key is published")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "signing time, RFC 3339 (default: now)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the signed document here instead of stdout")
	return cmd
}

func newSignSoftwareCommand(opts *RootOptions) *cobra.Command {
	var (
		key    signingKey
		in     akn.SoftwareSignature
		output string
	)

	cmd := &cobra.Command{
		Use:   "software <document.xml>",
		Short: "Sign as an automated agent",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			signer, err := key.load(opts)
			if err != nil {
				return err
			}
			payload, err := doc.RenderPayload()
			if err != nil {
				return failure("render payload", err)
			}
			if in.Value, err = signer.Sign(payload, opts.Config.HashAlg); err != nil {
				return failure("sign", err)
			}
			sig, err := doc.AddSoftwareSignature(in)
			if err != nil {
				return usageError("add signature", err)
			}
			opts.Logger.Info("signed", "kind", sig.Kind, "seq", sig.Seq, "signer", in.SignerRef)
			return renderTo(cmd, doc, output)
		},
	}

	key.register(cmd)
	cmd.Flags().StringVar(&in.SignerRef, "signer-ref", "", "reference id of the software agent (required)")
	cmd.Flags().StringVar(&in.SignerName, "signer-name", "", "display name of the software agent")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the signed document here instead of stdout")
	return cmd
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	var softwareKeys map[string]string

	cmd := &cobra.Command{
		Use:   "verify <document.xml>",
		Short: "Check every signature against the document payload",
		Long: `Check every signature against the document payload.

Person signatures carry their public key. Software signatures are checked when
a key is supplied for their signer reference with --software-key ref=key;
otherwise they are reported as skipped.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			payload, err := doc.RenderPayload()
			if err != nil {
				return failure("render payload", err)
			}

			w := cmd.OutOrStdout()
			var failed int
			for _, s := range doc.Signatures() {
				var publicKey, ref string
				switch s.Kind {
				case akn.KindPerson:
					publicKey, ref = s.Person.KeyMaterial, s.Person.SignerRef
				case akn.KindSoftware:
					ref = s.Software.SignerRef
					publicKey = softwareKeys[ref]
				}
				if publicKey == "" {
					fmt.Fprintf(w, "#%d %s %s: skipped (no key)\n", s.Seq, s.Kind, ref)
					continue
				}
				if err := keys.Verify(publicKey, s.Value(), payload); err != nil {
					failed++
					fmt.Fprintf(w, "#%d %s %s: FAILED (%v)\n", s.Seq, s.Kind, ref, err)
					opts.Logger.Debug("verification failed", "seq", s.Seq, "error", err)
					continue
				}
				fmt.Fprintf(w, "#%d %s %s: ok\n", s.Seq, s.Kind, ref)
			}
			if failed > 0 {
				return failure("verify", fmt.Errorf("%d signature(s) failed", failed))
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&softwareKeys, "software-key", nil, "public key for a software signer, as ref=key (repeatable)")
	return cmd
}
