package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xdao.co/akn/akn"
)

// readFile reads path, or the command's stdin for "-".
func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or to the command's stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadInput decodes an assembly description. JSON is valid YAML and is accepted
// as well.
func loadInput(data []byte) (akn.Input, error) {
	var in akn.Input
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return akn.Input{}, err
	}
	return in, nil
}

// loadDocument parses a document file and applies the configured layout.
func loadDocument(cmd *cobra.Command, opts *RootOptions, path string) (*akn.Document, error) {
	text, err := readFile(cmd, path)
	if err != nil {
		return nil, usageError("read document", err)
	}
	doc, err := akn.Parse(text)
	if err != nil {
		return nil, usageError(fmt.Sprintf("parse %s", path), err)
	}
	doc.SetEncodeOptions(opts.Config.EncodeOptions())
	opts.Logger.Debug("document loaded", "path", path, "signatures", len(doc.Signatures()))
	return doc, nil
}

func renderTo(cmd *cobra.Command, doc *akn.Document, output string) error {
	text, err := doc.Render()
	if err != nil {
		return failure("render", err)
	}
	return writeOutput(cmd, output, text)
}

// NewAssembleCommand creates the assemble command.
func NewAssembleCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "assemble <input.yaml>",
		Short: "Build a document from a YAML description",
		Long: `Build a document from a YAML (or JSON) description with the keys
identification, references, prefaceTitle and mainBody.

Example:
  akn assemble contract.yaml -o contract.xml`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, args[0])
			if err != nil {
				return usageError("read input", err)
			}
			in, err := loadInput(data)
			if err != nil {
				return usageError(fmt.Sprintf("decode %s", args[0]), err)
			}
			doc, err := akn.Assemble(in)
			if err != nil {
				return usageError("assemble", err)
			}
			doc.SetEncodeOptions(opts.Config.EncodeOptions())
			opts.Logger.Debug("assembled", "blocks", len(in.MainBody), "references", len(in.References))
			return renderTo(cmd, doc, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document here instead of stdout")
	return cmd
}

// NewPayloadCommand creates the payload command.
func NewPayloadCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "payload <document.xml>",
		Short: "Print the document text signatures are computed over",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			text, err := doc.RenderPayload()
			if err != nil {
				return failure("render payload", err)
			}
			return writeOutput(cmd, output, text)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the payload here instead of stdout")
	return cmd
}

// NewCIDCommand creates the cid command.
func NewCIDCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cid <document.xml>",
		Short: "Print the payload and document content identifiers",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			payloadCID, err := doc.PayloadCID()
			if err != nil {
				return failure("payload cid", err)
			}
			docCID, err := doc.CID()
			if err != nil {
				return failure("document cid", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payload  %s\ndocument %s\n", payloadCID, docCID)
			return nil
		},
	}
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document.xml>",
		Short: "Summarize a document and its signatures",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, opts, args[0])
			if err != nil {
				return err
			}
			payloadCID, err := doc.PayloadCID()
			if err != nil {
				return failure("payload cid", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "payload: %s\n", payloadCID)
			fmt.Fprintf(w, "signatures: %d\n", len(doc.Signatures()))
			for _, s := range doc.Signatures() {
				switch s.Kind {
				case akn.KindPerson:
					p := s.Person
					fmt.Fprintf(w, "  #%d person %s (%s) as %s (%s) at %s key=%s\n",
						s.Seq, p.SignerName, p.SignerRef, p.RoleName, p.RoleRef,
						p.Timestamp.Format(time.RFC3339), p.KeyMaterial)
				case akn.KindSoftware:
					fmt.Fprintf(w, "  #%d software %s (%s)\n", s.Seq, s.Software.SignerName, s.Software.SignerRef)
				}
			}
			return nil
		},
	}
}
