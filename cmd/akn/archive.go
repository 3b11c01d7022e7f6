package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/akn/akn"
	"xdao.co/akn/cidutil"
	"xdao.co/akn/storage"
	"xdao.co/akn/storage/bundle"
)

// withArchive opens the configured archive for the duration of fn.
func withArchive(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *storage.Archive) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	archive, closeFn, err := opts.Config.OpenArchive(ctx)
	if err != nil {
		return failure("open archive", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			opts.Logger.Warn("close archive", "error", err)
		}
	}()
	return fn(ctx, archive)
}

func parseCIDArg(s string) (cid.Cid, error) {
	id, err := cidutil.Parse(s)
	if err != nil {
		return cid.Undef, usageError(fmt.Sprintf("invalid CID %q", s), err)
	}
	return id, nil
}

// NewArchiveCommand creates the archive command group.
func NewArchiveCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and fetch documents in content-addressed storage",
		Long: `Store and fetch documents in the configured archive.

Storing a document writes two objects: its payload (the text signatures
cover) and its full text. Both are addressed by CIDv1 raw sha2-256.`,
	}
	cmd.AddCommand(newArchivePutCommand(opts))
	cmd.AddCommand(newArchiveGetCommand(opts))
	cmd.AddCommand(newArchiveExportCommand(opts))
	cmd.AddCommand(newArchiveImportCommand(opts))
	return cmd
}

func newArchivePutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <document.xml>...",
		Short: "Archive documents and print their CIDs",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, opts, func(ctx context.Context, a *storage.Archive) error {
				for _, path := range args {
					doc, err := loadDocument(cmd, opts, path)
					if err != nil {
						return err
					}
					r, err := a.Store(ctx, doc)
					if err != nil {
						return failure(fmt.Sprintf("archive %s", path), err)
					}
					opts.Logger.Debug("archived", "path", path, "document", r.DocumentCID, "payload", r.PayloadCID)
					fmt.Fprintf(cmd.OutOrStdout(), "%s payload=%s %s\n", r.DocumentCID, r.PayloadCID, path)
				}
				return nil
			})
		},
	}
}

func newArchiveGetCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <cid>",
		Short: "Fetch an archived document",
		Long: `Fetch an archived document. The stored bytes are checked against the CID
and parsed before they are written out.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCIDArg(args[0])
			if err != nil {
				return err
			}
			return withArchive(cmd, opts, func(ctx context.Context, a *storage.Archive) error {
				text, err := a.CAS.Get(ctx, id)
				if err != nil {
					return failure(fmt.Sprintf("get %s", id), err)
				}
				if ok, err := cidutil.Verify(id, text); err != nil || !ok {
					return failure(fmt.Sprintf("get %s", id), storage.ErrCIDMismatch)
				}
				if _, err := akn.Parse(text); err != nil {
					return failure(fmt.Sprintf("get %s", id), err)
				}
				return writeOutput(cmd, output, text)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document here instead of stdout")
	return cmd
}

func newArchiveExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <document-cid>...",
		Short: "Write archived documents and their payloads to a TAR bundle",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]cid.Cid, 0, len(args))
			for _, arg := range args {
				id, err := parseCIDArg(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withArchive(cmd, opts, func(ctx context.Context, a *storage.Archive) error {
				receipts := make([]storage.Receipt, 0, len(ids))
				for _, id := range ids {
					r, err := receiptFor(ctx, opts, a, id)
					if err != nil {
						return err
					}
					receipts = append(receipts, r)
				}
				var buf bytes.Buffer
				if err := bundle.Export(ctx, &buf, a.CAS, receipts); err != nil {
					return failure("export", err)
				}
				opts.Logger.Debug("bundle written", "documents", len(receipts), "bytes", buf.Len())
				return writeOutput(cmd, output, buf.Bytes())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the bundle here instead of stdout")
	return cmd
}

// receiptFor loads the document stored under id and locates its payload object.
func receiptFor(ctx context.Context, opts *RootOptions, a *storage.Archive, id cid.Cid) (storage.Receipt, error) {
	doc, err := a.Load(ctx, id)
	if err != nil {
		return storage.Receipt{}, failure(fmt.Sprintf("load %s", id), err)
	}
	doc.SetEncodeOptions(opts.Config.EncodeOptions())
	s, err := doc.PayloadCID()
	if err != nil {
		return storage.Receipt{}, failure(fmt.Sprintf("payload of %s", id), err)
	}
	payloadCID, err := cidutil.Parse(s)
	if err != nil {
		return storage.Receipt{}, failure(fmt.Sprintf("payload of %s", id), err)
	}
	ok, err := a.CAS.Has(ctx, payloadCID)
	if err != nil {
		return storage.Receipt{}, failure(fmt.Sprintf("payload of %s", id), err)
	}
	if !ok {
		return storage.Receipt{}, failure(fmt.Sprintf("payload of %s", id), fmt.Errorf("%w: %s", storage.ErrNotFound, payloadCID))
	}
	return storage.Receipt{DocumentCID: id, PayloadCID: payloadCID}, nil
}

func newArchiveImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.tar>",
		Short: "Store every object of a TAR bundle in the archive",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, args[0])
			if err != nil {
				return usageError("read bundle", err)
			}
			return withArchive(cmd, opts, func(ctx context.Context, a *storage.Archive) error {
				receipts, err := bundle.Import(ctx, bytes.NewReader(data), a.CAS)
				if err != nil {
					return failure(fmt.Sprintf("import %s", args[0]), err)
				}
				for _, r := range receipts {
					fmt.Fprintf(cmd.OutOrStdout(), "%s payload=%s\n", r.DocumentCID, r.PayloadCID)
				}
				return nil
			})
		},
	}
}
