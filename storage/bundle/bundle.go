// Package bundle moves archived documents between stores as a deterministic TAR
// file.
//
// Layout:
//
//	objects/<cid>   one entry per stored object (payload or full text)
//	index.yaml      the documents in the bundle, each with its payload CID
//
// The same set of documents always produces the same bytes: entries are sorted
// and TAR headers carry no owner or time information.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"gopkg.in/yaml.v3"

	"xdao.co/akn/cidutil"
	"xdao.co/akn/storage"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	objectsDir = "objects/"
	indexName  = "index.yaml"
)

var epoch0 = time.Unix(0, 0).UTC()

var ErrNoIndex = errors.New("bundle: missing index.yaml")

type index struct {
	Version   int          `yaml:"version"`
	Documents []indexEntry `yaml:"documents"`
}

type indexEntry struct {
	Document string `yaml:"document"`
	Payload  string `yaml:"payload"`
}

// Export writes the objects behind receipts, read from cas, to w.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, receipts []storage.Receipt) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	objects := map[string]cid.Cid{}
	byDocument := map[string]indexEntry{}
	for _, r := range receipts {
		if !r.DocumentCID.Defined() || !r.PayloadCID.Defined() {
			return storage.ErrInvalidCID
		}
		objects[r.DocumentCID.String()] = r.DocumentCID
		objects[r.PayloadCID.String()] = r.PayloadCID
		byDocument[r.DocumentCID.String()] = indexEntry{Document: r.DocumentCID.String(), Payload: r.PayloadCID.String()}
	}

	tw := tar.NewWriter(w)
	for _, name := range sortedKeys(objects) {
		b, err := cas.Get(ctx, objects[name])
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", name, err)
		}
		if err := writeFile(tw, objectsDir+name, b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	idx := index{Version: FormatVersion}
	for _, name := range sortedKeys(byDocument) {
		idx.Documents = append(idx.Documents, byDocument[name])
	}
	b, err := yaml.Marshal(idx)
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeFile(tw, indexName, b); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// Import stores every object of the bundle in cas and returns the receipts listed
// in its index. Unknown entries, duplicates and objects whose bytes do not match
// their name are rejected. Index entries must refer to objects in the bundle.
func Import(ctx context.Context, r io.Reader, cas storage.CAS) ([]storage.Receipt, error) {
	if cas == nil {
		return nil, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var idx *index

	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}

		switch {
		case name == indexName:
			if idx != nil {
				return nil, fmt.Errorf("bundle: duplicate %s", indexName)
			}
			idx = new(index)
			if err := yaml.Unmarshal(data, idx); err != nil {
				return nil, fmt.Errorf("bundle: %s: %w", indexName, err)
			}
		case strings.HasPrefix(name, objectsDir):
			key := strings.TrimPrefix(name, objectsDir)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("bundle: duplicate object: %s", key)
			}
			seen[key] = struct{}{}
			if err := importObject(ctx, cas, key, data); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("bundle: unknown entry: %s", name)
		}
	}

	if idx == nil {
		return nil, ErrNoIndex
	}
	if idx.Version != FormatVersion {
		return nil, fmt.Errorf("bundle: unsupported index version %d", idx.Version)
	}
	receipts := make([]storage.Receipt, 0, len(idx.Documents))
	for _, e := range idx.Documents {
		var rc storage.Receipt
		var err error
		if rc.DocumentCID, err = indexedCID(e.Document, seen); err != nil {
			return nil, err
		}
		if rc.PayloadCID, err = indexedCID(e.Payload, seen); err != nil {
			return nil, err
		}
		receipts = append(receipts, rc)
	}
	return receipts, nil
}

func importObject(ctx context.Context, cas storage.CAS, name string, data []byte) error {
	id, err := cidutil.Parse(name)
	if err != nil {
		return storage.ErrInvalidCID
	}
	ok, err := cidutil.Verify(id, data)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrCIDMismatch
	}
	put, err := cas.Put(ctx, data)
	if err != nil {
		return err
	}
	if !put.Equals(id) {
		return storage.ErrCIDMismatch
	}
	return nil
}

func indexedCID(s string, objects map[string]struct{}) (cid.Cid, error) {
	if _, ok := objects[s]; !ok {
		return cid.Undef, fmt.Errorf("bundle: index refers to missing object %q", s)
	}
	return cidutil.Parse(s)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
