package akn

import (
	"errors"
	"fmt"

	"xdao.co/akn/cidutil"
	"xdao.co/akn/skeleton"
	"xdao.co/akn/tree"
	"xdao.co/akn/wire"
)

// SetEncodeOptions changes how Render and RenderPayload lay out text. Signatures
// are only valid over the layout they were computed with.
func (d *Document) SetEncodeOptions(opts wire.EncodeOptions) {
	d.opts = opts
}

// Render returns the full document text, conclusions included when present.
func (d *Document) Render() ([]byte, error) {
	return d.render(true)
}

// RenderPayload returns the document text without conclusions. This is the text
// signatures are computed over; adding signatures never changes it.
func (d *Document) RenderPayload() ([]byte, error) {
	return d.render(false)
}

func (d *Document) render(withConclusions bool) ([]byte, error) {
	if d.root == nil {
		return nil, wrapError(KindRender, "AKN-RENDER-001", "render", ErrEmptyDocument)
	}
	t := d.root.Clone()
	if withConclusions && d.conclusions != nil {
		doc := docNode(t)
		if doc == nil {
			return nil, newError(KindInternal, "AKN-INT-001", "document tree lost its doc element")
		}
		// conclusions must stay the last child of doc: the payload is the full
		// text with this element cut out.
		doc.Set(skeleton.Conclusions, d.conclusions.tree())
	}
	b, err := wire.Encode(t, d.opts)
	if err != nil {
		return nil, wrapError(KindRender, "AKN-RENDER-002", "encode document", err)
	}
	return b, nil
}

// PayloadCID returns the content identifier of RenderPayload's output.
func (d *Document) PayloadCID() (string, error) {
	b, err := d.RenderPayload()
	if err != nil {
		return "", err
	}
	return cidutil.String(b)
}

// CID returns the content identifier of Render's output.
func (d *Document) CID() (string, error) {
	b, err := d.Render()
	if err != nil {
		return "", err
	}
	return cidutil.String(b)
}

// Parse reads a document from its text form. The conclusions section, if any,
// becomes the signature ledger, and the signature counter continues after the
// highest sequence number found there.
//
// Text that is well-formed XML but not rooted at akomaNtoso/doc yields a nil
// document and an error matching ErrNotDocument.
func Parse(text []byte) (*Document, error) {
	root, err := wire.Decode(text)
	if err != nil {
		if errors.Is(err, wire.ErrNoRoot) {
			return nil, wrapError(KindParse, "AKN-PARSE-010", "parse", ErrNotDocument)
		}
		return nil, wrapError(KindParse, "AKN-PARSE-001", "decode document", err)
	}
	doc := docNode(root)
	if doc == nil {
		return nil, wrapError(KindParse, "AKN-PARSE-010", "parse", ErrNotDocument)
	}

	d := New()
	if raw, ok := doc.Get(skeleton.Conclusions); ok {
		doc.Delete(skeleton.Conclusions)
		c, err := parseConclusions(raw)
		if err != nil {
			return nil, err
		}
		if c != nil {
			d.conclusions = c
			maxSeq := 0
			for _, s := range c.signatures {
				maxSeq = max(maxSeq, s.Seq)
			}
			d.ids.reseedSignatures(max(maxSeq, len(c.signatures)))
		}
	}
	normalize(doc)
	d.root = root
	return d, nil
}

func parseConclusions(raw any) (*conclusions, error) {
	frame, ok := raw.(*tree.Object)
	if !ok {
		// <conclusions/> or text only: no records.
		return nil, nil
	}
	frame = frame.Clone()
	items := frame.List(skeleton.Signature)
	if len(items) == 0 {
		return nil, nil
	}
	frame.Set(skeleton.Signature, []any{})

	c := &conclusions{frame: frame}
	for i, item := range items {
		record, ok := item.(*tree.Object)
		if !ok {
			return nil, newError(KindParse, "AKN-PARSE-030", fmt.Sprintf("signature %d has no content", i+1))
		}
		sig, err := signatureFromRecord(record)
		if err != nil {
			return nil, err
		}
		c.signatures = append(c.signatures, sig)
		c.records = append(c.records, record)
	}
	return c, nil
}

// normalize restores list shape at the positions that always hold repeated
// elements, since a single XML element reads back as a single value.
func normalize(doc *tree.Object) {
	if refs := doc.Object(skeleton.Meta).Object(skeleton.References); refs != nil {
		for _, name := range refs.Keys() {
			if tree.IsElement(name) {
				refs.Set(name, refs.List(name))
			}
		}
	}

	switch body, _ := doc.Get(skeleton.MainBody); b := body.(type) {
	case *tree.Object:
		b.Set(skeleton.Block, listOrEmpty(b.List(skeleton.Block)))
	case string:
		doc.Set(skeleton.MainBody, tree.Of(skeleton.Block, []any{}))
	}
}

func listOrEmpty(l []any) []any {
	if l == nil {
		return []any{}
	}
	return l
}
