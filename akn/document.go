package akn

import (
	"xdao.co/akn/skeleton"
	"xdao.co/akn/tree"
	"xdao.co/akn/wire"
)

// Document is one Akoma Ntoso document instance.
type Document struct {
	// root holds akomaNtoso/doc without conclusions. nil until assembled or parsed.
	root *tree.Object
	// conclusions is nil until the first signature is added.
	conclusions *conclusions
	ids         allocator
	opts        wire.EncodeOptions
}

// New returns an empty document.
func New() *Document {
	return &Document{opts: wire.DefaultEncodeOptions}
}

// Empty reports whether the document has neither been assembled nor parsed.
func (d *Document) Empty() bool {
	return d.root == nil
}

// Tree returns a copy of the metadata and body tree, rooted at akomaNtoso. The
// conclusions are not part of it. It returns nil for an empty document.
func (d *Document) Tree() *tree.Object {
	return d.root.Clone()
}

// HasConclusions reports whether at least one signature has been recorded.
func (d *Document) HasConclusions() bool {
	return d.conclusions != nil
}

// Clone returns an independent copy of the document, ledger and counters included.
func (d *Document) Clone() *Document {
	return &Document{
		root:        d.root.Clone(),
		conclusions: d.conclusions.clone(),
		ids:         d.ids,
		opts:        d.opts,
	}
}

// Signatures returns a copy of the signature ledger in call order. Mutating the
// result does not affect the document.
func (d *Document) Signatures() []Signature {
	if d.conclusions == nil {
		return nil
	}
	return cloneSignatures(d.conclusions.signatures)
}

// docNode returns akomaNtoso/doc of t, or nil.
func docNode(t *tree.Object) *tree.Object {
	return t.Object(skeleton.Root).Object(skeleton.Doc)
}
