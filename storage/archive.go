package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/akn/akn"
)

// Receipt names the two objects an archived document occupies.
type Receipt struct {
	// PayloadCID identifies the text without conclusions, the bytes signatures
	// cover. It is shared by every signed version of the same document.
	PayloadCID cid.Cid
	// DocumentCID identifies the full text, conclusions included.
	DocumentCID cid.Cid
}

// Archive stores rendered documents in a CAS.
type Archive struct {
	CAS CAS
}

// NewArchive returns an archive over cas.
func NewArchive(cas CAS) *Archive {
	return &Archive{CAS: cas}
}

// Store renders doc and writes its payload and full text.
func (a *Archive) Store(ctx context.Context, doc *akn.Document) (Receipt, error) {
	payload, err := doc.RenderPayload()
	if err != nil {
		return Receipt{}, err
	}
	full, err := doc.Render()
	if err != nil {
		return Receipt{}, err
	}

	var r Receipt
	if r.PayloadCID, err = a.CAS.Put(ctx, payload); err != nil {
		return Receipt{}, fmt.Errorf("storage: put payload: %w", err)
	}
	if r.DocumentCID, err = a.CAS.Put(ctx, full); err != nil {
		return Receipt{}, fmt.Errorf("storage: put document: %w", err)
	}
	return r, nil
}

// Load reads the text stored under id and parses it. id may name either the full
// text or a payload; a payload loads as an unsigned document.
func (a *Archive) Load(ctx context.Context, id cid.Cid) (*akn.Document, error) {
	text, err := a.CAS.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := akn.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("storage: object %s: %w", id, err)
	}
	return doc, nil
}
