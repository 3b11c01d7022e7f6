// Package storage defines the content-addressed store rendered documents are
// archived in, the fallback and replicating compositions of several stores, and
// the Archive that keeps a document's payload and full text side by side.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be the raw sha2-256 CIDv1 of the bytes written (see cidutil).
// - Get MUST return ErrNotFound when the CID is absent.
// - Undefined CIDs are rejected with ErrInvalidCID.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
