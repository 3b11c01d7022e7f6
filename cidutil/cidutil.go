// Package cidutil derives the content identifiers documents are archived under:
// CIDv1 with the "raw" multicodec over a sha2-256 multihash.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CIDv1 (raw + sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the CIDv1 of data in its default string encoding.
func String(data []byte) (string, error) {
	id, err := Sum(data)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Parse decodes a CID string and rejects anything that is not a raw sha2-256
// CIDv1, the only form this module produces.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if id.Version() != 1 || id.Type() != cid.Raw {
		return cid.Undef, fmt.Errorf("cidutil: %s is not a raw CIDv1", s)
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return cid.Undef, err
	}
	if dec.Code != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("cidutil: %s uses multihash %s, want sha2-256", s, multihash.Codes[dec.Code])
	}
	return id, nil
}

// Verify reports whether id is the CID of data.
func Verify(id cid.Cid, data []byte) (bool, error) {
	got, err := Sum(data)
	if err != nil {
		return false, err
	}
	return got.Equals(id), nil
}
