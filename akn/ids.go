package akn

import (
	"regexp"
	"strconv"
)

// allocator hands out the per-document counters behind structural identifiers.
// Counters only move forward.
type allocator struct {
	blocks     int
	signatures int
}

func (a *allocator) nextBlock() BlockIDs {
	a.blocks++
	return blockIDs(a.blocks)
}

func (a *allocator) nextSignature() int {
	a.signatures++
	return a.signatures
}

// reseedSignatures moves the signature counter up to at least n.
func (a *allocator) reseedSignatures(n int) {
	if n > a.signatures {
		a.signatures = n
	}
}

// BlockIDs are the identifiers of one main body block. Heading and paragraph
// reuse the block's number.
type BlockIDs struct {
	Block     string
	Heading   string
	Paragraph string
}

func blockIDs(n int) BlockIDs {
	b := "tblock_" + strconv.Itoa(n)
	return BlockIDs{
		Block:     b,
		Heading:   b + "__heading",
		Paragraph: b + "__p_" + strconv.Itoa(n),
	}
}

// PersonIDs are the identifiers of the parts of one person signature.
type PersonIDs struct {
	Person       string
	Role         string
	PublicKey    string
	PublicKeyRef string
	Timestamp    string
}

func signaturePrefix(seq int) string {
	return "conclusion_signature_" + strconv.Itoa(seq)
}

func personIDs(seq int) PersonIDs {
	p := signaturePrefix(seq)
	return PersonIDs{
		Person:       p + "_pers",
		Role:         p + "_pers_role",
		PublicKey:    p + "_pk",
		PublicKeyRef: p + "_pk_ref",
		Timestamp:    p + "_timestamp",
	}
}

func softwareID(seq int) string {
	return signaturePrefix(seq) + "_sw"
}

var signatureIDPattern = regexp.MustCompile(`^conclusion_signature_([0-9]+)_`)

// signatureSeq extracts the sequence number embedded in a signature identifier.
func signatureSeq(eID string) (int, bool) {
	m := signatureIDPattern.FindStringSubmatch(eID)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
