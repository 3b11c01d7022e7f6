package akn

import (
	"fmt"
	"time"

	"xdao.co/akn/skeleton"
	"xdao.co/akn/tree"
)

// SignerKind discriminates the two signature record variants.
type SignerKind int

const (
	KindPerson SignerKind = iota + 1
	KindSoftware
)

func (k SignerKind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindSoftware:
		return "software"
	default:
		return fmt.Sprintf("SignerKind(%d)", int(k))
	}
}

// PersonSignature is a signature made by a natural person acting in a role.
type PersonSignature struct {
	SignerRef   string
	SignerName  string
	RoleRef     string
	RoleName    string
	KeyHref     string
	KeyMaterial string
	Timestamp   time.Time
	Value       string
}

// SoftwareSignature is a signature made by an automated agent.
type SoftwareSignature struct {
	SignerRef  string
	SignerName string
	Value      string
}

// Signature is one entry of the conclusions ledger. Exactly one of Person and
// Software is set, according to Kind.
type Signature struct {
	Kind     SignerKind
	Seq      int
	Person   *PersonSignature
	Software *SoftwareSignature
}

// Value returns the raw signature value of either variant.
func (s Signature) Value() string {
	switch s.Kind {
	case KindPerson:
		return s.Person.Value
	case KindSoftware:
		return s.Software.Value
	}
	return ""
}

// clone returns s with its variant copied, so the result shares no memory with
// the ledger.
func (s Signature) clone() Signature {
	if s.Person != nil {
		p := *s.Person
		s.Person = &p
	}
	if s.Software != nil {
		w := *s.Software
		s.Software = &w
	}
	return s
}

func cloneSignatures(in []Signature) []Signature {
	if in == nil {
		return nil
	}
	out := make([]Signature, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

// ElementIDs returns the identifiers the record occupies in the document.
func (s Signature) ElementIDs() []string {
	if s.Kind == KindSoftware {
		return []string{softwareID(s.Seq)}
	}
	ids := personIDs(s.Seq)
	return []string{ids.Person, ids.Role, ids.PublicKey, ids.PublicKeyRef, ids.Timestamp}
}

// conclusions is the ledger: the conclusions element minus its records, plus the
// records in call order. records[i] is the wire form of signatures[i].
type conclusions struct {
	frame      *tree.Object
	signatures []Signature
	records    []*tree.Object
}

func (c *conclusions) tree() *tree.Object {
	out := c.frame.Clone()
	items := make([]any, len(c.records))
	for i, r := range c.records {
		items[i] = r.Clone()
	}
	out.Set(skeleton.Signature, items)
	return out
}

func (c *conclusions) clone() *conclusions {
	if c == nil {
		return nil
	}
	out := &conclusions{
		frame:      c.frame.Clone(),
		signatures: cloneSignatures(c.signatures),
		records:    make([]*tree.Object, len(c.records)),
	}
	for i, r := range c.records {
		out.records[i] = r.Clone()
	}
	return out
}

// AddPersonSignature appends a person signature to the conclusions, creating the
// section on first use. Every call appends a new record, even for identical input.
func (d *Document) AddPersonSignature(p PersonSignature) (Signature, error) {
	if err := requireSigner(p.SignerRef, p.Value); err != nil {
		return Signature{}, err
	}
	if p.Timestamp.IsZero() {
		return Signature{}, newError(KindInput, "AKN-IN-032", "person signature: missing timestamp")
	}
	seq := d.ids.nextSignature()
	sig := Signature{Kind: KindPerson, Seq: seq, Person: &p}
	d.appendSignature(sig, personRecord(seq, p))
	return sig.clone(), nil
}

// AddSoftwareSignature appends a software signature to the conclusions, creating
// the section on first use.
func (d *Document) AddSoftwareSignature(s SoftwareSignature) (Signature, error) {
	if err := requireSigner(s.SignerRef, s.Value); err != nil {
		return Signature{}, err
	}
	seq := d.ids.nextSignature()
	sig := Signature{Kind: KindSoftware, Seq: seq, Software: &s}
	d.appendSignature(sig, softwareRecord(seq, s))
	return sig.clone(), nil
}

func requireSigner(ref, value string) error {
	if ref == "" {
		return newError(KindInput, "AKN-IN-030", "signature: missing signer reference")
	}
	if value == "" {
		return newError(KindInput, "AKN-IN-031", "signature: missing signature value")
	}
	return nil
}

func (d *Document) appendSignature(sig Signature, record *tree.Object) {
	if d.conclusions == nil {
		frame := skeleton.ConclusionsTemplate()
		d.conclusions = &conclusions{frame: frame}
	}
	d.conclusions.signatures = append(d.conclusions.signatures, sig)
	d.conclusions.records = append(d.conclusions.records, record)
}

func personRecord(seq int, p PersonSignature) *tree.Object {
	ids := personIDs(seq)
	ts := p.Timestamp.Format(time.RFC3339Nano)
	return tree.Of(
		"person", element(ids.Person, p.SignerName, "@refersTo", p.SignerRef),
		"role", element(ids.Role, p.RoleName, "@refersTo", p.RoleRef),
		"publicKey", tree.Of(
			"@eId", ids.PublicKey,
			"ref", element(ids.PublicKeyRef, p.KeyMaterial, "@href", p.KeyHref),
		),
		"timestamp", element(ids.Timestamp, ts, "@date", ts),
		"digitalSignature", p.Value,
	)
}

func softwareRecord(seq int, s SoftwareSignature) *tree.Object {
	return tree.Of(
		"object", element(softwareID(seq), s.SignerName, "@refersTo", s.SignerRef),
		"digitalSignature", s.Value,
	)
}

// signatureFromRecord reads a parsed record back into its structured form.
func signatureFromRecord(record *tree.Object) (Signature, error) {
	switch {
	case record.Has("person"):
		person := record.Object("person")
		seq, ok := signatureSeq(person.Text("@eId"))
		if !ok {
			return Signature{}, newError(KindParse, "AKN-PARSE-031",
				fmt.Sprintf("signature person id %q carries no sequence number", person.Text("@eId")))
		}
		ts, err := parseTimestamp(record)
		if err != nil {
			return Signature{}, err
		}
		role := record.Object("role")
		ref := record.Object("publicKey").Object("ref")
		return Signature{Kind: KindPerson, Seq: seq, Person: &PersonSignature{
			SignerRef:   person.Text("@refersTo"),
			SignerName:  person.Text(tree.TextKey),
			RoleRef:     role.Text("@refersTo"),
			RoleName:    role.Text(tree.TextKey),
			KeyHref:     ref.Text("@href"),
			KeyMaterial: ref.Text(tree.TextKey),
			Timestamp:   ts,
			Value:       record.Text("digitalSignature"),
		}}, nil
	case record.Has("object"):
		obj := record.Object("object")
		seq, ok := signatureSeq(obj.Text("@eId"))
		if !ok {
			return Signature{}, newError(KindParse, "AKN-PARSE-031",
				fmt.Sprintf("signature object id %q carries no sequence number", obj.Text("@eId")))
		}
		return Signature{Kind: KindSoftware, Seq: seq, Software: &SoftwareSignature{
			SignerRef:  obj.Text("@refersTo"),
			SignerName: obj.Text(tree.TextKey),
			Value:      record.Text("digitalSignature"),
		}}, nil
	default:
		return Signature{}, newError(KindParse, "AKN-PARSE-030", "signature has neither person nor object")
	}
}

func parseTimestamp(record *tree.Object) (time.Time, error) {
	ts := record.Object("timestamp")
	raw := ts.Text("@date")
	if raw == "" {
		raw = ts.Text(tree.TextKey)
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newError(KindParse, "AKN-PARSE-032", fmt.Sprintf("signature timestamp %q is not a date", raw))
}
