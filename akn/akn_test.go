package akn

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/akn/skeleton"
	"xdao.co/akn/tree"
)

var signedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleInput() Input {
	return Input{
		Identification: Identification{
			Work: tree.Of(
				"FRBRthis", tree.Of("@value", "/akn/eu/doc/2024-03-01/1/main"),
				"FRBRdate", tree.Of("@date", "2024-03-01", "@name", "enacted"),
			),
			Expression: tree.Of(
				"FRBRlanguage", tree.Of("@language", "eng"),
			),
			Manifestation: tree.Of(
				"FRBRformat", tree.Of("@value", "application/akn+xml"),
			),
		},
		References: []Reference{
			{Type: "TLCPerson", EID: "sig1", Href: "/akn/ontology/person/alice", ShowAs: "Alice"},
			{Type: "TLCRole", EID: "role1", Href: "/akn/ontology/role/signer", ShowAs: "Signer"},
			{Type: "TLCPerson", EID: "sig2", Href: "/akn/ontology/person/bob", ShowAs: "Bob"},
		},
		PrefaceTitle: "Agreement on shared hosting",
		MainBody: []Block{
			{Title: "Article 1", Paragraph: tree.Of("text", "Hello")},
		},
	}
}

func alice() PersonSignature {
	return PersonSignature{
		SignerRef:   "sig1",
		SignerName:  "Alice",
		RoleRef:     "role1",
		RoleName:    "Signer",
		KeyHref:     "/keys/alice",
		KeyMaterial: "ed25519:AAAA",
		Timestamp:   signedAt,
		Value:       "ed25519:c2lnbmF0dXJl",
	}
}

func notary() SoftwareSignature {
	return SoftwareSignature{SignerRef: "sw1", SignerName: "Notary-bot", Value: "ed25519:Ym90"}
}

func mustAssemble(t *testing.T, in Input) *Document {
	t.Helper()
	d, err := Assemble(in)
	require.NoError(t, err)
	return d
}

func blocks(t *testing.T, d *Document) []any {
	t.Helper()
	body := docNode(d.Tree()).Object(skeleton.MainBody)
	require.NotNil(t, body)
	return body.List(skeleton.Block)
}

func TestScenario(t *testing.T) {
	d := mustAssemble(t, sampleInput())

	bs := blocks(t, d)
	require.Len(t, bs, 1)
	b := bs[0].(*tree.Object)
	assert.Equal(t, "tblock_1", b.Text("@eId"))
	assert.Equal(t, "tblock_1__heading", b.Object("heading").Text("@eId"))
	assert.Equal(t, "Article 1", b.Object("heading").Text(tree.TextKey))
	assert.Equal(t, "tblock_1__p_1", b.Object("p").Text("@eId"))
	assert.Equal(t, "Hello", b.Object("p").Text("text"))

	assert.False(t, d.HasConclusions())

	person, err := d.AddPersonSignature(alice())
	require.NoError(t, err)
	assert.Equal(t, 1, person.Seq)
	assert.Equal(t, []string{
		"conclusion_signature_1_pers",
		"conclusion_signature_1_pers_role",
		"conclusion_signature_1_pk",
		"conclusion_signature_1_pk_ref",
		"conclusion_signature_1_timestamp",
	}, person.ElementIDs())

	sw, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	assert.Equal(t, 2, sw.Seq)
	assert.Equal(t, []string{"conclusion_signature_2_sw"}, sw.ElementIDs())

	full, err := d.Render()
	require.NoError(t, err)
	for _, want := range []string{
		`<tblock eId="tblock_1">`,
		`<heading eId="tblock_1__heading">Article 1</heading>`,
		`<person eId="conclusion_signature_1_pers" refersTo="sig1">Alice</person>`,
		`<role eId="conclusion_signature_1_pers_role" refersTo="role1">Signer</role>`,
		`<ref eId="conclusion_signature_1_pk_ref" href="/keys/alice">ed25519:AAAA</ref>`,
		`<timestamp eId="conclusion_signature_1_timestamp" date="2024-03-01T09:30:00Z">2024-03-01T09:30:00Z</timestamp>`,
		`<object eId="conclusion_signature_2_sw" refersTo="sw1">Notary-bot</object>`,
		`<digitalSignature>ed25519:Ym90</digitalSignature>`,
	} {
		assert.Contains(t, string(full), want)
	}
}

func TestAssembleNumbersBlocksInOrder(t *testing.T) {
	in := sampleInput()
	in.MainBody = nil
	for i := 1; i <= 5; i++ {
		in.MainBody = append(in.MainBody, Block{
			Title:     fmt.Sprintf("Article %d", i),
			Paragraph: tree.Of("text", fmt.Sprintf("body %d", i)),
		})
	}
	d := mustAssemble(t, in)

	bs := blocks(t, d)
	require.Len(t, bs, 5)
	for i, item := range bs {
		n := i + 1
		b := item.(*tree.Object)
		assert.Equal(t, fmt.Sprintf("tblock_%d", n), b.Text("@eId"))
		assert.Equal(t, fmt.Sprintf("tblock_%d__heading", n), b.Object("heading").Text("@eId"))
		assert.Equal(t, fmt.Sprintf("tblock_%d__p_%d", n, n), b.Object("p").Text("@eId"))
		assert.Equal(t, fmt.Sprintf("body %d", n), b.Object("p").Text("text"))
	}
}

func TestAssembleParagraphIDWins(t *testing.T) {
	in := sampleInput()
	in.MainBody = []Block{{Title: "A", Paragraph: tree.Of("@eId", "mine", "@class", "x", "text", "t")}}
	d := mustAssemble(t, in)

	p := blocks(t, d)[0].(*tree.Object).Object("p")
	assert.Equal(t, []string{"@eId", "@class", "text"}, p.Keys())
	assert.Equal(t, "tblock_1__p_1", p.Text("@eId"))
}

func TestAssembleEmptyBody(t *testing.T) {
	in := sampleInput()
	in.MainBody = nil
	d := mustAssemble(t, in)
	assert.Empty(t, blocks(t, d))

	b, err := d.RenderPayload()
	require.NoError(t, err)
	assert.Contains(t, string(b), "<mainBody/>")
}

func TestAssembleGroupsReferences(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	refs := docNode(d.Tree()).Object(skeleton.Meta).Object(skeleton.References)

	assert.Equal(t, []string{"@source", "TLCPerson", "TLCRole"}, refs.Keys())
	persons := refs.List("TLCPerson")
	require.Len(t, persons, 2)
	assert.Equal(t, "sig1", persons[0].(*tree.Object).Text("@eId"))
	assert.Equal(t, "sig2", persons[1].(*tree.Object).Text("@eId"))
	assert.Equal(t, "Bob", persons[1].(*tree.Object).Text("@showAs"))

	roles := refs.List("TLCRole")
	require.Len(t, roles, 1)
	assert.Equal(t, "/akn/ontology/role/signer", roles[0].(*tree.Object).Text("@href"))
}

func TestAssembleMergesIdentification(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	ident := docNode(d.Tree()).Object(skeleton.Meta).Object(skeleton.Identification)
	work := ident.Object(skeleton.Work)

	assert.Equal(t, "/akn/eu/doc/2024-03-01/1/main", work.Object("FRBRthis").Text("@value"))
	assert.Equal(t, "enacted", work.Object("FRBRdate").Text("@name"))
	// Skeleton-only fields survive.
	assert.True(t, work.Has("FRBRuri"))
	assert.True(t, work.Has("FRBRcountry"))
	assert.Equal(t, "eng", ident.Object(skeleton.Expression).Object("FRBRlanguage").Text("@language"))
	// Fields the skeleton lacks are inserted.
	assert.Equal(t, "application/akn+xml", ident.Object(skeleton.Manifestation).Object("FRBRformat").Text("@value"))
}

func TestAssembleCopiesInput(t *testing.T) {
	in := sampleInput()
	d := mustAssemble(t, in)
	in.MainBody[0].Paragraph.Set("text", "changed")
	in.Identification.Work.Object("FRBRthis").Set("@value", "changed")

	assert.Equal(t, "Hello", blocks(t, d)[0].(*tree.Object).Object("p").Text("text"))
	work := docNode(d.Tree()).Object(skeleton.Meta).Object(skeleton.Identification).Object(skeleton.Work)
	assert.Equal(t, "/akn/eu/doc/2024-03-01/1/main", work.Object("FRBRthis").Text("@value"))
}

func TestAssembleRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		rule   string
	}{
		{"missing work", func(in *Input) { in.Identification.Work = nil }, "AKN-IN-001"},
		{"missing expression", func(in *Input) { in.Identification.Expression = nil }, "AKN-IN-002"},
		{"missing manifestation", func(in *Input) { in.Identification.Manifestation = nil }, "AKN-IN-003"},
		{"bad identification value", func(in *Input) { in.Identification.Work.Set("FRBRthis", 42) }, "AKN-IN-004"},
		{"empty reference type", func(in *Input) { in.References[0].Type = "" }, "AKN-IN-010"},
		{"attribute reference type", func(in *Input) { in.References[0].Type = "@eId" }, "AKN-IN-010"},
		{"reference without eId", func(in *Input) { in.References[1].EID = "" }, "AKN-IN-011"},
		{"nested list in paragraph", func(in *Input) {
			in.MainBody[0].Paragraph.Set("list", []any{[]any{"x"}})
		}, "AKN-IN-020"},
		{"bad element name in paragraph", func(in *Input) {
			in.MainBody[0].Paragraph.Set("my text", "Hello")
		}, "AKN-IN-020"},
		{"bad attribute name in identification", func(in *Input) {
			in.Identification.Work.Set("@1bad", "x")
		}, "AKN-IN-004"},
		{"bare attribute prefix in paragraph", func(in *Input) {
			in.MainBody[0].Paragraph.Set("@", "x")
		}, "AKN-IN-020"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := mustAssemble(t, sampleInput())
			_, err := d.AddSoftwareSignature(notary())
			require.NoError(t, err)
			before, err := d.Render()
			require.NoError(t, err)

			in := sampleInput()
			tc.mutate(&in)
			err = d.Assemble(in)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInput))
			assert.Equal(t, tc.rule, RuleID(err))

			after, err := d.Render()
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
			assert.Len(t, d.Signatures(), 1)
		})
	}
}

func TestAssembleAllowsNilParagraph(t *testing.T) {
	in := sampleInput()
	in.MainBody = []Block{{Title: "Empty"}}
	d := mustAssemble(t, in)
	p := blocks(t, d)[0].(*tree.Object).Object("p")
	assert.Equal(t, []string{"@eId"}, p.Keys())
}

func TestReassembleDropsLedgerKeepsCounter(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	_, err := d.AddPersonSignature(alice())
	require.NoError(t, err)
	_, err = d.AddSoftwareSignature(notary())
	require.NoError(t, err)

	in := sampleInput()
	in.MainBody = append(in.MainBody, Block{Title: "Article 2"})
	require.NoError(t, d.Assemble(in))

	assert.False(t, d.HasConclusions())
	assert.Empty(t, d.Signatures())
	bs := blocks(t, d)
	require.Len(t, bs, 2)
	assert.Equal(t, "tblock_1", bs[0].(*tree.Object).Text("@eId"))

	sig, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	assert.Equal(t, 3, sig.Seq)
}

func TestSignatureSequence(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	const n = 6
	for i := 0; i < n; i++ {
		var err error
		if i%2 == 0 {
			_, err = d.AddPersonSignature(alice())
		} else {
			_, err = d.AddSoftwareSignature(notary())
		}
		require.NoError(t, err)
	}

	sigs := d.Signatures()
	require.Len(t, sigs, n)
	for i, s := range sigs {
		assert.Equal(t, i+1, s.Seq)
		prefix := fmt.Sprintf("conclusion_signature_%d_", i+1)
		for _, id := range s.ElementIDs() {
			assert.True(t, strings.HasPrefix(id, prefix), id)
			seq, ok := signatureSeq(id)
			require.True(t, ok)
			assert.Equal(t, i+1, seq)
		}
	}
	assert.Equal(t, KindPerson, sigs[0].Kind)
	assert.Equal(t, KindSoftware, sigs[1].Kind)
}

func TestSigningIsNotIdempotent(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	a, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	b, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)

	assert.Equal(t, 1, a.Seq)
	assert.Equal(t, 2, b.Seq)
	assert.Len(t, d.Signatures(), 2)
}

func TestSignatureValidation(t *testing.T) {
	d := mustAssemble(t, sampleInput())

	missingTime := alice()
	missingTime.Timestamp = time.Time{}
	noValue := alice()
	noValue.Value = ""
	noRef := notary()
	noRef.SignerRef = ""

	_, err := d.AddPersonSignature(missingTime)
	assert.Equal(t, "AKN-IN-032", RuleID(err))
	_, err = d.AddPersonSignature(noValue)
	assert.Equal(t, "AKN-IN-031", RuleID(err))
	_, err = d.AddSoftwareSignature(noRef)
	assert.Equal(t, "AKN-IN-030", RuleID(err))
	assert.True(t, IsKind(err, KindInput))

	assert.False(t, d.HasConclusions())
	sig, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Seq)
}

// cutConclusions removes the conclusions element and the line break before it.
func cutConclusions(t *testing.T, full []byte) []byte {
	t.Helper()
	start := bytes.Index(full, []byte("\n    <conclusions"))
	require.GreaterOrEqual(t, start, 0)
	endTag := []byte("</conclusions>")
	end := bytes.Index(full, endTag)
	require.Greater(t, end, start)
	out := append([]byte(nil), full[:start]...)
	return append(out, full[end+len(endTag):]...)
}

func TestPayloadIgnoresSignatures(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	before, err := d.RenderPayload()
	require.NoError(t, err)
	unsigned, err := d.Render()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(unsigned))

	_, err = d.AddPersonSignature(alice())
	require.NoError(t, err)
	_, err = d.AddSoftwareSignature(notary())
	require.NoError(t, err)

	after, err := d.RenderPayload()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	full, err := d.Render()
	require.NoError(t, err)
	assert.NotEqual(t, string(full), string(after))
	assert.Equal(t, string(after), string(cutConclusions(t, full)))
}

func TestRenderLayout(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	b, err := d.RenderPayload()
	require.NoError(t, err)
	s := string(b)

	assert.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, s, `<akomaNtoso xmlns="`+skeleton.Namespace+`">`)
	assert.Contains(t, s, "\n  <doc name=\"document\">")
	assert.Contains(t, s, `<longTitle eId="longTitle">`)
	assert.Contains(t, s, "<p>Agreement on shared hosting</p>")
	assert.NotContains(t, s, "conclusions")
}

func TestRenderDoesNotMutate(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	_, err := d.AddPersonSignature(alice())
	require.NoError(t, err)

	snapshot := d.Tree()
	sigs := d.Signatures()
	first, err := d.Render()
	require.NoError(t, err)
	_, err = d.RenderPayload()
	require.NoError(t, err)
	second, err := d.Render()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Empty(t, cmp.Diff(snapshot, d.Tree()))
	assert.Empty(t, cmp.Diff(sigs, d.Signatures()))
	assert.False(t, d.Tree().Object(skeleton.Root).Object(skeleton.Doc).Has(skeleton.Conclusions))
}

func TestRenderEmptyDocument(t *testing.T) {
	d := New()
	assert.True(t, d.Empty())

	_, err := d.Render()
	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.True(t, IsKind(err, KindRender))
	_, err = d.RenderPayload()
	require.ErrorIs(t, err, ErrEmptyDocument)
	_, err = d.CID()
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseRoundTrip(t *testing.T) {
	in := sampleInput()
	in.MainBody = append(in.MainBody,
		Block{Title: "Article 2", Paragraph: tree.Of("text", "World", "note", tree.Of("@kind", "aside", "#", "n"))},
		Block{Title: "Article 3"},
	)
	d := mustAssemble(t, in)
	_, err := d.AddPersonSignature(alice())
	require.NoError(t, err)
	_, err = d.AddSoftwareSignature(notary())
	require.NoError(t, err)

	full, err := d.Render()
	require.NoError(t, err)
	parsed, err := Parse(full)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Tree(), parsed.Tree()); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(d.Signatures(), parsed.Signatures()); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}

	again, err := parsed.Render()
	require.NoError(t, err)
	assert.Equal(t, string(full), string(again))

	wantPayload, err := d.RenderPayload()
	require.NoError(t, err)
	gotPayload, err := parsed.RenderPayload()
	require.NoError(t, err)
	assert.Equal(t, string(wantPayload), string(gotPayload))
}

func TestParseUnsignedSingleReferenceAndBlock(t *testing.T) {
	in := sampleInput()
	in.References = in.References[:1]
	d := mustAssemble(t, in)
	b, err := d.Render()
	require.NoError(t, err)

	parsed, err := Parse(b)
	require.NoError(t, err)
	assert.False(t, parsed.HasConclusions())
	assert.Len(t, blocks(t, parsed), 1)
	refs := docNode(parsed.Tree()).Object(skeleton.Meta).Object(skeleton.References)
	assert.Len(t, refs.List("TLCPerson"), 1)
	assert.Empty(t, cmp.Diff(d.Tree(), parsed.Tree()))
}

func TestParseReseedsSignatureCounter(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	for i := 0; i < 3; i++ {
		_, err := d.AddSoftwareSignature(notary())
		require.NoError(t, err)
	}
	full, err := d.Render()
	require.NoError(t, err)

	parsed, err := Parse(full)
	require.NoError(t, err)
	sig, err := parsed.AddPersonSignature(alice())
	require.NoError(t, err)
	assert.Equal(t, 4, sig.Seq)
	assert.Equal(t, "conclusion_signature_4_pers", sig.ElementIDs()[0])
}

func TestParseEmptyConclusionsIsAbsent(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	payload, err := d.RenderPayload()
	require.NoError(t, err)
	text := strings.Replace(string(payload), "</mainBody>",
		"</mainBody>\n    <conclusions eId=\"conclusions\"></conclusions>", 1)

	parsed, err := Parse([]byte(text))
	require.NoError(t, err)
	assert.False(t, parsed.HasConclusions())
	again, err := parsed.Render()
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(again))
}

func TestParseNotDocument(t *testing.T) {
	for _, text := range []string{
		`<root><doc/></root>`,
		`<akomaNtoso><act name="x"><meta/></act></akomaNtoso>`,
		``,
	} {
		d, err := Parse([]byte(text))
		assert.Nil(t, d, text)
		require.ErrorIs(t, err, ErrNotDocument, text)
		assert.Equal(t, "AKN-PARSE-010", RuleID(err))
	}
}

func TestParseRejectsMalformedText(t *testing.T) {
	_, err := Parse([]byte(`<akomaNtoso><doc>`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotDocument))
	assert.True(t, IsKind(err, KindParse))
	assert.Equal(t, "AKN-PARSE-001", RuleID(err))
}

func TestParseRejectsUnknownSignature(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	payload, err := d.RenderPayload()
	require.NoError(t, err)
	text := strings.Replace(string(payload), "</mainBody>",
		"</mainBody><conclusions><signature><seal>x</seal></signature></conclusions>", 1)

	_, err = Parse([]byte(text))
	assert.Equal(t, "AKN-PARSE-030", RuleID(err))
}

func TestContentIdentifiers(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	payloadCID, err := d.PayloadCID()
	require.NoError(t, err)
	unsignedCID, err := d.CID()
	require.NoError(t, err)
	assert.Equal(t, payloadCID, unsignedCID)

	_, err = d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	signedPayloadCID, err := d.PayloadCID()
	require.NoError(t, err)
	signedCID, err := d.CID()
	require.NoError(t, err)
	assert.Equal(t, payloadCID, signedPayloadCID)
	assert.NotEqual(t, payloadCID, signedCID)
}

func TestCloneIsIndependent(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	_, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)

	c := d.Clone()
	_, err = c.AddSoftwareSignature(notary())
	require.NoError(t, err)

	assert.Len(t, d.Signatures(), 1)
	assert.Len(t, c.Signatures(), 2)
	sig, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	assert.Equal(t, 2, sig.Seq)
}

func TestSignaturesAreCopies(t *testing.T) {
	d := mustAssemble(t, sampleInput())
	sig, err := d.AddPersonSignature(alice())
	require.NoError(t, err)
	sw, err := d.AddSoftwareSignature(notary())
	require.NoError(t, err)
	c := d.Clone()

	sig.Person.Value = "changed"
	sw.Software.SignerRef = "changed"
	listed := d.Signatures()
	listed[0].Person.SignerName = "Mallory"
	listed[1].Software.Value = "changed"

	for name, doc := range map[string]*Document{"original": d, "clone": c} {
		got := doc.Signatures()
		require.Len(t, got, 2, name)
		assert.Equal(t, "Alice", got[0].Person.SignerName, name)
		assert.Equal(t, alice().Value, got[0].Person.Value, name)
		assert.Equal(t, notary().SignerRef, got[1].Software.SignerRef, name)
		assert.Equal(t, notary().Value, got[1].Software.Value, name)
	}

	cs := c.Signatures()
	cs[0].Person.RoleName = "changed"
	assert.Equal(t, "Signer", d.Signatures()[0].Person.RoleName)
	assert.Equal(t, "Signer", c.Signatures()[0].Person.RoleName)
}

func TestTimestampKeepsFractionalSeconds(t *testing.T) {
	want := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	p := alice()
	p.Timestamp = want

	d := mustAssemble(t, sampleInput())
	_, err := d.AddPersonSignature(p)
	require.NoError(t, err)
	full, err := d.Render()
	require.NoError(t, err)
	assert.Contains(t, string(full), `date="2024-03-01T09:30:00.123456789Z"`)

	parsed, err := Parse(full)
	require.NoError(t, err)
	sigs := parsed.Signatures()
	require.Len(t, sigs, 1)
	assert.True(t, sigs[0].Person.Timestamp.Equal(want), sigs[0].Person.Timestamp)
	if diff := cmp.Diff(d.Signatures(), sigs); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
}
