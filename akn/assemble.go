package akn

import (
	"fmt"
	"regexp"

	"xdao.co/akn/skeleton"
	"xdao.co/akn/tree"
)

// Input is the structured description a document is assembled from.
type Input struct {
	Identification Identification `yaml:"identification"`
	References     []Reference    `yaml:"references"`
	PrefaceTitle   string         `yaml:"prefaceTitle"`
	MainBody       []Block        `yaml:"mainBody"`
}

// Identification carries the FRBR identity facts. Each group maps field names
// (FRBRthis, FRBRdate, ...) to a string or an object of attributes; fields are
// merged over the skeleton's group.
type Identification struct {
	Work          *tree.Object `yaml:"FRBRWork"`
	Expression    *tree.Object `yaml:"FRBRExpression"`
	Manifestation *tree.Object `yaml:"FRBRManifestation"`
}

// Reference is one typed metadata reference (TLCPerson, TLCRole, ...).
type Reference struct {
	Type   string `yaml:"type"`
	EID    string `yaml:"eId"`
	Href   string `yaml:"href"`
	ShowAs string `yaml:"showAs"`
}

// Block is one main body block: a heading and a paragraph payload.
type Block struct {
	Title     string       `yaml:"blockTitle"`
	Paragraph *tree.Object `yaml:"p"`
}

var elementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// Assemble builds a new document from in.
func Assemble(in Input) (*Document, error) {
	d := New()
	if err := d.Assemble(in); err != nil {
		return nil, err
	}
	return d, nil
}

// Assemble replaces the document's tree with one built from in.
//
// Assembly is one-shot: a second call discards the previous tree together with
// its signature ledger, since those signatures covered content that no longer
// exists. Block numbering restarts at 1 for the new body; the signature counter
// keeps counting so signature identifiers are never reused by the instance.
//
// On error the document is left unchanged.
func (d *Document) Assemble(in Input) error {
	if err := validateInput(in); err != nil {
		return err
	}

	root := skeleton.Document()
	doc := docNode(root)
	meta := doc.Object(skeleton.Meta)

	ident := meta.Object(skeleton.Identification)
	tree.Merge(ident.Object(skeleton.Work), in.Identification.Work)
	tree.Merge(ident.Object(skeleton.Expression), in.Identification.Expression)
	tree.Merge(ident.Object(skeleton.Manifestation), in.Identification.Manifestation)

	refs := meta.Object(skeleton.References)
	for _, r := range in.References {
		refs.Append(r.Type, tree.Of(
			"@eId", r.EID,
			"@href", r.Href,
			"@showAs", r.ShowAs,
		))
	}

	doc.Object(skeleton.Preface).Object(skeleton.LongTitle).Set("p", in.PrefaceTitle)

	ids := d.ids
	ids.blocks = 0
	blocks := make([]any, 0, len(in.MainBody))
	for _, b := range in.MainBody {
		blocks = append(blocks, buildBlock(ids.nextBlock(), b))
	}
	doc.Object(skeleton.MainBody).Set(skeleton.Block, blocks)

	d.root = root
	d.conclusions = nil
	d.ids = ids
	return nil
}

func buildBlock(id BlockIDs, b Block) *tree.Object {
	p := tree.Of("@eId", id.Paragraph)
	b.Paragraph.Range(func(k string, v any) bool {
		if k != "@eId" {
			p.Set(k, tree.Clone(v))
		}
		return true
	})
	return tree.Of(
		"@eId", id.Block,
		"heading", element(id.Heading, b.Title),
		"p", p,
	)
}

// element builds {@eId, #text}; empty text is left out so the node reads back
// from XML unchanged.
func element(eID, text string, attrs ...string) *tree.Object {
	el := tree.Of("@eId", eID)
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Set(attrs[i], attrs[i+1])
	}
	if text != "" {
		el.Set(tree.TextKey, text)
	}
	return el
}

func validateInput(in Input) error {
	groups := []struct {
		rule, name string
		obj        *tree.Object
	}{
		{"AKN-IN-001", skeleton.Work, in.Identification.Work},
		{"AKN-IN-002", skeleton.Expression, in.Identification.Expression},
		{"AKN-IN-003", skeleton.Manifestation, in.Identification.Manifestation},
	}
	for _, g := range groups {
		if g.obj == nil {
			return newError(KindInput, g.rule, "missing identification."+g.name)
		}
		if err := tree.Validate(g.obj); err != nil {
			return wrapError(KindInput, "AKN-IN-004", "invalid identification."+g.name, err)
		}
	}
	for i, r := range in.References {
		if !elementName.MatchString(r.Type) {
			return newError(KindInput, "AKN-IN-010", fmt.Sprintf("references[%d]: invalid type %q", i, r.Type))
		}
		if r.EID == "" {
			return newError(KindInput, "AKN-IN-011", fmt.Sprintf("references[%d]: missing eId", i))
		}
	}
	for i, b := range in.MainBody {
		if b.Paragraph == nil {
			continue
		}
		if err := tree.Validate(b.Paragraph); err != nil {
			return wrapError(KindInput, "AKN-IN-020", fmt.Sprintf("mainBody[%d]: invalid paragraph", i), err)
		}
	}
	return nil
}
