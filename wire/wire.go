// Package wire converts document trees to and from XML text.
//
// Mapping between tree fields and XML:
//   - "@name" fields are attributes (values must be strings);
//   - the "#" field is the element's text;
//   - any other field is a child element; a string value is a text-only element,
//     an *tree.Object value is a structured element and a list value repeats the
//     element once per item.
//
// Decoding applies the inverse mapping. An element without attributes or child
// elements decodes to its text (possibly ""), and sibling elements sharing a name
// decode to a list. A single element always decodes to a single value; callers that
// know a position holds a list normalize it themselves.
package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"xdao.co/akn/tree"
)

// EncodeOptions controls XML output.
type EncodeOptions struct {
	// Indent is the number of spaces per nesting level. Zero or less disables
	// pretty-printing.
	Indent int
	// OmitDeclaration drops the <?xml ...?> declaration.
	OmitDeclaration bool
}

// DefaultEncodeOptions are used by the AKN serializer.
var DefaultEncodeOptions = EncodeOptions{Indent: 2}

var (
	// ErrNoRoot is returned when the tree or text does not hold exactly one root element.
	ErrNoRoot = errors.New("wire: document must have exactly one root element")
	// ErrBadValue is returned for values the XML mapping cannot represent.
	ErrBadValue = errors.New("wire: unsupported value")
)

// Encode renders a tree holding exactly one root element as XML text.
func Encode(root *tree.Object, opts EncodeOptions) ([]byte, error) {
	if root.Len() != 1 {
		return nil, ErrNoRoot
	}
	name := root.Keys()[0]
	if !tree.IsElement(name) || !tree.ValidName(name) {
		return nil, fmt.Errorf("%w: root field %q is not an element", ErrBadValue, name)
	}
	v, _ := root.Get(name)
	if _, isList := v.([]any); isList {
		return nil, ErrNoRoot
	}

	doc := etree.NewDocument()
	if !opts.OmitDeclaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}
	if err := encodeChild(&doc.Element, name, v); err != nil {
		return nil, err
	}
	if opts.Indent > 0 {
		doc.Indent(opts.Indent)
	}
	return doc.WriteToBytes()
}

func encodeChild(parent *etree.Element, name string, v any) error {
	switch x := v.(type) {
	case string:
		el := parent.CreateElement(name)
		if x != "" {
			el.SetText(x)
		}
		return nil
	case *tree.Object:
		return encodeObject(parent.CreateElement(name), x)
	case []any:
		for _, item := range x {
			if _, nested := item.([]any); nested {
				return fmt.Errorf("%w: nested list under %q", ErrBadValue, name)
			}
			if err := encodeChild(parent, name, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T under %q", ErrBadValue, v, name)
	}
}

func encodeObject(el *etree.Element, obj *tree.Object) error {
	var err error
	obj.Range(func(name string, v any) bool {
		switch {
		case name == tree.TextKey:
			s, ok := v.(string)
			if !ok {
				err = fmt.Errorf("%w: text of <%s> is %T", ErrBadValue, el.Tag, v)
				return false
			}
			if s != "" {
				el.SetText(s)
			}
		case !tree.ValidName(strings.TrimPrefix(name, tree.AttrPrefix)):
			err = fmt.Errorf("%w: invalid name %q in <%s>", ErrBadValue, name, el.Tag)
			return false
		case tree.IsAttr(name):
			s, ok := v.(string)
			if !ok {
				err = fmt.Errorf("%w: attribute %s of <%s> is %T", ErrBadValue, name, el.Tag, v)
				return false
			}
			el.CreateAttr(strings.TrimPrefix(name, tree.AttrPrefix), s)
		default:
			err = encodeChild(el, name, v)
		}
		return err == nil
	})
	return err
}

// Decode parses XML text into a tree holding one root element.
func Decode(data []byte) (*tree.Object, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	if len(doc.ChildElements()) != 1 {
		return nil, ErrNoRoot
	}
	root := doc.Root()
	return tree.Of(root.FullTag(), decodeElement(root)), nil
}

func decodeElement(el *etree.Element) any {
	children := el.ChildElements()
	text := elementText(el, len(children) > 0)
	if len(el.Attr) == 0 && len(children) == 0 {
		return text
	}

	obj := tree.New()
	for _, a := range el.Attr {
		obj.Set(tree.AttrPrefix+a.FullKey(), a.Value)
	}
	if text != "" {
		obj.Set(tree.TextKey, text)
	}
	for _, c := range children {
		name := c.FullTag()
		v := decodeElement(c)
		if obj.Has(name) {
			obj.Append(name, v)
			continue
		}
		obj.Set(name, v)
	}
	return obj
}

// elementText joins the element's direct character data. Whitespace-only runs are
// indentation when the element also has child elements and are dropped.
func elementText(el *etree.Element, hasChildren bool) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		cd, ok := tok.(*etree.CharData)
		if !ok {
			continue
		}
		if hasChildren && cd.IsWhitespace() {
			continue
		}
		sb.WriteString(cd.Data)
	}
	return sb.String()
}
