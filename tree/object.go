// Package tree implements the ordered document tree shared by the AKN assembler,
// the skeleton store and the XML wire codec.
//
// A tree is built from *Object nodes. Field values are restricted to:
//   - string
//   - *Object
//   - []any whose items are strings or *Object (repeated elements)
//
// Field naming follows the XML mapping used by the wire codec: a name starting
// with "@" is an attribute, the name "#" is element text, anything else is a child
// element.
package tree

import (
	"fmt"
	"regexp"
	"strings"
)

// TextKey is the field holding element text.
const TextKey = "#"

// AttrPrefix marks attribute fields.
const AttrPrefix = "@"

// Object is an ordered mapping of field names to values. The zero value is an
// empty object ready for use.
type Object struct {
	keys   []string
	fields map[string]any
}

// New returns an empty object.
func New() *Object {
	return &Object{}
}

// Of builds an object from alternating name/value arguments, in order.
// It panics on an odd argument count or a non-string name; it is meant for
// constant data and builders whose shape is fixed at compile time.
func Of(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("tree.Of: odd number of arguments")
	}
	o := New()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("tree.Of: field name at %d is %T", i, kv[i]))
		}
		o.Set(k, kv[i+1])
	}
	return o
}

// IsAttr reports whether name is an attribute field name.
func IsAttr(name string) bool { return strings.HasPrefix(name, AttrPrefix) }

// IsElement reports whether name names a child element.
func IsElement(name string) bool { return name != TextKey && !IsAttr(name) && name != "" }

// Len returns the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the field names in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Has reports whether the field exists.
func (o *Object) Has(name string) bool {
	if o == nil {
		return false
	}
	_, ok := o.fields[name]
	return ok
}

// Get returns the raw value of a field.
func (o *Object) Get(name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[name]
	return v, ok
}

// Object returns the field as an object, or nil when it is absent or not an object.
func (o *Object) Object(name string) *Object {
	v, _ := o.Get(name)
	obj, _ := v.(*Object)
	return obj
}

// Text returns the field as a string, or "" when it is absent or not a string.
func (o *Object) Text(name string) string {
	v, _ := o.Get(name)
	s, _ := v.(string)
	return s
}

// List returns the field as a list. A single value is returned as a one-item list
// and an absent field as nil.
func (o *Object) List(name string) []any {
	v, ok := o.Get(name)
	if !ok {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{v}
}

// Set stores a value. Replacing an existing field keeps its position; a new field
// is appended. Set returns o so calls can be chained.
func (o *Object) Set(name string, v any) *Object {
	if o.fields == nil {
		o.fields = make(map[string]any)
	}
	if _, ok := o.fields[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.fields[name] = v
	return o
}

// Append adds v to the list stored at name, creating the list if needed. An
// existing single value is converted into the first list item.
func (o *Object) Append(name string, v any) *Object {
	return o.Set(name, append(o.List(name), v))
}

// Delete removes a field and reports whether it existed.
func (o *Object) Delete(name string) bool {
	if !o.Has(name) {
		return false
	}
	delete(o.fields, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for each field in order until fn returns false.
func (o *Object) Range(fn func(name string, v any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.fields[k]) {
			return
		}
	}
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{keys: append([]string(nil), o.keys...)}
	if o.fields != nil {
		out.fields = make(map[string]any, len(o.fields))
		for k, v := range o.fields {
			out.fields[k] = Clone(v)
		}
	}
	return out
}

// Clone deep-copies a tree value.
func Clone(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = Clone(x[i])
		}
		return out
	default:
		return v
	}
}

// Equal reports structural equality. Field order inside an object is ignored,
// list order is not.
func (o *Object) Equal(p *Object) bool {
	if o.Len() != p.Len() {
		return false
	}
	eq := true
	o.Range(func(k string, v any) bool {
		w, ok := p.Get(k)
		eq = ok && Equal(v, w)
		return eq
	})
	return eq
}

// Equal reports structural equality of two tree values.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case string:
		y, ok := b.(string)
		return ok && x == y
	default:
		return a == nil && b == nil
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*(:[A-Za-z_][A-Za-z0-9._-]*)?$`)

// ValidName reports whether name can be written as an XML element or attribute
// name. An optional namespace prefix is allowed.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Validate checks that v only holds values a tree may contain: strings, objects
// and lists of strings and objects. Field names other than "#" must be valid XML
// names, with or without the "@" attribute prefix.
func Validate(v any) error {
	switch x := v.(type) {
	case string:
		return nil
	case *Object:
		if x == nil {
			return fmt.Errorf("tree: nil object")
		}
		var err error
		x.Range(func(k string, fv any) bool {
			if k == "" {
				err = fmt.Errorf("tree: empty field name")
				return false
			}
			if k != TextKey && !ValidName(strings.TrimPrefix(k, AttrPrefix)) {
				err = fmt.Errorf("tree: invalid field name %q", k)
				return false
			}
			if IsAttr(k) || k == TextKey {
				if _, ok := fv.(string); !ok {
					err = fmt.Errorf("tree: field %q must be a string, got %T", k, fv)
					return false
				}
			}
			if e := Validate(fv); e != nil {
				err = fmt.Errorf("%s: %w", k, e)
			}
			return err == nil
		})
		return err
	case []any:
		for i, item := range x {
			if _, nested := item.([]any); nested {
				return fmt.Errorf("tree: item %d: nested list", i)
			}
			if err := Validate(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("tree: unsupported value %T", v)
	}
}

// String renders a compact debugging form of the object.
func (o *Object) String() string {
	var sb strings.Builder
	writeValue(&sb, o)
	return sb.String()
}

func writeValue(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case *Object:
		sb.WriteString("{")
		for i, k := range x.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			fv, _ := x.Get(k)
			writeValue(sb, fv)
		}
		sb.WriteString("}")
	case []any:
		sb.WriteString("[")
		for i, item := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, item)
		}
		sb.WriteString("]")
	case string:
		fmt.Fprintf(sb, "%q", x)
	default:
		fmt.Fprintf(sb, "<%T>", x)
	}
}
