// Package skeleton holds the canonical Akoma Ntoso templates the assembler fills
// in. Templates are constant data: every accessor returns a fresh deep copy, so
// callers may mutate the result freely.
package skeleton

import "xdao.co/akn/tree"

// Version identifies the template revision. It changes whenever the shape of
// either template changes.
const Version = "akn-3.0/1"

// Namespace is the Akoma Ntoso 3.0 default namespace.
const Namespace = "http://docs.oasis-open.org/legaldocml/ns/akn/3.0"

// Element names the assembler and parser navigate by.
const (
	Root           = "akomaNtoso"
	Doc            = "doc"
	Meta           = "meta"
	Identification = "identification"
	Work           = "FRBRWork"
	Expression     = "FRBRExpression"
	Manifestation  = "FRBRManifestation"
	References     = "references"
	Preface        = "preface"
	LongTitle      = "longTitle"
	MainBody       = "mainBody"
	Block          = "tblock"
	Conclusions    = "conclusions"
	Signature      = "signature"
)

var (
	document    = buildDocument()
	conclusions = buildConclusions()
)

// Document returns the document template: root, metadata (identification triple
// and an empty references collection), preface with an empty title, and an empty
// main body. It carries no conclusions.
func Document() *tree.Object {
	return document.Clone()
}

// ConclusionsTemplate returns the conclusions element template with an empty
// signature list.
func ConclusionsTemplate() *tree.Object {
	return conclusions.Clone()
}

func buildDocument() *tree.Object {
	frbrDate := func() *tree.Object { return tree.Of("@date", "", "@name", "") }
	value := func() *tree.Object { return tree.Of("@value", "") }

	work := tree.Of(
		"FRBRthis", value(),
		"FRBRuri", value(),
		"FRBRdate", frbrDate(),
		"FRBRauthor", tree.Of("@href", ""),
		"FRBRcountry", value(),
	)
	expression := tree.Of(
		"FRBRthis", value(),
		"FRBRuri", value(),
		"FRBRdate", frbrDate(),
		"FRBRauthor", tree.Of("@href", ""),
		"FRBRlanguage", tree.Of("@language", ""),
	)
	manifestation := tree.Of(
		"FRBRthis", value(),
		"FRBRuri", value(),
		"FRBRdate", frbrDate(),
		"FRBRauthor", tree.Of("@href", ""),
	)

	doc := tree.Of(
		"@name", "document",
		Meta, tree.Of(
			Identification, tree.Of(
				"@source", "#source",
				Work, work,
				Expression, expression,
				Manifestation, manifestation,
			),
			References, tree.Of("@source", "#source"),
		),
		Preface, tree.Of(
			LongTitle, tree.Of("@eId", "longTitle", "p", ""),
		),
		MainBody, tree.Of(Block, []any{}),
	)
	return tree.Of(Root, tree.Of("@xmlns", Namespace, Doc, doc))
}

func buildConclusions() *tree.Object {
	return tree.Of("@eId", "conclusions", Signature, []any{})
}
