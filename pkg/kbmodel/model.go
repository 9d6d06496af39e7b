// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package kbmodel holds the entity shapes of the knowledge graph (spec.md
// §3). Entities are modeled as a tagged variant: each kind gets its own
// struct, and callers that need to dispatch on kind do so with a type switch
// rather than an interface with virtual methods - this keeps the IdGenerator
// and RdfEmitter's (kind, field) -> (predicate, datatype) table co-located
// with the switch instead of scattered across per-kind method sets.
package kbmodel

import "strings"

// EntityKind tags the variant a KbEntity instance belongs to.
type EntityKind string

// The closed set of entity kinds the knowledge graph emits.
const (
	KindDocument            EntityKind = "Document"
	KindPerson              EntityKind = "Person"
	KindOrganization        EntityKind = "Organization"
	KindLocation            EntityKind = "Location"
	KindProject             EntityKind = "Project"
	KindTag                 EntityKind = "Tag"
	KindTodoItem            EntityKind = "TodoItem"
	KindSection             EntityKind = "Section"
	KindPlaceholderDocument EntityKind = "PlaceholderDocument"
)

// Document is a processed Markdown file (spec.md §3). original_path is
// byte-for-byte what the pipeline received; it is never normalized (I3).
type Document struct {
	ID                   string
	OriginalPath         string
	PathWithoutExtension string
	Title                string
	Created              string // ISO-8601, empty if unknown
	Modified             string // ISO-8601, empty if unknown
	WordCount            int
	DocType              string

	// Literals holds additional scalar/list frontmatter fields classified as
	// RDF literals by PropertyClassifier, keyed by the kb:{field} predicate
	// name already produced by the camel-to-identifier transform.
	Literals map[string]LiteralValue
}

// LiteralValue is an RDF literal with an explicit XSD datatype, or a list of
// scalars sharing one datatype.
type LiteralValue struct {
	Values   []string
	XSDType  string // e.g. "xsd:string", "xsd:dateTime", "xsd:boolean", "xsd:integer"
	IsList   bool
}

// Person is a named individual (spec.md §3). Identity is the normalized
// canonical name after title/suffix stripping (see pkg/kbid).
type Person struct {
	ID            string
	CanonicalName string
	Aliases       map[string]struct{}
}

// Organization is a named org, identity derived from its suffix-stripped
// canonical name.
type Organization struct {
	ID            string
	CanonicalName string
	Aliases       map[string]struct{}
}

// Location is a geo entity, optionally scoped under a parent location.
type Location struct {
	ID     string
	Name   string
	Parent string // parent name as first observed, empty if none
}

// Project is a named initiative.
type Project struct {
	ID   string
	Name string
}

// Tag is a categorization label, optionally hierarchical ("/"-separated).
type Tag struct {
	ID   string
	Name string // the full, as-given tag text (leading '#' stripped)
}

// Ancestors returns the ids of this tag's ancestor tags in root-to-parent
// order, derived purely from the id path - e.g. "/Tag/a/b/c" yields
// ["/Tag/a", "/Tag/a/b"]. It introduces no new RDF predicate (spec.md §4.8:
// Tag's hierarchy is encoded in its id path alone); it is a Go-level
// convenience for consumers that want roll-up counts without re-parsing ids.
func (t Tag) Ancestors() []string {
	const prefix = "/Tag/"
	if !strings.HasPrefix(t.ID, prefix) {
		return nil
	}
	segments := strings.Split(strings.TrimPrefix(t.ID, prefix), "/")
	if len(segments) <= 1 {
		return nil
	}
	ancestors := make([]string, 0, len(segments)-1)
	path := prefix[:len(prefix)-1]
	for _, s := range segments[:len(segments)-1] {
		path = path + "/" + s
		ancestors = append(ancestors, path)
	}
	return ancestors
}

// TodoItem is a checklist item found in a document, document-scoped per
// spec.md §3.
type TodoItem struct {
	ID          string
	DocumentID  string
	Description string
	IsCompleted bool
	LineNumber  int
	ContentHash string
}

// Section is a heading-bounded region of a document, document-scoped.
type Section struct {
	ID         string
	DocumentID string
	Heading    string
	Level      int
	ParentID   string // empty if top-level
}

// PlaceholderDocument stands in for a wiki link target that resolved to
// neither a registered document nor a typed entity (spec.md I6).
type PlaceholderDocument struct {
	ID               string
	OriginalLinkText string
	ReferencedBy     map[string]struct{} // document ids
}
