// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package source defines the shapes the core consumes from its external
// collaborators (spec.md §6.1): a parsed document, NER hits, and run
// configuration. The core does not prescribe a Markdown parser, an NER
// model, or a crawler - it only needs values shaped like these.
package source

// Document is a parsed Markdown file as handed to the Pipeline.
type Document struct {
	// SourcePath is the original, as-spelled relative filesystem path.
	SourcePath string
	// Frontmatter holds parsed scalar/list values keyed by field name.
	Frontmatter map[string]interface{}
	// Content is the plain text used for word counting and NER.
	Content string
	// Elements is the parsed element tree.
	Elements []Element
	// Created and Modified are ISO-8601 timestamps, populated by a
	// collaborator such as pkg/source/gitmeta when frontmatter doesn't
	// supply them. Empty if unknown.
	Created  string
	Modified string
}

// ElementKind tags the variant an Element instance belongs to.
type ElementKind string

// The element kinds a Markdown parser collaborator can hand to the core.
const (
	ElementHeading   ElementKind = "heading"
	ElementParagraph ElementKind = "paragraph"
	ElementListItem  ElementKind = "list_item"
	ElementCodeBlock ElementKind = "code_block"
	ElementWikiLink  ElementKind = "wiki_link"
)

// Element is one node of the parsed document's element tree. Fields not
// relevant to Kind are left zero-valued.
type Element struct {
	Kind ElementKind

	// heading
	Level int
	Text  string

	// list_item
	LeadingWhitespace string
	RawText           string
	LineNumber        int

	// wiki_link
	OriginalText string
	Position     int

	// Children holds nested elements (e.g. a heading's following content
	// isn't nested here - the extractor walks the flat sequence and tracks
	// heading levels itself per spec.md §4.7).
	Children []Element
}

// NERLabel is one of the recognized named-entity-recognition labels.
type NERLabel string

// Recognized NER labels (spec.md §6.1); unknown labels are ignored.
const (
	NERPerson       NERLabel = "PERSON"
	NEROrg          NERLabel = "ORG"
	NEROrganization NERLabel = "ORGANIZATION"
	NERLocation     NERLabel = "LOC"
	NERGPE          NERLabel = "GPE"
	NERDate         NERLabel = "DATE"
	NERProject      NERLabel = "PROJECT"
)

// NERHit is one named-entity-recognition match over a document's plain text.
type NERHit struct {
	Label     NERLabel
	Text      string
	StartChar int
	EndChar   int
}

// NERProvider supplies NER hits for a document's content. The core treats
// NER as an external collaborator (spec.md §1); cmd/mdkg wires a concrete
// implementation or leaves analyze_entities disabled.
type NERProvider interface {
	Extract(content string) ([]NERHit, error)
}

// Config is the run configuration recognized by the core (spec.md §6.1).
type Config struct {
	// BaseURI prefixes all IRIs in emitted RDF. Defaults to
	// "http://example.org/kb/".
	BaseURI string
	// AnalyzeEntities, if false, skips NER: only wiki-link and frontmatter
	// entity references are produced.
	AnalyzeEntities bool
	// LinkExtensions are tried, in order, when resolving wiki links to
	// documents. Defaults to [".md", ".markdown", ".txt"].
	LinkExtensions []string
	// WarnOnAliasCollision, if true, logs a warning when EntityRegistry
	// merges two observations with conflicting scalar properties.
	WarnOnAliasCollision bool
}

// DefaultConfig returns the configuration defaults named in spec.md §6.1.
func DefaultConfig() Config {
	return Config{
		BaseURI:              "http://example.org/kb/",
		AnalyzeEntities:      false,
		LinkExtensions:       []string{".md", ".markdown", ".txt"},
		WarnOnAliasCollision: true,
	}
}
