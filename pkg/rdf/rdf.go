// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package rdf renders knowledge-graph entities into RDF triples and
// serializes them as Turtle, per spec.md §4.8.
package rdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gardener/mdkg/pkg/extract"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/kgerrors"
)

// ObjectKind tags whether a Triple's object is a resource IRI or a literal.
type ObjectKind string

const (
	// ObjectIRI marks an object that is another entity's id.
	ObjectIRI ObjectKind = "iri"
	// ObjectResource marks an object that is a bare class/prefixed name
	// (e.g. rdf:type's "kb:Person"), rendered unquoted but never resolved
	// through the base URI.
	ObjectResource ObjectKind = "resource"
	// ObjectLiteral marks an object that is a quoted RDF literal.
	ObjectLiteral ObjectKind = "literal"
)

// Triple is one RDF statement. Subject is always an id (e.g.
// "/Person/alex-cipher"); Object is either another id (ObjectIRI) or a raw
// literal value string (ObjectLiteral, optionally typed by Datatype).
type Triple struct {
	Subject    string
	Predicate  string
	Object     string
	ObjectKind ObjectKind
	Datatype   string // e.g. "xsd:dateTime"; empty implies xsd:string or an untyped term
}

// Graph is the unordered set of triples produced for a run or a single
// document (spec.md §4.8: "the emitter does not assume any order"). Two
// Graphs with the same triples, regardless of insertion order, are equal
// knowledge graphs.
type Graph struct {
	baseURI string
	seen    map[Triple]struct{}
	order   []Triple // insertion order, kept only for deterministic serialization
}

// NewGraph creates an empty Graph under baseURI (default
// "http://example.org/kb/" when empty).
func NewGraph(baseURI string) *Graph {
	if baseURI == "" {
		baseURI = "http://example.org/kb/"
	}
	return &Graph{baseURI: baseURI, seen: map[Triple]struct{}{}}
}

// Add inserts t if not already present; duplicate triples are collapsed
// because the graph is a set.
func (g *Graph) Add(t Triple) {
	if _, ok := g.seen[t]; ok {
		return
	}
	g.seen[t] = struct{}{}
	g.order = append(g.order, t)
}

// Merge appends every triple of other into g.
func (g *Graph) Merge(other *Graph) {
	for _, t := range other.order {
		g.Add(t)
	}
}

// Triples returns every triple in the graph, sorted for deterministic
// output. The graph itself is a set; sorting here only affects iteration
// and serialization order, never membership (spec.md §4.8).
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.order))
	copy(out, g.order)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return a.Object < b.Object
	})
	return out
}

// Len reports the number of distinct triples in the graph.
func (g *Graph) Len() int { return len(g.seen) }

func iriLiteral(base, id string) string {
	return fmt.Sprintf("<%s%s>", strings.TrimRight(base, "/"), id)
}

func hasEntity(g *Graph, docID, entityID string) {
	g.Add(Triple{Subject: docID, Predicate: "kb:hasEntity", Object: entityID, ObjectKind: ObjectIRI})
	g.Add(Triple{Subject: entityID, Predicate: "kb:mentionedIn", Object: docID, ObjectKind: ObjectIRI})
}

func typeTriple(g *Graph, id string, kind kbmodel.EntityKind) {
	g.Add(Triple{Subject: id, Predicate: "rdf:type", Object: "kb:" + string(kind), ObjectKind: ObjectResource})
}

func label(g *Graph, id, value string) {
	g.Add(Triple{Subject: id, Predicate: "rdfs:label", Object: value, ObjectKind: ObjectLiteral, Datatype: "xsd:string"})
}

// EmitDocument renders a Document's own triples: type, label, original
// path, timestamps, literal frontmatter properties, and bidirectional
// links to its contained and mentioned entities. sections and todos are
// the document's own contained entities (spec.md §4.9 step 6); mentions
// are entities the document refers to.
func EmitDocument(g *Graph, doc kbmodel.Document, sections []kbmodel.Section, todos []kbmodel.TodoItem, mentions []extract.Mention) error {
	if doc.ID == "" {
		return kgerrors.New(kgerrors.EmissionFailure, "document id must not be empty", nil)
	}
	typeTriple(g, doc.ID, kbmodel.KindDocument)
	if doc.Title != "" {
		label(g, doc.ID, doc.Title)
	}
	g.Add(Triple{Subject: doc.ID, Predicate: "kb:originalPath", Object: doc.OriginalPath, ObjectKind: ObjectLiteral, Datatype: "xsd:string"})
	if doc.Created != "" {
		g.Add(Triple{Subject: doc.ID, Predicate: "kb:created", Object: doc.Created, ObjectKind: ObjectLiteral, Datatype: "xsd:dateTime"})
	}
	if doc.Modified != "" {
		g.Add(Triple{Subject: doc.ID, Predicate: "kb:modified", Object: doc.Modified, ObjectKind: ObjectLiteral, Datatype: "xsd:dateTime"})
	}
	g.Add(Triple{Subject: doc.ID, Predicate: "kb:wordCount", Object: strconv.Itoa(doc.WordCount), ObjectKind: ObjectLiteral, Datatype: "xsd:integer"})

	fields := make([]string, 0, len(doc.Literals))
	for field := range doc.Literals {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		lit := doc.Literals[field]
		for _, v := range lit.Values {
			g.Add(Triple{Subject: doc.ID, Predicate: field, Object: v, ObjectKind: ObjectLiteral, Datatype: litDatatype(lit.XSDType)})
		}
	}

	for _, s := range sections {
		EmitSection(g, s)
		hasEntity(g, doc.ID, s.ID)
	}
	for _, td := range todos {
		EmitTodoItem(g, td)
		hasEntity(g, doc.ID, td.ID)
	}
	for _, m := range mentions {
		hasEntity(g, doc.ID, m.TargetID)
	}
	return nil
}

func litDatatype(xsdType string) string {
	if xsdType == "" {
		return "xsd:string"
	}
	return xsdType
}

// EmitSection renders a Section's own triples (spec.md §4.8). It does not
// emit the Document -> Section hasEntity pair; callers add that alongside
// EmitDocument so the pair is produced atomically with the rest of a
// document's contained-entity triples.
func EmitSection(g *Graph, s kbmodel.Section) {
	typeTriple(g, s.ID, kbmodel.KindSection)
	g.Add(Triple{Subject: s.ID, Predicate: "kb:heading", Object: s.Heading, ObjectKind: ObjectLiteral, Datatype: "xsd:string"})
	g.Add(Triple{Subject: s.ID, Predicate: "kb:headingLevel", Object: strconv.Itoa(s.Level), ObjectKind: ObjectLiteral, Datatype: "xsd:integer"})
	if s.ParentID != "" {
		g.Add(Triple{Subject: s.ID, Predicate: "kb:parentSection", Object: s.ParentID, ObjectKind: ObjectIRI})
	}
}

// EmitTodoItem renders a TodoItem's own triples.
func EmitTodoItem(g *Graph, td kbmodel.TodoItem) {
	typeTriple(g, td.ID, kbmodel.KindTodoItem)
	g.Add(Triple{Subject: td.ID, Predicate: "kb:description", Object: td.Description, ObjectKind: ObjectLiteral, Datatype: "xsd:string"})
	g.Add(Triple{Subject: td.ID, Predicate: "kb:isCompleted", Object: strconv.FormatBool(td.IsCompleted), ObjectKind: ObjectLiteral, Datatype: "xsd:boolean"})
	g.Add(Triple{Subject: td.ID, Predicate: "kb:lineNumber", Object: strconv.Itoa(td.LineNumber), ObjectKind: ObjectLiteral, Datatype: "xsd:integer"})
}

// EmitPerson renders a Person global entity, emitted once per run-level
// finalization (spec.md §4.9) regardless of how many documents mention it.
func EmitPerson(g *Graph, p kbmodel.Person) {
	typeTriple(g, p.ID, kbmodel.KindPerson)
	label(g, p.ID, p.CanonicalName)
	emitAliases(g, p.ID, p.Aliases)
}

// EmitOrganization renders an Organization global entity.
func EmitOrganization(g *Graph, o kbmodel.Organization) {
	typeTriple(g, o.ID, kbmodel.KindOrganization)
	label(g, o.ID, o.CanonicalName)
	emitAliases(g, o.ID, o.Aliases)
}

// EmitLocation renders a Location global entity. No parent predicate is
// emitted: hierarchy is encoded entirely in the id path (spec.md §4.8).
func EmitLocation(g *Graph, l kbmodel.Location) {
	typeTriple(g, l.ID, kbmodel.KindLocation)
	label(g, l.ID, l.Name)
}

// EmitProject renders a Project global entity.
func EmitProject(g *Graph, p kbmodel.Project) {
	typeTriple(g, p.ID, kbmodel.KindProject)
	label(g, p.ID, p.Name)
}

// EmitTag renders a Tag global entity. Like Location, hierarchy lives in
// the id path, not in a dedicated predicate.
func EmitTag(g *Graph, tag kbmodel.Tag) {
	typeTriple(g, tag.ID, kbmodel.KindTag)
	label(g, tag.ID, tag.Name)
}

// EmitPlaceholderDocument renders a synthetic placeholder target.
func EmitPlaceholderDocument(g *Graph, ph kbmodel.PlaceholderDocument) {
	typeTriple(g, ph.ID, kbmodel.KindPlaceholderDocument)
	label(g, ph.ID, ph.OriginalLinkText)
}

func emitAliases(g *Graph, id string, aliases map[string]struct{}) {
	names := make([]string, 0, len(aliases))
	for a := range aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		g.Add(Triple{Subject: id, Predicate: "kb:alias", Object: a, ObjectKind: ObjectLiteral, Datatype: "xsd:string"})
	}
}

// WriteTurtle serializes g as Turtle, binding the kb: prefix to the
// graph's base URI plus the standard rdf/rdfs/xsd prefixes. The canonical
// serialization named in spec.md §6.2, used for round-trip tests; graph
// equality under test should compare triple sets, not Turtle text, since
// triple order here is merely sorted for readability.
func WriteTurtle(g *Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@prefix kb: <%s> .\n", ensureTrailingSlash(g.baseURI))
	b.WriteString("@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .\n")
	b.WriteString("@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .\n")
	b.WriteString("@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n\n")

	for _, t := range g.Triples() {
		subj := turtleResource(g.baseURI, t.Subject)
		pred := turtlePredicate(t.Predicate)
		var obj string
		switch t.ObjectKind {
		case ObjectIRI, ObjectResource:
			obj = turtleResource(g.baseURI, t.Object)
		default:
			obj = turtleLiteral(t.Object, t.Datatype)
		}
		fmt.Fprintf(&b, "%s %s %s .\n", subj, pred, obj)
	}
	return b.String()
}

func ensureTrailingSlash(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}

// turtleResource renders an id or a bare predicate-like literal ("kb:Type")
// as a Turtle term: ids (leading '/') become full IRIs, anything else
// passes through as a prefixed name.
func turtleResource(base, value string) string {
	if strings.HasPrefix(value, "/") {
		return iriLiteral(base, value)
	}
	return value
}

func turtlePredicate(pred string) string {
	switch pred {
	case "rdf:type", "rdfs:label":
		return pred
	default:
		if strings.Contains(pred, ":") {
			return pred
		}
		return "kb:" + pred
	}
}

func turtleLiteral(value, datatype string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(value)
	if datatype == "" || datatype == "xsd:string" {
		return fmt.Sprintf("%q", escaped)
	}
	return fmt.Sprintf("\"%s\"^^%s", escaped, datatype)
}
