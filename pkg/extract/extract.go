// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package extract turns a parsed document's element tree and NER output
// into knowledge-graph entities, per spec.md §4.7.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gardener/mdkg/pkg/entityregistry"
	"github.com/gardener/mdkg/pkg/kbid"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/gardener/mdkg/pkg/wikilink"
	"k8s.io/klog/v2"
)

// Mention is one reference from a document to a global entity, counted by
// number of occurrences so the Pipeline can still emit a single
// kb:hasEntity/kb:mentionedIn pair per entity (spec.md §4.8).
type Mention struct {
	Kind     kbmodel.EntityKind
	TargetID string
	Count    int
}

// Result is everything EntityExtractor produced for one document.
type Result struct {
	Sections  []kbmodel.Section
	TodoItems []kbmodel.TodoItem
	Mentions  []Mention
}

// Extractor builds Sections, TodoItems, and entity mentions from a
// document's element tree and NER hits, resolving wiki links via a
// wikilink.Resolver and deduplicating named entities via an
// entityregistry.Registry.
type Extractor struct {
	resolver *wikilink.Resolver
	entities *entityregistry.Registry
}

// New builds an Extractor over the given shared collaborators.
func New(resolver *wikilink.Resolver, entities *entityregistry.Registry) *Extractor {
	return &Extractor{resolver: resolver, entities: entities}
}

// Extract walks doc.Elements to build the Section tree and TodoItems,
// resolves inline wiki links and collects hashtags, and - when
// analyzeEntities is true - feeds hits through the EntityRegistry. All
// results are attributed to documentID.
func (e *Extractor) Extract(doc source.Document, documentID string, hits []source.NERHit, analyzeEntities bool) (Result, error) {
	mentions := newMentionTracker()

	sections, err := e.walkHeadings(documentID, doc.Elements)
	if err != nil {
		return Result{}, err
	}

	todos, err := e.walkTodoItems(documentID, doc.Elements)
	if err != nil {
		return Result{}, err
	}

	if err := e.walkWikiLinks(documentID, doc.Elements, mentions); err != nil {
		return Result{}, err
	}

	if err := e.collectTags(documentID, doc.Content, mentions); err != nil {
		return Result{}, err
	}

	if analyzeEntities {
		if err := e.applyNERHits(hits, mentions); err != nil {
			return Result{}, err
		}
	}

	return Result{Sections: sections, TodoItems: todos, Mentions: mentions.sorted()}, nil
}

// walkHeadings builds the Section tree from a flat element sequence,
// tracking the currently open heading at each level so a nested heading's
// id is derived from the full path from the document root (spec.md §4.2).
func (e *Extractor) walkHeadings(documentID string, elements []source.Element) ([]kbmodel.Section, error) {
	var sections []kbmodel.Section
	var stack []string // heading text path, index 0 = level 1

	var walk func([]source.Element) error
	walk = func(els []source.Element) error {
		for _, el := range els {
			if el.Kind == source.ElementHeading {
				level := el.Level
				if level < 1 || level > 6 {
					err := kgerrors.New(kgerrors.MalformedElement,
						fmt.Sprintf("document %q: heading %q has out-of-range level %d, skipping", documentID, el.Text, level), nil)
					klog.Warningf("%v", err)
					continue
				}
				if level > len(stack) {
					for len(stack) < level-1 {
						stack = append(stack, "")
					}
					stack = append(stack, el.Text)
				} else {
					stack = stack[:level-1]
					stack = append(stack, el.Text)
				}

				id, err := kbid.Section(documentID, stack)
				if err != nil {
					return err
				}
				var parentID string
				if len(stack) > 1 {
					parentID, err = kbid.Section(documentID, stack[:len(stack)-1])
					if err != nil {
						return err
					}
				}
				sections = append(sections, kbmodel.Section{
					ID: id, DocumentID: documentID, Heading: el.Text, Level: level, ParentID: parentID,
				})
			}
			if len(el.Children) > 0 {
				if err := walk(el.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(elements); err != nil {
		return nil, err
	}
	return sections, nil
}

// walkTodoItems finds `- [ ] ...` / `- [x] ...` list items, tolerant of
// arbitrary leading whitespace (spec.md §4.7, contractually required).
func (e *Extractor) walkTodoItems(documentID string, elements []source.Element) ([]kbmodel.TodoItem, error) {
	var todos []kbmodel.TodoItem
	var walk func([]source.Element) error
	walk = func(els []source.Element) error {
		for _, el := range els {
			if el.Kind == source.ElementListItem {
				if completed, desc, ok := parseTodoText(el.RawText); ok {
					id := kbid.TodoItem(documentID, el.LineNumber, desc)
					todos = append(todos, kbmodel.TodoItem{
						ID: id, DocumentID: documentID, Description: desc,
						IsCompleted: completed, LineNumber: el.LineNumber,
						ContentHash: id[strings.LastIndex(id, "-")+1:],
					})
				}
			}
			if len(el.Children) > 0 {
				if err := walk(el.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return todos, walk(elements)
}

// parseTodoText recognizes "- [ ] text" / "- [x] text" after stripping any
// leading whitespace, returning the completion state and description.
func parseTodoText(rawText string) (completed bool, description string, ok bool) {
	trimmed := strings.TrimLeft(rawText, " \t")
	trimmed = strings.TrimPrefix(trimmed, "- ")
	if !strings.HasPrefix(trimmed, "[") {
		return false, "", false
	}
	close := strings.IndexByte(trimmed, ']')
	if close < 2 {
		return false, "", false
	}
	mark := strings.ToLower(strings.TrimSpace(trimmed[1:close]))
	switch mark {
	case "":
		completed = false
	case "x":
		completed = true
	default:
		return false, "", false
	}
	description = strings.TrimSpace(trimmed[close+1:])
	if description == "" {
		return false, "", false
	}
	return completed, description, true
}

func (e *Extractor) walkWikiLinks(documentID string, elements []source.Element, mentions *mentionTracker) error {
	var walk func([]source.Element) error
	walk = func(els []source.Element) error {
		for _, el := range els {
			if el.Kind == source.ElementWikiLink {
				resolved, err := e.resolver.Resolve(el.OriginalText, wikilink.ContextNone, documentID)
				if err != nil {
					return err
				}
				mentions.add(resolvedKindToEntityKind(resolved.ResolvedKind), resolved.TargetID)
			}
			if len(el.Children) > 0 {
				if err := walk(el.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(elements)
}

// collectTags finds `#tag` and `#tag/subtag` tokens in plain text content
// and registers each as a Tag entity.
func (e *Extractor) collectTags(documentID string, content string, mentions *mentionTracker) error {
	for _, token := range strings.Fields(content) {
		if !strings.HasPrefix(token, "#") || len(token) < 2 {
			continue
		}
		tagText := strings.TrimRight(token[1:], ".,;:!?)")
		if tagText == "" || !isTagText(tagText) {
			continue
		}
		id, _, err := e.entities.GetOrCreate(kbmodel.KindTag, tagText)
		if err != nil {
			return err
		}
		mentions.add(kbmodel.KindTag, id)
	}
	return nil
}

func isTagText(s string) bool {
	for _, r := range s {
		if r == '/' || r == '-' || r == '_' {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// applyNERHits feeds each recognized NER hit through the EntityRegistry.
// DATE hits never become entities - they're informational only, per
// spec.md §4.7.
func (e *Extractor) applyNERHits(hits []source.NERHit, mentions *mentionTracker) error {
	for _, h := range hits {
		kind, ok := nerLabelToEntityKind(h.Label)
		if !ok {
			continue
		}
		id, _, err := e.entities.GetOrCreate(kind, h.Text)
		if err != nil {
			return err
		}
		mentions.add(kind, id)
	}
	return nil
}

func nerLabelToEntityKind(label source.NERLabel) (kbmodel.EntityKind, bool) {
	switch label {
	case source.NERPerson:
		return kbmodel.KindPerson, true
	case source.NEROrg, source.NEROrganization:
		return kbmodel.KindOrganization, true
	case source.NERLocation, source.NERGPE:
		return kbmodel.KindLocation, true
	case source.NERProject:
		return kbmodel.KindProject, true
	default:
		return "", false
	}
}

func resolvedKindToEntityKind(kind wikilink.ResolvedKind) kbmodel.EntityKind {
	switch kind {
	case wikilink.ResolvedDocument:
		return kbmodel.KindDocument
	case wikilink.ResolvedPerson:
		return kbmodel.KindPerson
	case wikilink.ResolvedOrganization:
		return kbmodel.KindOrganization
	case wikilink.ResolvedLocation:
		return kbmodel.KindLocation
	case wikilink.ResolvedProject:
		return kbmodel.KindProject
	case wikilink.ResolvedTag:
		return kbmodel.KindTag
	case wikilink.ResolvedPlaceholder:
		return kbmodel.KindPlaceholderDocument
	default:
		return ""
	}
}

// mentionTracker counts (kind, id) occurrences within a single document.
type mentionTracker struct {
	counts map[string]*Mention
}

func newMentionTracker() *mentionTracker {
	return &mentionTracker{counts: map[string]*Mention{}}
}

func (m *mentionTracker) add(kind kbmodel.EntityKind, id string) {
	if kind == "" || id == "" {
		return
	}
	key := string(kind) + "|" + id
	if existing, ok := m.counts[key]; ok {
		existing.Count++
		return
	}
	m.counts[key] = &Mention{Kind: kind, TargetID: id, Count: 1}
}

func (m *mentionTracker) sorted() []Mention {
	out := make([]Mention, 0, len(m.counts))
	for _, v := range m.counts {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}
