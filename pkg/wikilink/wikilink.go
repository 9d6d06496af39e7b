// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package wikilink classifies and resolves `[[...]]` wiki link text to a
// document, a typed global entity, or a synthetic placeholder, per spec.md
// §4.5.
package wikilink

import (
	"strings"
	"sync"

	"github.com/gardener/mdkg/pkg/docregistry"
	"github.com/gardener/mdkg/pkg/entityregistry"
	"github.com/gardener/mdkg/pkg/kbid"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/kgerrors"
)

// ResolvedKind is the outcome category of a resolved wiki link.
type ResolvedKind string

// The closed set of outcomes a wiki link can resolve to.
const (
	ResolvedDocument     ResolvedKind = "Document"
	ResolvedPerson       ResolvedKind = "Person"
	ResolvedOrganization ResolvedKind = "Organization"
	ResolvedLocation     ResolvedKind = "Location"
	ResolvedProject      ResolvedKind = "Project"
	ResolvedTag          ResolvedKind = "Tag"
	ResolvedPlaceholder  ResolvedKind = "Placeholder"
)

// Confidence levels per spec.md §4.5.
const (
	ConfidenceResolved = 1.0
	ConfidenceInferred = 0.8
	ConfidenceNone     = 0.0
)

// ResolvedLink is the output of resolving one wiki link occurrence.
type ResolvedLink struct {
	OriginalText string
	ResolvedKind ResolvedKind
	TargetID     string
	Confidence   float64
}

// ContextHint names the surrounding field/context a wiki link was found in,
// used to infer a kind when no typed prefix is present (spec.md §4.5 step 4).
type ContextHint string

// Recognized context hints and the kind they infer.
const (
	ContextAttendees    ContextHint = "attendees"
	ContextAuthor       ContextHint = "author"
	ContextParticipants ContextHint = "participants"
	ContextOrganization ContextHint = "organization"
	ContextCompany      ContextHint = "company"
	ContextProject      ContextHint = "project"
	ContextLocation     ContextHint = "location"
	ContextTag          ContextHint = "tag"
	ContextNone         ContextHint = ""
)

var typedPrefixes = map[string]ResolvedKind{
	"person":       ResolvedPerson,
	"org":          ResolvedOrganization,
	"organization": ResolvedOrganization,
	"location":     ResolvedLocation,
	"project":      ResolvedProject,
	"tag":          ResolvedTag,
	"doc":          ResolvedDocument,
}

var contextInference = map[ContextHint]ResolvedKind{
	ContextAttendees:    ResolvedPerson,
	ContextAuthor:       ResolvedPerson,
	ContextParticipants: ResolvedPerson,
	ContextOrganization: ResolvedOrganization,
	ContextCompany:      ResolvedOrganization,
	ContextProject:      ResolvedProject,
	ContextLocation:     ResolvedLocation,
	ContextTag:          ResolvedTag,
}

// PlaceholderRegistry owns the synthetic PlaceholderDocument entities
// created for wiki links that resolve to neither a document nor a typed
// entity (spec.md I6). Safe for concurrent use.
type PlaceholderRegistry struct {
	mu   sync.Mutex
	byID map[string]*kbmodel.PlaceholderDocument
}

// NewPlaceholderRegistry creates an empty PlaceholderRegistry.
func NewPlaceholderRegistry() *PlaceholderRegistry {
	return &PlaceholderRegistry{byID: make(map[string]*kbmodel.PlaceholderDocument)}
}

// GetOrCreate returns the placeholder for linkText, creating it on first
// observation, and records documentID in its referenced_by set.
func (p *PlaceholderRegistry) GetOrCreate(linkText, documentID string) (string, error) {
	id, err := kbid.PlaceholderDocument(linkText)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ph, ok := p.byID[id]
	if !ok {
		ph = &kbmodel.PlaceholderDocument{
			ID:               id,
			OriginalLinkText: linkText,
			ReferencedBy:     map[string]struct{}{},
		}
		p.byID[id] = ph
	}
	ph.ReferencedBy[documentID] = struct{}{}
	return id, nil
}

// All returns every placeholder created during this run, in no particular
// order; callers that need determinism should sort by ID.
func (p *PlaceholderRegistry) All() []kbmodel.PlaceholderDocument {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]kbmodel.PlaceholderDocument, 0, len(p.byID))
	for _, ph := range p.byID {
		referencedBy := make(map[string]struct{}, len(ph.ReferencedBy))
		for k := range ph.ReferencedBy {
			referencedBy[k] = struct{}{}
		}
		out = append(out, kbmodel.PlaceholderDocument{
			ID:               ph.ID,
			OriginalLinkText: ph.OriginalLinkText,
			ReferencedBy:     referencedBy,
		})
	}
	return out
}

// Resolver classifies and resolves wiki link text, per spec.md §4.5.
// DocumentRegistry access is read-only here; EntityRegistry and the
// PlaceholderRegistry may be mutated.
type Resolver struct {
	docs         *docregistry.Registry
	entities     *entityregistry.Registry
	placeholders *PlaceholderRegistry
}

// NewResolver builds a Resolver over the given shared registries.
func NewResolver(docs *docregistry.Registry, entities *entityregistry.Registry, placeholders *PlaceholderRegistry) *Resolver {
	return &Resolver{docs: docs, entities: entities, placeholders: placeholders}
}

// Resolve resolves linkText, found while processing documentID, using hint
// as a fallback context when no typed prefix is present.
func (r *Resolver) Resolve(linkText string, hint ContextHint, documentID string) (ResolvedLink, error) {
	text := linkText
	var explicitKind ResolvedKind
	var hasExplicitKind bool

	if prefix, remainder, ok := splitTypedPrefix(linkText); ok {
		if kind, recognized := typedPrefixes[strings.ToLower(prefix)]; recognized {
			explicitKind = kind
			hasExplicitKind = true
			text = remainder
		}
	}

	if !hasExplicitKind || explicitKind == ResolvedDocument {
		if id, found := r.docs.FindByWikiLink(text); found {
			return ResolvedLink{OriginalText: linkText, ResolvedKind: ResolvedDocument, TargetID: id, Confidence: ConfidenceResolved}, nil
		}
	}

	if hasExplicitKind && explicitKind != ResolvedDocument {
		id, err := r.resolveTyped(explicitKind, text)
		if err != nil {
			return ResolvedLink{}, err
		}
		return ResolvedLink{OriginalText: linkText, ResolvedKind: explicitKind, TargetID: id, Confidence: ConfidenceResolved}, nil
	}

	if !hasExplicitKind {
		if kind, inferred := contextInference[hint]; inferred {
			id, err := r.resolveTyped(kind, text)
			if err != nil {
				return ResolvedLink{}, err
			}
			return ResolvedLink{OriginalText: linkText, ResolvedKind: kind, TargetID: id, Confidence: ConfidenceInferred}, nil
		}
	}

	id, err := r.placeholders.GetOrCreate(text, documentID)
	if err != nil {
		return ResolvedLink{}, err
	}
	return ResolvedLink{OriginalText: linkText, ResolvedKind: ResolvedPlaceholder, TargetID: id, Confidence: ConfidenceNone}, nil
}

func (r *Resolver) resolveTyped(kind ResolvedKind, text string) (string, error) {
	entityKind, ok := toEntityKind(kind)
	if !ok {
		return "", kgerrors.New(kgerrors.InvalidInput, "unsupported wiki link target kind: "+string(kind), nil)
	}
	id, _, err := r.entities.GetOrCreate(entityKind, text)
	return id, err
}

func toEntityKind(kind ResolvedKind) (kbmodel.EntityKind, bool) {
	switch kind {
	case ResolvedPerson:
		return kbmodel.KindPerson, true
	case ResolvedOrganization:
		return kbmodel.KindOrganization, true
	case ResolvedLocation:
		return kbmodel.KindLocation, true
	case ResolvedProject:
		return kbmodel.KindProject, true
	case ResolvedTag:
		return kbmodel.KindTag, true
	default:
		return "", false
	}
}

// splitTypedPrefix splits "kind:remainder" when a ':' precedes any '/' in
// linkText, per spec.md §4.5 step 1. The prefix is returned unlowercased;
// callers must lowercase before matching against the recognized set.
func splitTypedPrefix(linkText string) (prefix, remainder string, ok bool) {
	colon := strings.IndexByte(linkText, ':')
	if colon < 0 {
		return "", "", false
	}
	slash := strings.IndexByte(linkText, '/')
	if slash >= 0 && slash < colon {
		return "", "", false
	}
	return linkText[:colon], linkText[colon+1:], true
}
