// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package docregistry maps original document paths to document ids and
// resolves wiki link text against those paths, per spec.md §4.3.
package docregistry

import (
	"strings"
	"sync"

	"github.com/gardener/mdkg/pkg/kgerrors"
)

// Registry is the document path <-> id lookup table. The zero value is not
// usable; construct with New. A Registry is safe for concurrent use - all
// critical sections are confined to map lookups/inserts (spec.md §5).
type Registry struct {
	mu sync.RWMutex
	// byOriginalPath and byPathWithoutExtension are keyed exactly as
	// received: case-preserving, whitespace-preserving.
	byOriginalPath         map[string]string
	byPathWithoutExtension map[string]string
	// linkExtensions are tried, in order, when a wiki link's text doesn't
	// match a path outright (spec.md §6.1 link_extensions, default
	// [".md", ".markdown", ".txt"]).
	linkExtensions []string
}

// DefaultLinkExtensions is the default probe order for resolving a wiki
// link's bare path-without-extension text to a document.
var DefaultLinkExtensions = []string{".md", ".markdown", ".txt"}

// New creates an empty Registry. extensions overrides the default
// link-extension probe order when non-empty.
func New(extensions ...string) *Registry {
	exts := DefaultLinkExtensions
	if len(extensions) > 0 {
		exts = extensions
	}
	return &Registry{
		byOriginalPath:         make(map[string]string),
		byPathWithoutExtension: make(map[string]string),
		linkExtensions:         exts,
	}
}

// Register inserts a document's paths into both lookup maps. It fails with
// kgerrors.DuplicatePath if either key is already mapped to a different id.
func (r *Registry) Register(docID, originalPath, pathWithoutExtension string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byOriginalPath[originalPath]; ok && existing != docID {
		return kgerrors.New(kgerrors.DuplicatePath, "original path already registered to a different document: "+originalPath, nil)
	}
	if existing, ok := r.byPathWithoutExtension[pathWithoutExtension]; ok && existing != docID {
		return kgerrors.New(kgerrors.DuplicatePath, "path without extension already registered to a different document: "+pathWithoutExtension, nil)
	}

	r.byOriginalPath[originalPath] = docID
	r.byPathWithoutExtension[pathWithoutExtension] = docID
	return nil
}

// FindByWikiLink resolves wiki link text to a document id. link_text is
// NEVER normalized here - see pkg/normalize's contract. Resolution is tried,
// in order, with case-sensitive exact match first and a case-insensitive
// fallback only if the case-sensitive pass yields nothing:
//
//  1. link_text as a complete original path.
//  2. link_text + each configured extension.
//  3. link_text interpreted as a path-without-extension.
//
// The first match wins.
func (r *Registry) FindByWikiLink(linkText string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.lookup(linkText, false); ok {
		return id, true
	}
	return r.lookup(linkText, true)
}

func (r *Registry) lookup(linkText string, caseInsensitive bool) (string, bool) {
	if id, ok := find(r.byOriginalPath, linkText, caseInsensitive); ok {
		return id, true
	}
	for _, ext := range r.linkExtensions {
		if id, ok := find(r.byOriginalPath, linkText+ext, caseInsensitive); ok {
			return id, true
		}
	}
	if id, ok := find(r.byPathWithoutExtension, linkText, caseInsensitive); ok {
		return id, true
	}
	return "", false
}

func find(m map[string]string, key string, caseInsensitive bool) (string, bool) {
	if !caseInsensitive {
		id, ok := m[key]
		return id, ok
	}
	lowerKey := strings.ToLower(key)
	for k, v := range m {
		if strings.ToLower(k) == lowerKey {
			return v, true
		}
	}
	return "", false
}
