// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package wikilink

import (
	"testing"

	"github.com/gardener/mdkg/pkg/docregistry"
	"github.com/gardener/mdkg/pkg/entityregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver() (*Resolver, *docregistry.Registry, *entityregistry.Registry, *PlaceholderRegistry) {
	docs := docregistry.New()
	entities := entityregistry.New(true)
	placeholders := NewPlaceholderRegistry()
	return NewResolver(docs, entities, placeholders), docs, entities, placeholders
}

func TestResolveDocumentLink(t *testing.T) {
	r, docs, _, _ := newResolver()
	require.NoError(t, docs.Register("/Document/daily-notes/2024-11-07-thursday", "Daily Notes/2024-11-07 Thursday.md", "Daily Notes/2024-11-07 Thursday"))

	resolved, err := r.Resolve("Daily Notes/2024-11-07 Thursday", ContextNone, "/Document/index")
	require.NoError(t, err)
	assert.Equal(t, ResolvedDocument, resolved.ResolvedKind)
	assert.Equal(t, "/Document/daily-notes/2024-11-07-thursday", resolved.TargetID)
	assert.Equal(t, ConfidenceResolved, resolved.Confidence)
}

func TestResolveTypedPrefix(t *testing.T) {
	r, _, _, _ := newResolver()
	resolved, err := r.Resolve("person:Alex Cipher", ContextNone, "/Document/m")
	require.NoError(t, err)
	assert.Equal(t, ResolvedPerson, resolved.ResolvedKind)
	assert.Equal(t, "/Person/alex-cipher", resolved.TargetID)
	assert.Equal(t, ConfidenceResolved, resolved.Confidence)
}

func TestResolveContextInference(t *testing.T) {
	r, _, _, _ := newResolver()
	resolved, err := r.Resolve("Alex Cipher", ContextAttendees, "/Document/m")
	require.NoError(t, err)
	assert.Equal(t, ResolvedPerson, resolved.ResolvedKind)
	assert.Equal(t, ConfidenceInferred, resolved.Confidence)
}

func TestResolveTagContextYieldsTagEntity(t *testing.T) {
	r, _, _, _ := newResolver()
	resolved, err := r.Resolve("work", ContextTag, "/Document/m")
	require.NoError(t, err)
	assert.Equal(t, ResolvedTag, resolved.ResolvedKind)
	assert.Equal(t, "/Tag/work", resolved.TargetID)
	assert.Equal(t, ConfidenceInferred, resolved.Confidence)
}

func TestResolveNoContextYieldsPlaceholder(t *testing.T) {
	r, _, _, placeholders := newResolver()
	resolved, err := r.Resolve("ALEX CIPHER", ContextNone, "/Document/x")
	require.NoError(t, err)
	assert.Equal(t, ResolvedPlaceholder, resolved.ResolvedKind)
	assert.Equal(t, ConfidenceNone, resolved.Confidence)
	assert.Equal(t, "/PlaceholderDocument/alex-cipher", resolved.TargetID)

	all := placeholders.All()
	require.Len(t, all, 1)
	assert.Contains(t, all[0].ReferencedBy, "/Document/x")
}

func TestPlaceholderReuseAcrossDocuments(t *testing.T) {
	r, _, _, placeholders := newResolver()
	_, err := r.Resolve("Future Ideas", ContextNone, "/Document/x")
	require.NoError(t, err)
	_, err = r.Resolve("Future Ideas", ContextNone, "/Document/y")
	require.NoError(t, err)

	all := placeholders.All()
	require.Len(t, all, 1)
	assert.Len(t, all[0].ReferencedBy, 2)
}

func TestSplitTypedPrefixRequiresColonBeforeSlash(t *testing.T) {
	_, _, ok := splitTypedPrefix("path/to:thing")
	assert.False(t, ok, "colon after slash must not be treated as a type prefix")

	prefix, remainder, ok := splitTypedPrefix("person:Alex Cipher")
	assert.True(t, ok)
	assert.Equal(t, "person", prefix)
	assert.Equal(t, "Alex Cipher", remainder)
}
