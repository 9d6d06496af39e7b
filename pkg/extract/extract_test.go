// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"testing"

	"github.com/gardener/mdkg/pkg/docregistry"
	"github.com/gardener/mdkg/pkg/entityregistry"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/gardener/mdkg/pkg/wikilink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor() *Extractor {
	docs := docregistry.New()
	entities := entityregistry.New(true)
	resolver := wikilink.NewResolver(docs, entities, wikilink.NewPlaceholderRegistry())
	return New(resolver, entities)
}

func TestExtractBuildsNestedSectionTree(t *testing.T) {
	e := newExtractor()
	doc := source.Document{
		Elements: []source.Element{
			{Kind: source.ElementHeading, Level: 1, Text: "Overview"},
			{Kind: source.ElementHeading, Level: 2, Text: "Background"},
			{Kind: source.ElementHeading, Level: 1, Text: "Next Steps"},
		},
	}
	result, err := e.Extract(doc, "/Document/meeting", nil, false)
	require.NoError(t, err)
	require.Len(t, result.Sections, 3)
	assert.Equal(t, "", result.Sections[0].ParentID)
	assert.Equal(t, result.Sections[0].ID, result.Sections[1].ParentID)
	assert.Equal(t, "", result.Sections[2].ParentID)
}

func TestExtractSkipsOutOfRangeHeadingLevelButContinues(t *testing.T) {
	e := newExtractor()
	doc := source.Document{
		Elements: []source.Element{
			{Kind: source.ElementHeading, Level: 1, Text: "Overview"},
			{Kind: source.ElementHeading, Level: 7, Text: "Malformed"},
			{Kind: source.ElementHeading, Level: 2, Text: "Background"},
		},
	}
	result, err := e.Extract(doc, "/Document/meeting", nil, false)
	require.NoError(t, err)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, "Overview", result.Sections[0].Heading)
	assert.Equal(t, "Background", result.Sections[1].Heading)
}

func TestExtractTodoItemsToleratesLeadingWhitespace(t *testing.T) {
	e := newExtractor()
	doc := source.Document{
		Elements: []source.Element{
			{Kind: source.ElementListItem, RawText: "    - [ ] Buy milk", LineNumber: 3},
			{Kind: source.ElementListItem, RawText: "- [x] Ship release", LineNumber: 5},
			{Kind: source.ElementListItem, RawText: "Not a todo", LineNumber: 6},
		},
	}
	result, err := e.Extract(doc, "/Document/notes", nil, false)
	require.NoError(t, err)
	require.Len(t, result.TodoItems, 2)
	assert.Equal(t, "Buy milk", result.TodoItems[0].Description)
	assert.False(t, result.TodoItems[0].IsCompleted)
	assert.Equal(t, "Ship release", result.TodoItems[1].Description)
	assert.True(t, result.TodoItems[1].IsCompleted)
}

func TestExtractWikiLinkYieldsMention(t *testing.T) {
	e := newExtractor()
	doc := source.Document{
		Elements: []source.Element{
			{Kind: source.ElementWikiLink, OriginalText: "person:Alex Cipher"},
		},
	}
	result, err := e.Extract(doc, "/Document/notes", nil, false)
	require.NoError(t, err)
	require.Len(t, result.Mentions, 1)
	assert.Equal(t, kbmodel.KindPerson, result.Mentions[0].Kind)
	assert.Equal(t, "/Person/alex-cipher", result.Mentions[0].TargetID)
}

func TestExtractRepeatedWikiLinkCountsMentionOnce(t *testing.T) {
	e := newExtractor()
	doc := source.Document{
		Elements: []source.Element{
			{Kind: source.ElementWikiLink, OriginalText: "person:Alex Cipher"},
			{Kind: source.ElementWikiLink, OriginalText: "person:Alex Cipher"},
		},
	}
	result, err := e.Extract(doc, "/Document/notes", nil, false)
	require.NoError(t, err)
	require.Len(t, result.Mentions, 1)
	assert.Equal(t, 2, result.Mentions[0].Count)
}

func TestExtractCollectsHashtags(t *testing.T) {
	e := newExtractor()
	doc := source.Document{Content: "Filed under #project/rollout and #urgent."}
	result, err := e.Extract(doc, "/Document/notes", nil, false)
	require.NoError(t, err)
	require.Len(t, result.Mentions, 2)
	for _, m := range result.Mentions {
		assert.Equal(t, kbmodel.KindTag, m.Kind)
	}
}

func TestExtractAppliesNERHitsWhenEnabled(t *testing.T) {
	e := newExtractor()
	doc := source.Document{Content: "Jordan Vega flew to Berlin."}
	hits := []source.NERHit{
		{Label: source.NERPerson, Text: "Jordan Vega"},
		{Label: source.NERLocation, Text: "Berlin"},
		{Label: source.NERDate, Text: "yesterday"},
	}
	result, err := e.Extract(doc, "/Document/notes", hits, true)
	require.NoError(t, err)
	require.Len(t, result.Mentions, 2)
}

func TestExtractSkipsNERHitsWhenDisabled(t *testing.T) {
	e := newExtractor()
	doc := source.Document{Content: "Jordan Vega flew to Berlin."}
	hits := []source.NERHit{{Label: source.NERPerson, Text: "Jordan Vega"}}
	result, err := e.Extract(doc, "/Document/notes", hits, false)
	require.NoError(t, err)
	assert.Empty(t, result.Mentions)
}
