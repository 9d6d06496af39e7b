// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"testing"

	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/rdf"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNER struct {
	hits []source.NERHit
}

func (f fakeNER) Extract(content string) ([]source.NERHit, error) {
	return f.hits, nil
}

func TestRunProducesDocumentAndEntityTriples(t *testing.T) {
	cfg := source.DefaultConfig()
	p := New(cfg, nil)

	docs := []source.Document{
		{
			SourcePath:  "Meeting Notes.md",
			Frontmatter: map[string]interface{}{"title": "Weekly Sync", "author": "Alex Cipher"},
			Content:     "Discussed #rollout with the team.",
			Elements: []source.Element{
				{Kind: source.ElementHeading, Level: 1, Text: "Summary"},
				{Kind: source.ElementListItem, RawText: "- [ ] Ship release", LineNumber: 4},
				{Kind: source.ElementWikiLink, OriginalText: "person:Jordan Vega"},
			},
		},
	}

	graph, report, err := p.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 0, report.DocumentsSkipped)
	assert.Equal(t, 2, report.EntitiesByKind[kbmodel.KindPerson])

	found := map[string]bool{}
	for _, tr := range graph.Triples() {
		if tr.Predicate == "rdf:type" {
			found[tr.Object] = true
		}
	}
	assert.True(t, found["kb:Document"])
	assert.True(t, found["kb:Person"])
	assert.True(t, found["kb:Section"])
	assert.True(t, found["kb:TodoItem"])
	assert.True(t, found["kb:Tag"])
}

func TestRunFrontmatterTagsProduceTagEntitiesNotPlaceholders(t *testing.T) {
	cfg := source.DefaultConfig()
	p := New(cfg, nil)

	docs := []source.Document{
		{
			SourcePath:  "Project Plan.md",
			Frontmatter: map[string]interface{}{"tags": []interface{}{"work", "urgent"}},
			Content:     "Plan for the quarter.",
		},
	}

	graph, report, err := p.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, report.EntitiesByKind[kbmodel.KindTag])
	assert.Equal(t, 0, report.PlaceholdersCreated)

	found := map[string]bool{}
	for _, tr := range graph.Triples() {
		if tr.Predicate == "rdf:type" {
			found[tr.Object] = true
		}
	}
	assert.True(t, found["kb:Tag"])
	assert.False(t, found["kb:PlaceholderDocument"])
}

func TestRunSkipsInvalidInputAndContinues(t *testing.T) {
	cfg := source.DefaultConfig()
	p := New(cfg, nil)

	docs := []source.Document{
		{SourcePath: "", Content: "missing a path"},
		{SourcePath: "notes.md", Content: "first"},
	}
	_, report, err := p.Run(context.Background(), docs)
	require.NoError(t, err, "skipped documents are diagnostics, not a fatal run error")
	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
}

func TestRunWithNERAnalysisEnabled(t *testing.T) {
	cfg := source.DefaultConfig()
	cfg.AnalyzeEntities = true
	ner := fakeNER{hits: []source.NERHit{{Label: source.NERLocation, Text: "Berlin"}}}
	p := New(cfg, ner)

	docs := []source.Document{{SourcePath: "trip.md", Content: "Flew to Berlin."}}
	_, report, err := p.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, report.EntitiesByKind[kbmodel.KindLocation])
}

func TestRunIsDeterministicUnderFixedOrder(t *testing.T) {
	cfg := source.DefaultConfig()
	docs := []source.Document{
		{SourcePath: "a.md", Frontmatter: map[string]interface{}{"author": "Alex Cipher"}},
		{SourcePath: "b.md", Frontmatter: map[string]interface{}{"author": "alex cipher"}},
	}

	p1 := New(cfg, nil)
	g1, _, err := p1.Run(context.Background(), docs)
	require.NoError(t, err)

	p2 := New(cfg, nil)
	g2, _, err := p2.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, rdf.WriteTurtle(g1), rdf.WriteTurtle(g2))
}
