// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package pipeline orchestrates per-document processing end to end,
// enforcing the ordering and invariants of spec.md §4.9 and the two-phase
// concurrency model of spec.md §5.
package pipeline

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/gardener/mdkg/pkg/docregistry"
	"github.com/gardener/mdkg/pkg/entityregistry"
	"github.com/gardener/mdkg/pkg/extract"
	"github.com/gardener/mdkg/pkg/kbid"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/gardener/mdkg/pkg/property"
	"github.com/gardener/mdkg/pkg/rdf"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/gardener/mdkg/pkg/wikilink"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"k8s.io/klog/v2"
)

// Report is the run-level summary named in spec.md §6.2.
type Report struct {
	// RunID is a process-scoped correlation id for this run's log lines; it
	// is never part of an entity IRI (those are content-derived, per §4.2).
	RunID               string
	DocumentsProcessed  int
	DocumentsSkipped    int
	EntitiesByKind      map[kbmodel.EntityKind]int
	PlaceholdersCreated int
	Collisions          []entityregistry.CollisionRecord
	// Diagnostics holds the recoverable errors (InvalidInput, DuplicatePath,
	// MalformedElement) that caused a document to be skipped. These do not
	// fail the run - see kgerrors.Kind.Recoverable.
	Diagnostics []error
}

// Pipeline owns the shared registries for a single run and drives every
// document through the procedure in spec.md §4.9.
type Pipeline struct {
	cfg          source.Config
	ner          source.NERProvider
	docs         *docregistry.Registry
	entities     *entityregistry.Registry
	placeholders *wikilink.PlaceholderRegistry
	resolver     *wikilink.Resolver
	extractor    *extract.Extractor

	// Concurrency caps how many documents Phase B processes at once. 1
	// (the default via New) keeps the Pipeline single-threaded; a higher
	// value opts into the worker-pool model of spec.md §5.
	Concurrency int
}

// New builds a Pipeline with a fresh set of registries for one run. ner may
// be nil; it is only consulted when cfg.AnalyzeEntities is true.
func New(cfg source.Config, ner source.NERProvider) *Pipeline {
	docs := docregistry.New(cfg.LinkExtensions...)
	entities := entityregistry.New(cfg.WarnOnAliasCollision)
	placeholders := wikilink.NewPlaceholderRegistry()
	resolver := wikilink.NewResolver(docs, entities, placeholders)
	return &Pipeline{
		cfg:          cfg,
		ner:          ner,
		docs:         docs,
		entities:     entities,
		placeholders: placeholders,
		resolver:     resolver,
		extractor:    extract.New(resolver, entities),
		Concurrency:  1,
	}
}

type registeredDoc struct {
	source                source.Document
	id                    string
	pathWithoutExtension  string
}

// Run processes docs in the given order (Phase A registration, then Phase B
// per-document processing) and returns the unioned run-wide graph plus a
// Report. Processing order is the caller's responsibility: a fixed,
// deterministic order (e.g. sorted by SourcePath) is required for
// reproducible output (spec.md §4.9 "Determinism").
func (p *Pipeline) Run(ctx context.Context, docs []source.Document) (*rdf.Graph, Report, error) {
	report := Report{RunID: uuid.NewString(), EntitiesByKind: map[kbmodel.EntityKind]int{}}
	var fatal *multierror.Error

	recordDiagnostic := func(sourcePath string, err error) {
		klog.Warningf("skipping document %q: %v", sourcePath, err)
		report.Diagnostics = append(report.Diagnostics, err)
		report.DocumentsSkipped++
	}

	// Phase A: single-threaded registration. Must complete in full before
	// any wiki-link resolution so forward references resolve to real
	// documents instead of placeholders (spec.md §5).
	registered := make([]registeredDoc, 0, len(docs))
	for _, doc := range docs {
		id, original, pathWithoutExt, err := kbid.Document(doc.SourcePath)
		if err != nil {
			recordDiagnostic(doc.SourcePath, err)
			continue
		}
		if err := p.docs.Register(id, original, pathWithoutExt); err != nil {
			recordDiagnostic(doc.SourcePath, err)
			continue
		}
		registered = append(registered, registeredDoc{source: doc, id: id, pathWithoutExtension: pathWithoutExt})
	}

	// Phase B: optionally parallel per-document processing, combined by a
	// single-threaded combiner (spec.md §5).
	graph := rdf.NewGraph(p.cfg.BaseURI)
	var combinerMu sync.Mutex

	sem := make(chan struct{}, concurrencyOrDefault(p.Concurrency))
	var wg sync.WaitGroup

	for _, rd := range registered {
		if ctx.Err() != nil {
			// Cancellation takes effect at the next document boundary
			// (spec.md §5); documents already dispatched still complete.
			break
		}
		rd := rd
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			docGraph, err := p.processDocument(rd)
			if err != nil {
				combinerMu.Lock()
				if isFatal(err) {
					fatal = multierror.Append(fatal, err)
				} else {
					recordDiagnostic(rd.source.SourcePath, err)
				}
				combinerMu.Unlock()
				klog.Warningf("document %q failed processing: %v", rd.source.SourcePath, err)
				return
			}
			combinerMu.Lock()
			graph.Merge(docGraph)
			report.DocumentsProcessed++
			combinerMu.Unlock()
		}()
	}
	wg.Wait()

	// Run-level finalization: emit each global entity exactly once,
	// regardless of how many documents mentioned it (spec.md §4.9).
	p.emitGlobalEntities(graph, &report)

	report.Collisions = p.entities.Collisions()
	report.PlaceholdersCreated = len(p.placeholders.All())

	if fatal != nil {
		fatal.ErrorFormat = func(errs []error) string {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return strings.Join(msgs, "; ")
		}
		return graph, report, fatal.ErrorOrNil()
	}
	return graph, report, nil
}

// isFatal reports whether err should abort the run rather than merely skip
// the offending document. Kinds that kgerrors.Kind.Recoverable rejects
// (EmissionFailure, Cancelled) are fatal; InvalidInput, DuplicatePath and
// MalformedElement are recoverable. A non-kgerrors error is treated as fatal
// since its severity is unknown to the core (NERProvider errors are wrapped
// as MalformedElement by processDocument, so they are recoverable).
func isFatal(err error) bool {
	var kerr *kgerrors.Error
	if errors.As(err, &kerr) {
		return !kerr.Kind.Recoverable()
	}
	return true
}

func concurrencyOrDefault(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// processDocument runs steps 3-6 of spec.md §4.9 for a single already
// registered document and returns its own RDF graph.
func (p *Pipeline) processDocument(rd registeredDoc) (*rdf.Graph, error) {
	doc := rd.source
	docID := rd.id

	model := kbmodel.Document{
		ID:                   docID,
		OriginalPath:         doc.SourcePath,
		PathWithoutExtension: rd.pathWithoutExtension,
		Title:                documentTitle(doc),
		Created:              firstNonEmpty(stringField(doc.Frontmatter, "created"), doc.Created),
		Modified:             firstNonEmpty(stringField(doc.Frontmatter, "modified"), doc.Modified),
		WordCount:            len(strings.Fields(doc.Content)),
		Literals:             map[string]kbmodel.LiteralValue{},
	}

	var mentions []extract.Mention
	mentionIndex := map[string]int{}

	addMention := func(kind kbmodel.EntityKind, id string) {
		if id == "" {
			return
		}
		key := string(kind) + "|" + id
		if idx, ok := mentionIndex[key]; ok {
			mentions[idx].Count++
			return
		}
		mentionIndex[key] = len(mentions)
		mentions = append(mentions, extract.Mention{Kind: kind, TargetID: id, Count: 1})
	}

	fieldNames := make([]string, 0, len(doc.Frontmatter))
	for field := range doc.Frontmatter {
		fieldNames = append(fieldNames, field)
	}
	sort.Strings(fieldNames)

	for _, field := range fieldNames {
		classified, err := property.Classify(field, doc.Frontmatter[field])
		if err != nil {
			return nil, err
		}
		if classified.HasLiteral() {
			model.Literals[classified.Predicate] = classified.Literal
		}
		for _, ref := range classified.References {
			resolved, err := p.resolver.Resolve(ref.LinkText, ref.Hint, docID)
			if err != nil {
				return nil, err
			}
			addMention(resolvedEntityKind(resolved.ResolvedKind), resolved.TargetID)
		}
	}

	var hits []source.NERHit
	if p.cfg.AnalyzeEntities && p.ner != nil {
		h, err := p.ner.Extract(doc.Content)
		if err != nil {
			return nil, kgerrors.New(kgerrors.MalformedElement, "NER extraction failed for "+doc.SourcePath, err)
		}
		hits = h
	}

	result, err := p.extractor.Extract(doc, docID, hits, p.cfg.AnalyzeEntities)
	if err != nil {
		return nil, err
	}
	for _, m := range result.Mentions {
		addMention(m.Kind, m.TargetID)
	}

	docGraph := rdf.NewGraph(p.cfg.BaseURI)
	if err := rdf.EmitDocument(docGraph, model, result.Sections, result.TodoItems, mentions); err != nil {
		return nil, err
	}
	return docGraph, nil
}

func (p *Pipeline) emitGlobalEntities(graph *rdf.Graph, report *Report) {
	persons := p.entities.Persons()
	for _, e := range persons {
		rdf.EmitPerson(graph, e)
	}
	report.EntitiesByKind[kbmodel.KindPerson] = len(persons)

	orgs := p.entities.Organizations()
	for _, e := range orgs {
		rdf.EmitOrganization(graph, e)
	}
	report.EntitiesByKind[kbmodel.KindOrganization] = len(orgs)

	locs := p.entities.Locations()
	for _, e := range locs {
		rdf.EmitLocation(graph, e)
	}
	report.EntitiesByKind[kbmodel.KindLocation] = len(locs)

	projects := p.entities.Projects()
	for _, e := range projects {
		rdf.EmitProject(graph, e)
	}
	report.EntitiesByKind[kbmodel.KindProject] = len(projects)

	tags := p.entities.Tags()
	for _, e := range tags {
		rdf.EmitTag(graph, e)
	}
	report.EntitiesByKind[kbmodel.KindTag] = len(tags)

	placeholders := p.placeholders.All()
	sort.Slice(placeholders, func(i, j int) bool { return placeholders[i].ID < placeholders[j].ID })
	for _, ph := range placeholders {
		rdf.EmitPlaceholderDocument(graph, ph)
	}
	report.EntitiesByKind[kbmodel.KindPlaceholderDocument] = len(placeholders)
}

func resolvedEntityKind(kind wikilink.ResolvedKind) kbmodel.EntityKind {
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

func documentTitle(doc source.Document) string {
	if title := stringField(doc.Frontmatter, "title"); title != "" {
		return title
	}
	base := path.Base(doc.SourcePath)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

func stringField(frontmatter map[string]interface{}, field string) string {
	if frontmatter == nil {
		return ""
	}
	if v, ok := frontmatter[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
