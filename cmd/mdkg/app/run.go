// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gardener/mdkg/pkg/pipeline"
	"github.com/gardener/mdkg/pkg/rdf"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/gardener/mdkg/pkg/source/gitmeta"
	"k8s.io/klog/v2"
)

// noopNERProvider is the documented no-op stub for the --ner-plugin flag
// point (spec.md §1 names NER as an out-of-scope external collaborator;
// SPEC_FULL §3.5 names this as intentionally unimplemented).
type noopNERProvider struct{}

func (noopNERProvider) Extract(string) ([]source.NERHit, error) { return nil, nil }

// Run crawls options.RootPath, runs the pipeline over the resulting
// documents, and writes the Turtle serialization of the resulting graph to
// options.OutputPath (or stdout). It exits non-zero when any document was
// skipped, per spec.md §7's "user-visible behavior".
func Run(ctx context.Context, options *Options) error {
	var gitRepo *gitmeta.Repository
	if options.UseGitTimestamps {
		repo, err := gitmeta.Open(options.RootPath)
		if err != nil {
			klog.Warningf("git timestamps requested but %s is not a Git working tree: %v", options.RootPath, err)
		} else {
			gitRepo = repo
		}
	}

	docs, err := crawl(options.RootPath, gitRepo)
	if err != nil {
		return err
	}

	cfg := source.Config{
		BaseURI:              options.BaseURI,
		AnalyzeEntities:      options.AnalyzeEntities,
		LinkExtensions:       options.LinkExtensions,
		WarnOnAliasCollision: options.WarnOnAliasCollision,
	}

	var ner source.NERProvider = noopNERProvider{}
	if cfg.AnalyzeEntities && options.NERPlugin == "" {
		klog.Warningf("--analyze-entities set with no --ner-plugin configured; NER hits will be empty")
	}

	p := pipeline.New(cfg, ner)
	p.Concurrency = options.Concurrency

	graph, report, err := p.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if err := writeGraph(graph, options.OutputPath); err != nil {
		return err
	}

	klog.Infof("run %s: processed %d document(s), skipped %d, placeholders %d, collisions %d",
		report.RunID, report.DocumentsProcessed, report.DocumentsSkipped, report.PlaceholdersCreated, len(report.Collisions))
	for kind, count := range report.EntitiesByKind {
		klog.Infof("  %s: %d", kind, count)
	}

	if report.DocumentsSkipped > 0 {
		os.Exit(1)
	}
	return nil
}

func writeGraph(graph *rdf.Graph, outputPath string) error {
	turtle := rdf.WriteTurtle(graph)
	if outputPath == "" {
		_, err := fmt.Print(turtle)
		return err
	}
	return os.WriteFile(outputPath, []byte(turtle), 0o644)
}
