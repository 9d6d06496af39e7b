// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gardener/mdkg/pkg/source"
	"github.com/gardener/mdkg/pkg/source/gitmeta"
	"github.com/gardener/mdkg/pkg/source/markdownadapter"
	"k8s.io/klog/v2"
)

// markdownExtensions are the file suffixes crawl treats as documents to
// parse; kept in sync with the default link-extension probe order
// (spec.md §6.1).
var markdownExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

// crawl walks root and parses every Markdown file it finds into a
// source.Document, sorted by SourcePath so the Pipeline's required
// deterministic input order (spec.md §4.9 "Determinism") holds regardless
// of the filesystem's own directory-iteration order. This mirrors the
// filesystem walk pkg/manifest's file collector performs for docforge's
// local resource handler, adapted to this repo's own document model.
func crawl(root string, gitRepo *gitmeta.Repository) ([]source.Document, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := markdownExtensions[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", root, err)
	}
	sort.Strings(paths)

	docs := make([]source.Document, 0, len(paths))
	for _, rel := range paths {
		raw, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			klog.Warningf("skipping %s: %v", rel, err)
			continue
		}
		doc, err := markdownadapter.Parse(rel, raw)
		if err != nil {
			klog.Warningf("skipping %s: %v", rel, err)
			continue
		}
		if gitRepo != nil {
			if created, modified, err := gitRepo.Timestamps(rel); err != nil {
				klog.Warningf("git timestamps unavailable for %s: %v", rel, err)
			} else {
				doc.Created, doc.Modified = created, modified
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
