// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestCrawlOrdersBySourcePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# B\n")
	writeFile(t, dir, "a.md", "# A\n")
	writeFile(t, dir, "Daily Notes/2024-11-07 Thursday.md", "")
	writeFile(t, dir, "notes.txt", "plain text")
	writeFile(t, dir, "ignore.png", "not markdown")

	docs, err := crawl(dir, nil)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	require.Equal(t, "Daily Notes/2024-11-07 Thursday.md", docs[0].SourcePath)
	require.Equal(t, "a.md", docs[1].SourcePath)
	require.Equal(t, "b.md", docs[2].SourcePath)
	require.Equal(t, "notes.txt", docs[3].SourcePath)
}

func TestRunWritesTurtleToOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "# Hello\n\nBody.\n")
	out := filepath.Join(t.TempDir(), "graph.ttl")

	options := &Options{
		RootPath:             dir,
		OutputPath:           out,
		BaseURI:              "http://example.org/kb/",
		LinkExtensions:       []string{".md", ".markdown", ".txt"},
		WarnOnAliasCollision: true,
		Concurrency:          1,
	}
	require.NoError(t, Run(context.Background(), options))

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(contents), "kb:Document")
	require.Contains(t, string(contents), "readme.md")
}
