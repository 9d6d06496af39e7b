// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package markdownadapter parses Markdown bytes into a source.Document
// using goldmark with GitHub-Flavored-Markdown and frontmatter extensions,
// the same parser configuration the teacher repo's pkg/markdown package
// builds on. It is the concrete collaborator behind source.Document for
// the reference CLI in cmd/mdkg.
package markdownadapter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/gardener/mdkg/pkg/source"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	// meta.Meta is kept in the extension chain so the frontmatter block is
	// still stripped from the body before paragraph/heading walking; the
	// block's own value map comes from frontmatterBlock below instead, so
	// this package controls the YAML decoding directly rather than trusting
	// whatever goldmark-meta's internal parser happens to return.
	extensions = []goldmark.Extender{extension.GFM, meta.Meta}
	gmParser   = goldmark.New(goldmark.WithExtensions(extensions...))

	wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	frontmatterRule = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---[ \t]*\r?\n?`)
)

// Parse parses raw Markdown bytes into a source.Document. sourcePath is
// carried through unmodified into the result's SourcePath (I3: never
// normalized by this package or anything downstream of it).
func Parse(sourcePath string, raw []byte) (source.Document, error) {
	pctx := parser.NewContext()
	reader := text.NewReader(raw)
	root := gmParser.Parser().Parse(reader, parser.WithContext(pctx))

	frontmatter, err := frontmatterBlock(raw)
	if err != nil {
		return source.Document{}, kgerrors.New(kgerrors.MalformedElement, "frontmatter parse failed for "+sourcePath, err)
	}

	w := &walker{source: raw}
	if err := ast.Walk(root, w.visit); err != nil {
		return source.Document{}, kgerrors.New(kgerrors.MalformedElement, "markdown parse failed for "+sourcePath, err)
	}

	content := strings.Join(w.textParts, "\n")
	elements := append(w.elements, wikiLinkElements(content)...)

	return source.Document{
		SourcePath:  sourcePath,
		Frontmatter: toGenericMap(frontmatter),
		Content:     content,
		Elements:    elements,
	}, nil
}

type walker struct {
	source    []byte
	elements  []source.Element
	textParts []string
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch n.Kind() {
	case ast.KindHeading:
		h := n.(*ast.Heading)
		txt := plainText(h, w.source)
		w.elements = append(w.elements, source.Element{Kind: source.ElementHeading, Level: h.Level, Text: txt})
		w.textParts = append(w.textParts, txt)
	case ast.KindParagraph:
		txt := plainText(n, w.source)
		if txt != "" {
			w.elements = append(w.elements, source.Element{Kind: source.ElementParagraph, Text: txt})
			w.textParts = append(w.textParts, txt)
		}
	case ast.KindListItem:
		li := n.(*ast.ListItem)
		line := lineNumber(li, w.source)
		checked, isTask := taskCheckbox(li)
		txt := plainText(li, w.source)
		if isTask {
			mark := " "
			if checked {
				mark = "x"
			}
			w.elements = append(w.elements, source.Element{
				Kind: source.ElementListItem, LineNumber: line,
				RawText: fmt.Sprintf("- [%s] %s", mark, txt),
			})
		}
		w.textParts = append(w.textParts, txt)
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		w.elements = append(w.elements, source.Element{Kind: source.ElementCodeBlock})
	}
	return ast.WalkContinue, nil
}

// plainText concatenates the text content of n's descendants, skipping a
// leading task checkbox marker (rendered separately by the caller).
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writePlainText(&b, c, src)
	}
	return strings.TrimSpace(collapseSpace(b.String()))
}

func writePlainText(b *strings.Builder, n ast.Node, src []byte) {
	switch n.Kind() {
	case ast.KindText:
		b.Write(n.(*ast.Text).Text(src))
		if n.(*ast.Text).SoftLineBreak() || n.(*ast.Text).HardLineBreak() {
			b.WriteByte(' ')
		}
	case ast.KindString:
		b.Write(n.(*ast.String).Value)
	case extast.KindTaskCheckBox:
		return // rendered by the caller as the list item's leading marker
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			writePlainText(b, c, src)
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func taskCheckbox(li *ast.ListItem) (checked bool, isTask bool) {
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		for g := c.FirstChild(); g != nil; g = g.NextSibling() {
			if box, ok := g.(*extast.TaskCheckBox); ok {
				return box.IsChecked, true
			}
		}
	}
	return false, false
}

func lineNumber(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	start := lines.At(0).Start
	return bytes.Count(src[:start], []byte{'\n'}) + 1
}

// wikiLinkElements scans plain text content for `[[...]]` spans, since
// goldmark has no native notion of wiki links.
func wikiLinkElements(content string) []source.Element {
	matches := wikiLinkPattern.FindAllStringSubmatchIndex(content, -1)
	elements := make([]source.Element, 0, len(matches))
	for _, m := range matches {
		elements = append(elements, source.Element{
			Kind:         source.ElementWikiLink,
			OriginalText: content[m[2]:m[3]],
			Position:     m[0],
		})
	}
	return elements
}

func toGenericMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// frontmatterBlock extracts and decodes a leading "---"-delimited YAML
// block, returning an empty map when raw carries no frontmatter at all.
func frontmatterBlock(raw []byte) (map[string]interface{}, error) {
	match := frontmatterRule.FindSubmatch(raw)
	if match == nil {
		return map[string]interface{}{}, nil
	}
	var fm map[string]interface{}
	if err := yaml.Unmarshal(match[1], &fm); err != nil {
		return nil, err
	}
	return toGenericMap(fm), nil
}
