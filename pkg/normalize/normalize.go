// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package normalize folds arbitrary text into the ID-safe slug alphabet used
// throughout the knowledge graph: lowercase ASCII alphanumerics, joined by
// single hyphens.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug folds text into a slug matching ([a-z0-9]+(-[a-z0-9]+)*)?.
//
// It NFKD-decomposes the input, drops combining marks, case-folds to
// lowercase, collapses every maximal run of non alphanumeric characters into
// a single hyphen, and trims leading/trailing hyphens. Slug is idempotent:
// Slug(Slug(x)) == Slug(x). It must never be applied to wiki link target text
// used for document lookup - see pkg/docregistry.
func Slug(text string) string {
	decomposed := norm.NFKD.String(text)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			// combining mark dropped by NFKD fold
			continue
		}
		b.WriteRune(r)
	}

	folded := strings.ToLower(b.String())

	var out strings.Builder
	out.Grow(len(folded))
	inRun := false
	for _, r := range folded {
		if isSlugRune(r) {
			out.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			out.WriteByte('-')
			inRun = true
		}
	}

	return strings.Trim(out.String(), "-")
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Path slugs every '/'-separated segment of text independently and rejoins
// them with '/', preserving the hierarchy while normalizing each level.
// Empty segments (e.g. from a leading or trailing separator) are dropped.
func Path(text string) string {
	segments := strings.Split(text, "/")
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if slug := Slug(s); slug != "" {
			out = append(out, slug)
		}
	}
	return strings.Join(out, "/")
}
