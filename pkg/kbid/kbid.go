// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package kbid produces deterministic, typed IRIs for knowledge graph
// entities, per the recipes in spec.md §4.2. Every function here is a pure
// function of its inputs: same inputs yield the same byte-for-byte IRI
// across runs, platforms, and process restarts.
package kbid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/gardener/mdkg/pkg/normalize"
)

// maxIRIBytes is the length bound from spec.md §4.2, applied by clamp: an
// over-long slug path is cut at a single byte offset (segments are not
// shortened proportionally) and a content hash is re-appended to preserve
// uniqueness.
const maxIRIBytes = 256

var docExtensions = []string{".md", ".markdown", ".txt"}

var personTitles = []string{"dr.", "dr", "prof.", "prof", "mr.", "mrs.", "ms.", "mx."}
var personSuffixes = []string{"phd", "md", "jr", "sr", "iii", "ii", "iv"}
var orgSuffixes = []string{"inc.", "inc", "llc", "ltd.", "ltd", "corp.", "corp", "co.", "co", "company"}

// Document computes the document id, the original path as received
// (unmodified, I3), and the path with its recognized extension stripped
// (case preserved - used verbatim as a DocumentRegistry lookup key).
func Document(originalPath string) (id, original, pathWithoutExt string, err error) {
	if originalPath == "" {
		return "", "", "", kgerrors.New(kgerrors.InvalidInput, "original_path must not be empty", nil)
	}
	pathWithoutExt = stripDocExtension(originalPath)
	id = "/Document/" + clamp(normalize.Path(pathWithoutExt), pathWithoutExt)
	return id, originalPath, pathWithoutExt, nil
}

func stripDocExtension(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range docExtensions {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// Person computes a Person id from a raw observed name, stripping honorific
// title prefixes and degree/generational suffixes first.
func Person(name string) (string, error) {
	stripped, err := stripPersonTitlesSuffixes(name)
	if err != nil {
		return "", err
	}
	slug := normalize.Slug(stripped)
	if slug == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "person name normalizes to empty slug", nil)
	}
	return "/Person/" + clamp(slug, stripped), nil
}

func stripPersonTitlesSuffixes(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "person name must not be empty", nil)
	}
	s := strings.TrimSpace(name)
	lower := strings.ToLower(s)
	for _, title := range personTitles {
		if strings.HasPrefix(lower, title+" ") {
			s = strings.TrimSpace(s[len(title):])
			break
		}
	}
	// suffix, after an optional comma
	trimmed := strings.TrimRight(s, ".")
	lowerTrimmed := strings.ToLower(trimmed)
	for _, suf := range personSuffixes {
		if strings.HasSuffix(lowerTrimmed, " "+suf) {
			s = strings.TrimSpace(trimmed[:len(trimmed)-len(suf)-1])
			break
		}
		if strings.HasSuffix(lowerTrimmed, ","+suf) {
			s = strings.TrimSpace(trimmed[:len(trimmed)-len(suf)-1])
			break
		}
	}
	return s, nil
}

// Organization computes an Organization id, trimming a single trailing
// company suffix (preceded by whitespace) before normalizing.
func Organization(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "organization name must not be empty", nil)
	}
	s := strings.TrimSpace(name)
	lower := strings.ToLower(s)
	for _, suf := range orgSuffixes {
		if strings.HasSuffix(lower, " "+suf) {
			s = strings.TrimSpace(s[:len(s)-len(suf)-1])
			break
		}
	}
	slug := normalize.Slug(s)
	if slug == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "organization name normalizes to empty slug", nil)
	}
	return "/Organization/" + clamp(slug, s), nil
}

// Location computes a Location id, nesting under a normalized parent name
// when one is given.
func Location(name, parent string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "location name must not be empty", nil)
	}
	slug := normalize.Slug(name)
	if slug == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "location name normalizes to empty slug", nil)
	}
	if parent == "" {
		return "/Location/" + clamp(slug, name), nil
	}
	parentSlug := normalize.Slug(parent)
	path := parentSlug + "/" + slug
	return "/Location/" + clamp(path, parent+"/"+name), nil
}

// Project computes a Project id.
func Project(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "project name must not be empty", nil)
	}
	slug := normalize.Slug(name)
	if slug == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "project name normalizes to empty slug", nil)
	}
	return "/Project/" + clamp(slug, name), nil
}

// Tag computes a Tag id, dropping a single leading '#' and normalizing each
// '/'-separated hierarchy segment.
func Tag(text string) (string, error) {
	t := strings.TrimPrefix(strings.TrimSpace(text), "#")
	if t == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "tag text must not be empty", nil)
	}
	path := normalize.Path(t)
	if path == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "tag text normalizes to empty slug", nil)
	}
	return "/Tag/" + clamp(path, t), nil
}

// TodoItem computes a document-scoped TodoItem id. The id is stable under
// re-processing iff (document path, line, description) is unchanged (I4).
func TodoItem(documentID string, line int, description string) string {
	hash := contentHash(description)
	return documentID + "/TodoItem/" + strconv.Itoa(line) + "-" + hash
}

// Section computes a document-scoped Section id by walking the heading
// path from the document root to this heading, normalizing each level.
func Section(documentID string, headingPath []string) (string, error) {
	if len(headingPath) == 0 {
		return "", kgerrors.New(kgerrors.InvalidInput, "section heading path must not be empty", nil)
	}
	segments := make([]string, 0, len(headingPath))
	for _, h := range headingPath {
		segments = append(segments, normalize.Slug(h))
	}
	joined := strings.Join(segments, "/")
	return documentID + "/Section/" + clamp(joined, strings.Join(headingPath, "/")), nil
}

// PlaceholderDocument computes the id for a synthetic placeholder target.
func PlaceholderDocument(linkText string) (string, error) {
	if strings.TrimSpace(linkText) == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "placeholder link text must not be empty", nil)
	}
	slug := normalize.Slug(linkText)
	if slug == "" {
		return "", kgerrors.New(kgerrors.InvalidInput, "placeholder link text normalizes to empty slug", nil)
	}
	return "/PlaceholderDocument/" + clamp(slug, linkText), nil
}

// contentHash returns the first 10 lowercase hex characters of
// SHA-256(text).
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:10]
}

// clamp enforces the 256-byte IRI length bound. If slugPath, combined with
// its caller's type prefix, risks exceeding maxIRIBytes, it is truncated and
// a content hash of the pre-truncation original is appended so uniqueness
// is preserved under truncation.
func clamp(slugPath, original string) string {
	if len(slugPath) <= maxIRIBytes {
		return slugPath
	}
	hash := contentHash(original)
	// leave room for "-" + hash
	budget := maxIRIBytes - len(hash) - 1
	if budget < 0 {
		budget = 0
	}
	truncated := slugPath[:budget]
	truncated = strings.TrimRight(truncated, "-/")
	return truncated + "-" + hash
}
