// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package property classifies frontmatter fields as entity references or
// RDF literals, per spec.md §4.6.
package property

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/wikilink"
)

// knownEntityFields is the closed set of frontmatter field names (matched
// case-insensitively) whose values are entity references rather than
// literals (spec.md §4.6 rule 1).
var knownEntityFields = map[string]wikilink.ContextHint{
	"author":       wikilink.ContextAuthor,
	"authors":      wikilink.ContextAuthor,
	"attendees":    wikilink.ContextAttendees,
	"participants": wikilink.ContextParticipants,
	"assignee":     wikilink.ContextAttendees,
	"assignees":    wikilink.ContextAttendees,
	"reviewer":     wikilink.ContextAttendees,
	"reviewers":    wikilink.ContextAttendees,
	"team":         wikilink.ContextParticipants,
	"members":      wikilink.ContextParticipants,
	"project":      wikilink.ContextProject,
	"projects":     wikilink.ContextProject,
	"organization": wikilink.ContextOrganization,
	"company":      wikilink.ContextCompany,
	"client":       wikilink.ContextOrganization,
	"customer":     wikilink.ContextOrganization,
	"tags":         wikilink.ContextTag,
}

// reservedLiteralFields are always literals, even if their content happens
// to match an entity name or a known-entity field name (spec.md §4.6).
var reservedLiteralFields = map[string]struct{}{
	"created":    {},
	"modified":   {},
	"word_count": {},
	"version":    {},
	"status":     {},
	"type":       {},
	"language":   {},
}

// EntityReference is one entity reference produced by classifying a
// frontmatter field, ready to be resolved via a wikilink.Resolver.
type EntityReference struct {
	// FieldName is the originating frontmatter field, for diagnostics.
	FieldName string
	// LinkText is resolved exactly as WikiLinkResolver.Resolve expects:
	// either extracted from an embedded `[[...]]` or the raw scalar text
	// when the field name alone implied a reference.
	LinkText string
	Hint     wikilink.ContextHint
}

// Classified is the outcome of classifying one frontmatter field.
type Classified struct {
	// References holds zero or more entity references found in the field.
	References []EntityReference
	// Literal is set (Predicate non-empty) when the field, or its
	// non-wiki-link remainder, yields an RDF literal on the Document.
	Literal kbmodel.LiteralValue
	// Predicate is the kb:{field_name} predicate name for Literal, empty if
	// no literal was produced.
	Predicate string
}

// HasLiteral reports whether classification produced a literal.
func (c Classified) HasLiteral() bool { return c.Predicate != "" }

// Classify decides whether fieldName/value is an entity reference, an
// embedded-wiki-link string, a scalar literal, or a list literal, following
// the decision rules of spec.md §4.6 in order.
func Classify(fieldName string, value interface{}) (Classified, error) {
	lowerField := strings.ToLower(fieldName)

	if _, reserved := reservedLiteralFields[lowerField]; !reserved {
		if hint, known := knownEntityFields[lowerField]; known {
			return classifyEntityField(fieldName, hint, value)
		}
	}

	if s, ok := value.(string); ok && strings.Contains(s, "[[") && strings.Contains(s, "]]") {
		links, remainder := extractWikiLinks(s)
		refs := make([]EntityReference, 0, len(links))
		for _, l := range links {
			refs = append(refs, EntityReference{FieldName: fieldName, LinkText: l, Hint: wikilink.ContextNone})
		}
		out := Classified{References: refs}
		if remainder != "" {
			out.Predicate = predicateName(fieldName)
			out.Literal = kbmodel.LiteralValue{Values: []string{remainder}, XSDType: xsdType(remainder)}
		}
		return out, nil
	}

	if list, ok := asScalarList(value); ok {
		values := make([]string, 0, len(list))
		xsd := "xsd:string"
		for i, v := range list {
			s := scalarString(v)
			if i == 0 {
				xsd = xsdType(v)
			}
			values = append(values, s)
		}
		return Classified{
			Predicate: predicateName(fieldName),
			Literal:   kbmodel.LiteralValue{Values: values, XSDType: xsd, IsList: true},
		}, nil
	}

	return Classified{
		Predicate: predicateName(fieldName),
		Literal:   kbmodel.LiteralValue{Values: []string{scalarString(value)}, XSDType: xsdType(value)},
	}, nil
}

func classifyEntityField(fieldName string, hint wikilink.ContextHint, value interface{}) (Classified, error) {
	var names []string
	if list, ok := asScalarList(value); ok {
		for _, v := range list {
			names = append(names, scalarString(v))
		}
	} else {
		names = append(names, scalarString(value))
	}

	refs := make([]EntityReference, 0, len(names))
	for _, n := range names {
		n = stripWikiLinkBrackets(n)
		if n == "" {
			continue
		}
		refs = append(refs, EntityReference{FieldName: fieldName, LinkText: n, Hint: hint})
	}
	return Classified{References: refs}, nil
}

// stripWikiLinkBrackets removes one enclosing "[[...]]" pair from a known
// entity field's scalar value (spec.md B4: `author: "[[Alex Cipher]]"`),
// so the link text reaching the resolver is the bare name rather than the
// literal bracket characters.
func stripWikiLinkBrackets(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]") {
		return strings.TrimSpace(trimmed[2 : len(trimmed)-2])
	}
	return s
}

// extractWikiLinks pulls every `[[...]]` span out of s, returning the link
// texts in order of appearance and the remaining text with those spans
// removed (whitespace-collapsed).
func extractWikiLinks(s string) (links []string, remainder string) {
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "[[")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "]]")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start
		b.WriteString(rest[:start])
		links = append(links, rest[start+2:end])
		rest = rest[end+2:]
	}
	remainder = strings.Join(strings.Fields(b.String()), " ")
	return links, remainder
}

// predicateName applies the camel-to-identifier transform of spec.md §4.6
// rule 3: lowercase first letter, remove spaces/underscores, preserve
// internal casing.
func predicateName(fieldName string) string {
	cleaned := strings.NewReplacer(" ", "", "_", "").Replace(fieldName)
	if cleaned == "" {
		return "kb:field"
	}
	r := []rune(cleaned)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return "kb:" + string(r)
}

func asScalarList(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func xsdType(value interface{}) string {
	switch value.(type) {
	case bool:
		return "xsd:boolean"
	case int, int64:
		return "xsd:integer"
	case float64:
		return "xsd:decimal"
	case time.Time:
		return "xsd:dateTime"
	default:
		s := scalarString(value)
		if looksLikeDateTime(s) {
			return "xsd:dateTime"
		}
		return "xsd:string"
	}
}

// looksLikeDateTime reports whether s looks like an ISO-8601 date or
// date-time, e.g. "2024-11-07" or "2024-11-07T09:00:00Z".
func looksLikeDateTime(s string) bool {
	if len(s) < len("2024-01-01") {
		return false
	}
	for i, c := range s[:10] {
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
