// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package entityregistry deduplicates named entities (Person, Organization,
// Location, Project, Tag) across documents, tracking aliases and recording
// scalar-property collisions, per spec.md §4.4. Observations that map to the
// same id are merged into one entity; homonyms are not told apart.
package entityregistry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gardener/mdkg/pkg/kbid"
	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/gardener/mdkg/pkg/normalize"
	"k8s.io/klog/v2"
)

// CollisionRecord captures two observations of the same entity id that
// disagreed on a "first wins" scalar property - allowed, not required, per
// spec.md §4.4, and always recorded here regardless of whether it is also
// logged (see pkg/pipeline.Report).
type CollisionRecord struct {
	Kind      kbmodel.EntityKind
	ID        string
	Property  string
	FirstSeen string
	Observed  string
}

type entityRecord struct {
	id            string
	canonicalName string
	aliases       map[string]struct{}
	parent        string // Location only
	extra         map[string]map[string]struct{}
}

// Registry deduplicates global entities across an entire pipeline run. The
// zero value is not usable; construct with New. Safe for concurrent use: per
// spec.md §5 the critical section is confined to GetOrCreate.
type Registry struct {
	mu sync.Mutex

	// warnOnCollision mirrors the warn_on_alias_collision configuration
	// option (spec.md §6.1, default true).
	warnOnCollision bool

	byID    map[kbmodel.EntityKind]map[string]*entityRecord
	byAlias map[kbmodel.EntityKind]map[string]string // normalized name -> id

	collisions []CollisionRecord
}

// New creates an empty Registry. warnOnCollision controls whether a
// conflicting scalar-property observation is also logged via klog in
// addition to being recorded in Collisions().
func New(warnOnCollision bool) *Registry {
	return &Registry{
		warnOnCollision: warnOnCollision,
		byID:            make(map[kbmodel.EntityKind]map[string]*entityRecord),
		byAlias:         make(map[kbmodel.EntityKind]map[string]string),
	}
}

// Option customizes a GetOrCreate call.
type Option func(*options)

type options struct {
	parent string
	extra  map[string][]string
}

// WithParentLocation supplies the parent location name for a Location
// lookup; it is ignored for other kinds.
func WithParentLocation(parent string) Option {
	return func(o *options) { o.parent = parent }
}

// WithExtra adds values to a multi-valued extra property (e.g. "role"),
// unioned across observations per spec.md §4.4's collision policy.
func WithExtra(key string, values ...string) Option {
	return func(o *options) {
		if o.extra == nil {
			o.extra = map[string][]string{}
		}
		o.extra[key] = append(o.extra[key], values...)
	}
}

// GetOrCreate resolves name to a global entity of the given kind, creating
// it on first observation and merging aliases/extras on subsequent ones.
// Returns the entity id and whether this call created it.
func (r *Registry) GetOrCreate(kind kbmodel.EntityKind, name string, opts ...Option) (string, bool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	id, err := computeID(kind, name, o.parent)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	aliasMap := r.aliasMapFor(kind)
	idMap := r.idMapFor(kind)

	// Location ids are scoped by parent, so the alias key must carry the
	// same scoping or two distinct same-named locations under different
	// parents would collapse onto one alias entry.
	nameSlug := aliasKey(kind, name, o.parent)
	if known, ok := aliasMap[nameSlug]; ok && known != id {
		// Known alias pointing elsewhere: treat this observation as the
		// same entity the alias already resolved to.
		return known, false, nil
	}

	if rec, ok := idMap[id]; ok {
		r.merge(kind, rec, name, o)
		aliasMap[nameSlug] = id
		return id, false, nil
	}

	rec := &entityRecord{
		id:            id,
		canonicalName: name,
		aliases:       map[string]struct{}{name: {}},
		parent:        o.parent,
		extra:         map[string]map[string]struct{}{},
	}
	for k, vs := range o.extra {
		rec.extra[k] = map[string]struct{}{}
		for _, v := range vs {
			rec.extra[k][v] = struct{}{}
		}
	}
	idMap[id] = rec
	aliasMap[nameSlug] = id
	return id, true, nil
}

func (r *Registry) merge(kind kbmodel.EntityKind, rec *entityRecord, name string, o options) {
	rec.aliases[name] = struct{}{}
	for k, vs := range o.extra {
		if rec.extra[k] == nil {
			rec.extra[k] = map[string]struct{}{}
		}
		for _, v := range vs {
			rec.extra[k][v] = struct{}{}
		}
	}
	if kind == kbmodel.KindLocation && o.parent != "" && rec.parent != "" && rec.parent != o.parent {
		r.recordCollision(kind, rec.id, "parent", rec.parent, o.parent)
	}
	if kind == kbmodel.KindLocation && rec.parent == "" {
		rec.parent = o.parent
	}
}

func (r *Registry) recordCollision(kind kbmodel.EntityKind, id, property, first, observed string) {
	r.collisions = append(r.collisions, CollisionRecord{
		Kind: kind, ID: id, Property: property, FirstSeen: first, Observed: observed,
	})
	if r.warnOnCollision {
		klog.Warningf("entity collision on %s %s: property %s first seen %q, now observed %q", kind, id, property, first, observed)
	}
}

func (r *Registry) aliasMapFor(kind kbmodel.EntityKind) map[string]string {
	if r.byAlias[kind] == nil {
		r.byAlias[kind] = make(map[string]string)
	}
	return r.byAlias[kind]
}

func (r *Registry) idMapFor(kind kbmodel.EntityKind) map[string]*entityRecord {
	if r.byID[kind] == nil {
		r.byID[kind] = make(map[string]*entityRecord)
	}
	return r.byID[kind]
}

func aliasKey(kind kbmodel.EntityKind, name, parent string) string {
	if kind == kbmodel.KindLocation && parent != "" {
		return normalize.Slug(parent) + "/" + normalize.Slug(name)
	}
	return normalize.Slug(name)
}

func computeID(kind kbmodel.EntityKind, name, parent string) (string, error) {
	switch kind {
	case kbmodel.KindPerson:
		return kbid.Person(name)
	case kbmodel.KindOrganization:
		return kbid.Organization(name)
	case kbmodel.KindLocation:
		return kbid.Location(name, parent)
	case kbmodel.KindProject:
		return kbid.Project(name)
	case kbmodel.KindTag:
		return kbid.Tag(name)
	default:
		return "", kgerrors.New(kgerrors.InvalidInput, fmt.Sprintf("unsupported entity kind for EntityRegistry: %s", kind), nil)
	}
}

// Collisions returns every recorded scalar-property collision observed
// during this run, in the order they occurred.
func (r *Registry) Collisions() []CollisionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CollisionRecord, len(r.collisions))
	copy(out, r.collisions)
	return out
}

// Persons returns every registered Person entity, sorted by id for
// deterministic iteration.
func (r *Registry) Persons() []kbmodel.Person {
	return collect(r, kbmodel.KindPerson, func(rec *entityRecord) kbmodel.Person {
		return kbmodel.Person{ID: rec.id, CanonicalName: rec.canonicalName, Aliases: aliasSet(rec)}
	})
}

// Organizations returns every registered Organization entity, sorted by id.
func (r *Registry) Organizations() []kbmodel.Organization {
	return collect(r, kbmodel.KindOrganization, func(rec *entityRecord) kbmodel.Organization {
		return kbmodel.Organization{ID: rec.id, CanonicalName: rec.canonicalName, Aliases: aliasSet(rec)}
	})
}

// Locations returns every registered Location entity, sorted by id.
func (r *Registry) Locations() []kbmodel.Location {
	return collect(r, kbmodel.KindLocation, func(rec *entityRecord) kbmodel.Location {
		return kbmodel.Location{ID: rec.id, Name: rec.canonicalName, Parent: rec.parent}
	})
}

// Projects returns every registered Project entity, sorted by id.
func (r *Registry) Projects() []kbmodel.Project {
	return collect(r, kbmodel.KindProject, func(rec *entityRecord) kbmodel.Project {
		return kbmodel.Project{ID: rec.id, Name: rec.canonicalName}
	})
}

// Tags returns every registered Tag entity, sorted by id.
func (r *Registry) Tags() []kbmodel.Tag {
	return collect(r, kbmodel.KindTag, func(rec *entityRecord) kbmodel.Tag {
		return kbmodel.Tag{ID: rec.id, Name: rec.canonicalName}
	})
}

// Extra returns the sorted union of the values recorded under key against
// id, e.g. the "role" extras of a Person referenced once as an attendee and
// once as a reviewer.
func (r *Registry) Extra(kind kbmodel.EntityKind, id, key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.idMapFor(kind)[id]
	if !ok {
		return nil
	}
	vs := make([]string, 0, len(rec.extra[key]))
	for v := range rec.extra[key] {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	return vs
}

func aliasSet(rec *entityRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(rec.aliases))
	for a := range rec.aliases {
		out[a] = struct{}{}
	}
	return out
}

func collect[T any](r *Registry, kind kbmodel.EntityKind, build func(*entityRecord) T) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byID[kind]
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, build(m[id]))
	}
	return out
}
