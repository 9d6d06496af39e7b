// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package entityregistry

import (
	"testing"

	"github.com/gardener/mdkg/pkg/kbmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDedupesAcrossCasing(t *testing.T) {
	r := New(true)

	id1, created1, err := r.GetOrCreate(kbmodel.KindPerson, "Alex Cipher")
	require.NoError(t, err)
	assert.True(t, created1)

	id2, created2, err := r.GetOrCreate(kbmodel.KindPerson, "alex cipher")
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, id1, id2)

	persons := r.Persons()
	require.Len(t, persons, 1)
	assert.Equal(t, "Alex Cipher", persons[0].CanonicalName)
	assert.Contains(t, persons[0].Aliases, "Alex Cipher")
	assert.Contains(t, persons[0].Aliases, "alex cipher")
}

func TestOrganizationAliasAccumulation(t *testing.T) {
	r := New(true)

	id1, _, err := r.GetOrCreate(kbmodel.KindOrganization, "Galaxy Dynamics Co.")
	require.NoError(t, err)
	id2, _, err := r.GetOrCreate(kbmodel.KindOrganization, "Galaxy Dynamics Inc.")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	orgs := r.Organizations()
	require.Len(t, orgs, 1)
	assert.Contains(t, orgs[0].Aliases, "Galaxy Dynamics Co.")
	assert.Contains(t, orgs[0].Aliases, "Galaxy Dynamics Inc.")
}

func TestLocationParentCollisionRecorded(t *testing.T) {
	r := New(true)

	id1, _, err := r.GetOrCreate(kbmodel.KindLocation, "Springfield", WithParentLocation("Illinois"))
	require.NoError(t, err)
	// "ILLINOIS" normalizes to the same parent segment as "Illinois", so
	// this resolves to the same Location id but with a differently-cased
	// raw parent observation - a first-wins scalar collision.
	id2, _, err := r.GetOrCreate(kbmodel.KindLocation, "Springfield", WithParentLocation("ILLINOIS"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	collisions := r.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "parent", collisions[0].Property)

	locs := r.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, "Illinois", locs[0].Parent, "first-observed parent wins")
}

func TestLocationsWithSameNameDifferentParentsStayDistinct(t *testing.T) {
	r := New(true)

	id1, created1, err := r.GetOrCreate(kbmodel.KindLocation, "Springfield", WithParentLocation("Illinois"))
	require.NoError(t, err)
	assert.True(t, created1)

	id2, created2, err := r.GetOrCreate(kbmodel.KindLocation, "Springfield", WithParentLocation("Missouri"))
	require.NoError(t, err)
	assert.True(t, created2)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, r.Locations(), 2)
}

func TestExtraRoleUnion(t *testing.T) {
	r := New(true)
	id, _, err := r.GetOrCreate(kbmodel.KindPerson, "Alex Cipher", WithExtra("role", "attendee"))
	require.NoError(t, err)
	_, _, err = r.GetOrCreate(kbmodel.KindPerson, "Alex Cipher", WithExtra("role", "reviewer"))
	require.NoError(t, err)

	roles := r.Extra(kbmodel.KindPerson, id, "role")
	assert.ElementsMatch(t, []string{"attendee", "reviewer"}, roles)
}

func TestCanonicalNameIsFirstObserved(t *testing.T) {
	r := New(true)
	_, _, err := r.GetOrCreate(kbmodel.KindPerson, "alex cipher")
	require.NoError(t, err)
	_, _, err = r.GetOrCreate(kbmodel.KindPerson, "Alex Cipher")
	require.NoError(t, err)

	persons := r.Persons()
	require.Len(t, persons, 1)
	assert.Equal(t, "alex cipher", persons[0].CanonicalName)
}
