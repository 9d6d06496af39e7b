// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package docregistry

import (
	"testing"

	"github.com/gardener/mdkg/pkg/kgerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndFind(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/Document/readme", "readme.md", "readme"))

	id, ok := r.FindByWikiLink("readme.md")
	require.True(t, ok)
	assert.Equal(t, "/Document/readme", id)

	id, ok = r.FindByWikiLink("readme")
	require.True(t, ok)
	assert.Equal(t, "/Document/readme", id)
}

func TestFindByWikiLinkExtensionProbe(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/Document/notes/a", "notes/a.markdown", "notes/a"))

	id, ok := r.FindByWikiLink("notes/a")
	require.True(t, ok)
	assert.Equal(t, "/Document/notes/a", id)
}

func TestFindByWikiLinkCaseInsensitiveFallback(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/Document/alex", "Alex.md", "Alex"))

	// exact case matches
	id, ok := r.FindByWikiLink("Alex.md")
	require.True(t, ok)
	assert.Equal(t, "/Document/alex", id)

	// case-insensitive fallback only, since no exact match exists
	id, ok = r.FindByWikiLink("alex.md")
	require.True(t, ok)
	assert.Equal(t, "/Document/alex", id)
}

func TestDistinctPathsStayDistinctEvenIfNormalizedFormsCollide(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/Document/daily-notes/2024-11-07-thursday", "Daily Notes/2024-11-07 Thursday.md", "Daily Notes/2024-11-07 Thursday"))
	require.NoError(t, r.Register("/Document/daily-notes/2024-11-07-thursday-2", "daily-notes/2024-11-07-thursday.md", "daily-notes/2024-11-07-thursday"))

	id1, ok := r.FindByWikiLink("Daily Notes/2024-11-07 Thursday")
	require.True(t, ok)
	id2, ok := r.FindByWikiLink("daily-notes/2024-11-07-thursday")
	require.True(t, ok)
	assert.NotEqual(t, id1, id2)
}

func TestRegisterDuplicatePath(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/Document/a", "a.md", "a"))
	err := r.Register("/Document/b", "a.md", "a")
	var kgErr *kgerrors.Error
	require.ErrorAs(t, err, &kgErr)
	assert.Equal(t, kgerrors.DuplicatePath, kgErr.Kind)
}

func TestFindByWikiLinkNoMatch(t *testing.T) {
	r := New()
	_, ok := r.FindByWikiLink("nothing here")
	assert.False(t, ok)
}
