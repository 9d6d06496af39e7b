// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initRepoWithTwoCommits(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	notePath := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(notePath, []byte("# v1\n"), 0o644))
	_, err = wt.Add("note.md")
	require.NoError(t, err)
	sig1 := &object.Signature{Name: "Alex Cipher", Email: "alex@example.org", When: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	_, err = wt.Commit("initial", &git.CommitOptions{Author: sig1})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(notePath, []byte("# v2\n"), 0o644))
	_, err = wt.Add("note.md")
	require.NoError(t, err)
	sig2 := &object.Signature{Name: "Alex Cipher", Email: "alex@example.org", When: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	_, err = wt.Commit("update", &git.CommitOptions{Author: sig2})
	require.NoError(t, err)

	return dir
}

func TestTimestampsReturnsFirstAndLastCommit(t *testing.T) {
	dir := initRepoWithTwoCommits(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	created, modified, err := repo.Timestamps("note.md")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T00:00:00Z", created)
	require.Equal(t, "2024-06-01T00:00:00Z", modified)
}

func TestTimestampsEmptyForUntrackedFile(t *testing.T) {
	dir := initRepoWithTwoCommits(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	created, modified, err := repo.Timestamps("never-committed.md")
	require.NoError(t, err)
	require.Empty(t, created)
	require.Empty(t, modified)
}
