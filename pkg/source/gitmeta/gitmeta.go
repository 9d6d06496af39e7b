// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package gitmeta fills a source.Document's created/modified timestamps
// from a Git repository's commit history, the way
// pkg/resourcehandlers/utils/gitlog.go and pkg/resourcehandlers/github/gitinfo.go
// derive PublishDate/LastModifiedDate in the teacher - but through go-git/v5
// directly rather than shelling out to the git binary or a GitHub API call,
// since this collaborator only ever looks at a local working tree.
package gitmeta

import (
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DateFormat is the ISO-8601 timestamp layout gitmeta emits, matching the
// format source.Document.Created/Modified expect.
const DateFormat = time.RFC3339

// Repository resolves created/modified timestamps for paths within one Git
// working tree. The zero value is not usable; construct with Open.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the Git repository containing root (a filesystem directory).
// root need not be the repository's top level; go-git walks upward to find
// the enclosing .git directory (the DetectDotGit option, which plain
// git.PlainOpen does not set).
func Open(root string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, root: root}, nil
}

// Timestamps returns the first (publish) and most recent (last-modified)
// commit timestamps that touched relPath, formatted per DateFormat. Both
// are empty if relPath has no commit history (e.g. an uncommitted file).
func (r *Repository) Timestamps(relPath string) (created, modified string, err error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", "", err
	}
	commitIter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &relPath})
	if err != nil {
		return "", "", err
	}
	defer commitIter.Close()

	var first, last *object.Commit
	err = commitIter.ForEach(func(c *object.Commit) error {
		if last == nil {
			last = c
		}
		first = c
		return nil
	})
	if err != nil {
		return "", "", err
	}
	if first == nil {
		return "", "", nil
	}
	return first.Author.When.Format(DateFormat), last.Author.When.Format(DateFormat), nil
}
