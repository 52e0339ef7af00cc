// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// shortHashLen matches git's default abbreviation.
const shortHashLen = 7

// GitVersion describes HEAD of the repository containing dir the way
// "git describe --tags" does: the tag pointing at HEAD, else
// "<tag>-<distance>-g<short hash>" for the nearest tagged ancestor, else
// the short commit hash.
func GitVersion(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	tags, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}

	short := head.Hash().String()[:shortHashLen]
	if len(tags) == 0 {
		return short, nil
	}

	commits, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("failed to read history: %w", err)
	}
	defer commits.Close()

	version := short
	distance := 0
	err = commits.ForEach(func(c *object.Commit) error {
		if names, ok := tags[c.Hash]; ok {
			if distance == 0 {
				version = names[0]
			} else {
				version = fmt.Sprintf("%s-%d-g%s", names[0], distance, short)
			}
			return storer.ErrStop
		}
		distance++
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return "", fmt.Errorf("failed to read history: %w", err)
	}
	return version, nil
}

// tagsByCommit maps commit hashes to the sorted names of the tags pointing
// at them. Annotated tags are dereferenced to their target commit.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer refs.Close()

	tags := make(map[plumbing.Hash][]string)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			target = tagObj.Target
		}
		tags[target] = append(tags[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	for hash := range tags {
		slices.Sort(tags[hash])
	}
	return tags, nil
}
