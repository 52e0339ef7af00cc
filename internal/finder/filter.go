// SPDX-License-Identifier: MPL-2.0

package finder

import (
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pharbox/box/internal/issue"
)

// VCSDirs are the version-control directory names skipped when IgnoreVCS is set.
var VCSDirs = []string{".git", ".svn", ".hg", ".bzr", "CVS", "_darcs", ".arch-params", ".monotone", "_svn"}

// Filter is a compiled Spec. Paths passed to its methods are relative to the
// finder root they were found under and use forward slashes. Depth 0 is the
// root's direct children.
type Filter struct {
	spec        Spec
	names       []nameMatcher
	notNames    []nameMatcher
	paths       []matcher
	notPaths    []matcher
	contains    []matcher
	notContains []matcher
	depths      []comparator
	sizes       []comparator
}

type nameMatcher struct {
	matcher
	glob bool
}

// Compile validates every pattern and comparator of spec.
func Compile(spec Spec) (*Filter, error) {
	if len(spec.In) == 0 {
		return nil, issue.Config("The finder requires at least one directory (\"in\").")
	}

	f := &Filter{spec: spec}
	var err error
	if f.names, err = compileNames(spec.Names); err != nil {
		return nil, err
	}
	if f.notNames, err = compileNames(spec.NotNames); err != nil {
		return nil, err
	}
	if f.paths, err = compileMatchers(spec.Paths); err != nil {
		return nil, err
	}
	if f.notPaths, err = compileMatchers(spec.NotPaths); err != nil {
		return nil, err
	}
	if f.contains, err = compileMatchers(spec.Contains); err != nil {
		return nil, err
	}
	if f.notContains, err = compileMatchers(spec.NotContains); err != nil {
		return nil, err
	}
	if f.depths, err = compileComparators(spec.Depths); err != nil {
		return nil, err
	}
	if f.sizes, err = compileComparators(spec.Sizes); err != nil {
		return nil, err
	}
	return f, nil
}

// Roots returns the directories the finder searches.
func (f *Filter) Roots() []string { return slices.Clone(f.spec.In) }

// FollowLinks reports whether symbolic links to directories are traversed.
func (f *Filter) FollowLinks() bool { return f.spec.FollowLinks }

// DescendDir reports whether the directory at rel (itself at depth) may
// contain matching files.
func (f *Filter) DescendDir(rel string, depth int) bool {
	name := path.Base(rel)
	if f.spec.IgnoreVCS && slices.Contains(VCSDirs, name) {
		return false
	}
	if f.spec.IgnoreDotFiles && isDotName(name) {
		return false
	}
	if f.excluded(rel) {
		return false
	}
	for _, c := range f.depths {
		if !c.allowsDeeper(float64(depth + 1)) {
			return false
		}
	}
	return true
}

// AcceptFile reports whether the file at rel matches every predicate. read is
// only invoked when a content predicate is configured.
func (f *Filter) AcceptFile(rel string, depth int, size int64, read func() ([]byte, error)) (bool, error) {
	name := path.Base(rel)
	if f.spec.IgnoreVCS && slices.Contains(VCSDirs, name) {
		return false, nil
	}
	if f.spec.IgnoreDotFiles && isDotName(name) {
		return false, nil
	}
	if dir := path.Dir(rel); dir != "." && f.excluded(dir) {
		return false, nil
	}
	for _, c := range f.depths {
		if !c.test(float64(depth)) {
			return false, nil
		}
	}
	for _, c := range f.sizes {
		if !c.test(float64(size)) {
			return false, nil
		}
	}
	if len(f.names) > 0 && !slices.ContainsFunc(f.names, func(m nameMatcher) bool { return m.match(name) }) {
		return false, nil
	}
	if slices.ContainsFunc(f.notNames, func(m nameMatcher) bool { return m.match(name) }) {
		return false, nil
	}
	if len(f.paths) > 0 && !slices.ContainsFunc(f.paths, func(m matcher) bool { return m.containedIn(rel) }) {
		return false, nil
	}
	if slices.ContainsFunc(f.notPaths, func(m matcher) bool { return m.containedIn(rel) }) {
		return false, nil
	}

	if len(f.contains) == 0 && len(f.notContains) == 0 {
		return true, nil
	}
	content, err := read()
	if err != nil {
		return false, err
	}
	text := string(content)
	if len(f.contains) > 0 && !slices.ContainsFunc(f.contains, func(m matcher) bool { return m.containedIn(text) }) {
		return false, nil
	}
	if slices.ContainsFunc(f.notContains, func(m matcher) bool { return m.containedIn(text) }) {
		return false, nil
	}
	return true, nil
}

// excluded matches exclude patterns against a directory path. A pattern
// without a slash matches any directory of that name; otherwise it matches
// the directory and everything below it.
func (f *Filter) excluded(dir string) bool {
	for _, ex := range f.spec.Excludes {
		ex = strings.Trim(ex, "/")
		if ex == "" {
			continue
		}
		if !strings.Contains(ex, "/") {
			if slices.Contains(strings.Split(dir, "/"), ex) {
				return true
			}
			continue
		}
		if dir == ex || strings.HasPrefix(dir, ex+"/") {
			return true
		}
	}
	return false
}

func (m nameMatcher) match(name string) bool {
	if m.glob {
		ok, _ := doublestar.Match(m.plain, name)
		return ok
	}
	if m.re != nil {
		return m.re.MatchString(name)
	}
	return m.plain == name
}

func compileNames(patterns []string) ([]nameMatcher, error) {
	out := make([]nameMatcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := newMatcher(p)
		if err != nil {
			return nil, issue.Config("The finder pattern is invalid: %v", err)
		}
		nm := nameMatcher{matcher: m}
		if m.re == nil {
			if !doublestar.ValidatePattern(p) {
				return nil, issue.Config("The finder pattern %q is not a valid glob.", p)
			}
			nm.glob = true
		}
		out = append(out, nm)
	}
	return out, nil
}

func compileMatchers(patterns []string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := newMatcher(p)
		if err != nil {
			return nil, issue.Config("The finder pattern is invalid: %v", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func compileComparators(tests []string) ([]comparator, error) {
	out := make([]comparator, 0, len(tests))
	for _, s := range tests {
		c, err := parseComparator(s)
		if err != nil {
			return nil, issue.Config("The finder test is invalid: %v", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func isDotName(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
