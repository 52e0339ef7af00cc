// SPDX-License-Identifier: MPL-2.0

package selector

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/pharbox/box/internal/config"
	"github.com/pharbox/box/internal/finder"
	"github.com/pharbox/box/internal/issue"
)

const (
	// RoleFile is a regular archive entry.
	RoleFile Role = iota
	// RoleMain is the main script; it is stored like a text file.
	RoleMain
	// RoleStub is the stub file; its content becomes the archive stub.
	RoleStub
)

// ErrOutsideBase is returned for sources that are not below the base path.
var ErrOutsideBase = errors.New("the path is outside the base path")

// outputSuffixes name the archive and the files the builder writes next to
// it. Temporary archives use the "<output>.tmp." prefix.
var outputSuffixes = []string{"", ".gz", ".bz2", ".pubkey", ".lock"}

const (
	mainMissing = "The main file does not exist."
	stubMissing = "The stub file does not exist."
)

type (
	// Role tells the builder how to store an entry.
	Role int

	// FileEntry is one selected source file.
	FileEntry struct {
		// SourcePath is the file's path in the source filesystem, or an
		// absolute path for a stub file outside the base path.
		SourcePath string
		// ArchivePath is the base-relative, slash-separated path in the archive.
		ArchivePath string
		// BinarySafe entries bypass compactors and replacements.
		BinarySafe bool
		Role       Role
	}

	// Selector walks a source filesystem rooted at the build base path.
	Selector struct {
		fs billy.Filesystem
	}

	// source is one (text or binary) half of the configuration.
	source struct {
		files       []string
		directories []string
		finders     []finder.Spec
		binary      bool
	}
)

func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleStub:
		return "stub"
	default:
		return "file"
	}
}

// New returns a Selector reading from fs, which must be rooted at the base
// path of the configurations passed to Select.
func New(fs billy.Filesystem) *Selector {
	return &Selector{fs: fs}
}

// Select returns every entry of the archive described by cfg.
func (s *Selector) Select(cfg *config.BuildConfig) ([]FileEntry, error) {
	var entries []FileEntry

	for _, src := range []source{
		{files: cfg.Files(), directories: cfg.Directories(), finders: cfg.Finders()},
		{files: cfg.BinaryFiles(), directories: cfg.BinaryDirectories(), finders: cfg.BinaryFinders(), binary: true},
	} {
		found, err := s.collect(cfg, src)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}

	if main := cfg.MainScriptPath(); main != "" {
		rel, err := s.requireFile(cfg.BasePath(), main, mainMissing)
		if err != nil {
			return nil, err
		}
		entries = append(entries, FileEntry{SourcePath: rel, ArchivePath: rel, Role: RoleMain})
	}

	if stub := cfg.Stub(); stub.Mode == config.StubFile {
		entry, err := s.stubEntry(cfg.BasePath(), stub.Path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ReadFile returns the content of an entry.
func (s *Selector) ReadFile(e FileEntry) ([]byte, error) {
	fsys, name := s.fs, e.SourcePath
	if filepath.IsAbs(name) {
		fsys, name = osfs.New(filepath.Dir(name)), filepath.Base(name)
	}
	data, err := util.ReadFile(fsys, name)
	if err != nil {
		return nil, issue.IO("read", e.SourcePath, err)
	}
	return data, nil
}

func (s *Selector) collect(cfg *config.BuildConfig, src source) ([]FileEntry, error) {
	base := cfg.BasePath()
	blacklist := cfg.Blacklist()

	output, outputErr := relative(base, cfg.OutputPath())

	var entries []FileEntry
	add := func(rel string) {
		if slices.Contains(blacklist, rel) {
			return
		}
		if outputErr == nil && isOutput(output, rel) {
			return
		}
		entries = append(entries, FileEntry{SourcePath: rel, ArchivePath: rel, BinarySafe: src.binary})
	}

	for _, p := range src.files {
		rel, err := s.requireFile(base, p, "")
		if err != nil {
			return nil, err
		}
		add(rel)
	}

	// Directories behave like a finder with the default ignore rules.
	specs := make([]finder.Spec, 0, len(src.directories)+len(src.finders))
	for _, dir := range src.directories {
		specs = append(specs, finder.Spec{In: []string{dir}, IgnoreDotFiles: true, IgnoreVCS: true})
	}
	specs = append(specs, src.finders...)

	for _, spec := range specs {
		filter, err := finder.Compile(spec)
		if err != nil {
			return nil, err
		}
		for _, root := range filter.Roots() {
			rel, err := relative(base, root)
			if err != nil {
				return nil, err
			}
			info, err := s.fs.Stat(rel)
			if err != nil || !info.IsDir() {
				return nil, issue.File(root, fs.ErrNotExist)
			}
			if err := s.walk(filter, rel, "", 0, add); err != nil {
				return nil, err
			}
		}
	}

	return entries, nil
}

// walk visits dir (root/sub) in name order. sub is relative to the finder
// root; depth is the depth of dir's children.
func (s *Selector) walk(filter *finder.Filter, root, sub string, depth int, add func(string)) error {
	dir := path.Join(root, sub)
	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		return issue.IO("read directory", dir, err)
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	for _, info := range infos {
		childSub := path.Join(sub, info.Name())
		child := path.Join(root, childSub)

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := s.fs.Stat(child)
			if err != nil {
				continue // dangling link
			}
			if target.IsDir() && !filter.FollowLinks() {
				continue
			}
			info = target
		}

		if info.IsDir() {
			if !filter.DescendDir(childSub, depth) {
				continue
			}
			if err := s.walk(filter, root, childSub, depth+1, add); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		ok, err := filter.AcceptFile(childSub, depth, info.Size(), func() ([]byte, error) {
			return util.ReadFile(s.fs, child)
		})
		if err != nil {
			return issue.IO("read", child, err)
		}
		if ok {
			add(child)
		}
	}
	return nil
}

// stubEntry locates the stub file. The stub is never stored as an entry, so
// it may live outside the base path.
func (s *Selector) stubEntry(base, p string) (FileEntry, error) {
	rel, err := s.requireFile(base, p, stubMissing)
	if err == nil {
		return FileEntry{SourcePath: rel, ArchivePath: rel, Role: RoleStub}, nil
	}
	if !errors.Is(err, ErrOutsideBase) {
		return FileEntry{}, err
	}

	abs := filepath.Clean(p)
	info, statErr := osfs.New(filepath.Dir(abs)).Stat(filepath.Base(abs))
	if statErr != nil || info.IsDir() {
		return FileEntry{}, &issue.BuildError{Kind: issue.KindFile, Path: p, Message: stubMissing}
	}
	return FileEntry{SourcePath: abs, ArchivePath: filepath.Base(abs), Role: RoleStub}, nil
}

// isOutput reports whether rel is the archive at output or one of the files
// written next to it.
func isOutput(output, rel string) bool {
	for _, suffix := range outputSuffixes {
		if rel == output+suffix {
			return true
		}
	}
	return strings.HasPrefix(rel, output+".tmp.")
}

// requireFile returns the base-relative path of p, which must be a file.
// message replaces the default file error message when set.
func (s *Selector) requireFile(base, p, message string) (string, error) {
	rel, err := relative(base, p)
	if err != nil {
		return "", err
	}
	info, err := s.fs.Stat(rel)
	if err != nil || info.IsDir() {
		if message != "" {
			return "", &issue.BuildError{Kind: issue.KindFile, Path: p, Message: message}
		}
		return "", issue.File(p, fs.ErrNotExist)
	}
	return rel, nil
}

// relative converts an absolute configured path into a slash-separated path
// below base.
func relative(base, p string) (string, error) {
	rel, err := filepath.Rel(base, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", issue.File(p, ErrOutsideBase)
	}
	return filepath.ToSlash(rel), nil
}
