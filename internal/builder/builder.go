// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/pharbox/box/internal/compactor"
	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
	"github.com/pharbox/box/pkg/types"
)

// defaultPerm is applied to the temporary file, which is created 0600.
const defaultPerm os.FileMode = 0o644

var (
	// ErrLocked is returned by New when another build holds the output lock.
	ErrLocked = errors.New("another build is writing this archive")

	shebangLine = regexp.MustCompile(`^#!.*\s*`)

	// staleSuffixes are the siblings of an output path removed before a build.
	staleSuffixes = []string{"", ".gz", ".bz2", ".pubkey"}
)

type (
	// Options configures a Builder.
	Options struct {
		// Output is the archive path; its directory must exist.
		Output string
		// Alias is the name the archive maps itself under.
		Alias string
		// Sources holds the files named by ImportFile and AddFile.
		Sources billy.Filesystem
		// Compactors apply to imported files.
		Compactors compactor.Chain
		// Logger receives progress records; nil discards them.
		Logger *log.Logger
		// Now stamps entry modification times; nil uses the wall clock.
		Now func() time.Time
	}

	// Builder owns one archive from creation until it is sealed or aborted.
	Builder struct {
		archive    *phar.Archive
		state      State
		output     string
		out        billy.Filesystem
		temp       string
		sources    billy.Filesystem
		compactors compactor.Chain
		logger     *log.Logger
		lock       *outputLock

		intercept    bool
		replacements []string
		customStub   bool
		publicKey    []byte
		dirty        bool
	}
)

// New locks the output path, removes stale output and returns a Builder in
// the Buffering state.
func New(ctx context.Context, opts Options) (*Builder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return nil, issue.IO("resolve", opts.Output, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sources := opts.Sources
	if sources == nil {
		sources = osfs.New(filepath.Dir(output))
	}

	lock, err := acquireOutputLock(output + ".lock")
	if err != nil {
		return nil, issue.IO("lock", output, err)
	}

	out := osfs.New(filepath.Dir(output))
	name := filepath.Base(output)
	for _, suffix := range staleSuffixes {
		if err := out.Remove(name + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			lock.Release()
			return nil, issue.IO("remove", output+suffix, err)
		}
	}

	archive := phar.New(opts.Alias)
	archive.SetClock(opts.Now)

	return &Builder{
		archive:    archive,
		state:      StateBuffering,
		output:     output,
		out:        out,
		sources:    sources,
		compactors: opts.Compactors,
		logger:     logger,
		lock:       lock,
	}, nil
}

// State returns the current lifecycle state.
func (b *Builder) State() State { return b.state }

// Output returns the absolute output path.
func (b *Builder) Output() string { return b.output }

// Len returns the number of stored entries.
func (b *Builder) Len() int { return b.archive.Len() }

// SetIntercept records whether the generated stub intercepts file functions.
func (b *Builder) SetIntercept(on bool) error {
	if err := b.require("SetIntercept", StateBuffering); err != nil {
		return err
	}
	b.intercept = on
	return nil
}

// SetMetadata sets the archive-wide metadata.
func (b *Builder) SetMetadata(v any) error {
	if err := b.require("SetMetadata", StateBuffering); err != nil {
		return err
	}
	b.archive.SetMetadata(v)
	return nil
}

// SetReplacements sets the values substituted for "@name@" placeholders in
// imported files.
func (b *Builder) SetReplacements(values map[string]string) error {
	if err := b.require("SetReplacements", StateBuffering); err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b.replacements = b.replacements[:0]
	for _, k := range keys {
		b.replacements = append(b.replacements, "@"+k+"@", values[k])
	}
	return nil
}

// ImportFile stores sourcePath at archivePath after compaction and
// placeholder replacement.
func (b *Builder) ImportFile(archivePath, sourcePath string) error {
	return b.importFile("ImportFile", archivePath, sourcePath, false)
}

// ImportMain is ImportFile for the main script: a leading shebang line is
// removed since the stub provides one.
func (b *Builder) ImportMain(archivePath, sourcePath string) error {
	return b.importFile("ImportMain", archivePath, sourcePath, true)
}

func (b *Builder) importFile(op, archivePath, sourcePath string, main bool) error {
	if err := b.require(op, StateBuffering); err != nil {
		return err
	}
	content, err := b.read(sourcePath)
	if err != nil {
		return err
	}
	if main {
		content = shebangLine.ReplaceAll(content, nil)
	}
	content, err = b.compactors.Compact(archivePath, content)
	if err != nil {
		return err
	}
	if len(b.replacements) > 0 {
		content = []byte(strings.NewReplacer(b.replacements...).Replace(string(content)))
	}
	return b.add(archivePath, content)
}

// AddFile stores sourcePath at archivePath unchanged.
func (b *Builder) AddFile(sourcePath, archivePath string) error {
	if err := b.require("AddFile", StateBuffering); err != nil {
		return err
	}
	content, err := b.read(sourcePath)
	if err != nil {
		return err
	}
	return b.add(archivePath, content)
}

func (b *Builder) read(sourcePath string) ([]byte, error) {
	content, err := util.ReadFile(b.sources, sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, issue.File(sourcePath, err)
		}
		return nil, issue.IO("read", sourcePath, err)
	}
	return content, nil
}

func (b *Builder) add(archivePath string, content []byte) error {
	if err := b.archive.Add(archivePath, content); err != nil {
		return &issue.BuildError{Kind: issue.KindFile, Path: archivePath, Message: "invalid archive path " + archivePath, Cause: err}
	}
	b.logger.Debug("added", "path", archivePath)
	return nil
}

// StopBuffering writes the buffered archive to a temporary file next to the
// output and moves to Finalizing.
func (b *Builder) StopBuffering() error {
	if err := b.require("StopBuffering", StateBuffering); err != nil {
		return err
	}
	f, err := b.out.TempFile("", filepath.Base(b.output)+".tmp.")
	if err != nil {
		return issue.IO("create", b.output, err)
	}
	b.temp = f.Name()
	if err := f.Close(); err != nil {
		return issue.IO("close", b.tempPath(), err)
	}
	if err := b.chmod(defaultPerm); err != nil {
		return err
	}

	b.state = StateFinalizing
	b.dirty = true
	return b.flush()
}

// SetStub installs a custom stub script.
func (b *Builder) SetStub(script []byte) error {
	if err := b.require("SetStub", StateFinalizing); err != nil {
		return err
	}
	if err := b.archive.SetStub(script); err != nil {
		return &issue.BuildError{Kind: issue.KindFile, Path: "stub", Message: "the stub cannot be used", Cause: err}
	}
	b.customStub = true
	b.dirty = true
	return nil
}

// CreateStub installs a generated stub. Alias and Intercept default to the
// builder's own settings.
func (b *Builder) CreateStub(opts StubOptions) error {
	if err := b.require("CreateStub", StateFinalizing); err != nil {
		return err
	}
	if opts.Alias == "" {
		opts.Alias = b.archive.Alias()
	}
	opts.Intercept = opts.Intercept || b.intercept
	if err := b.archive.SetStub(GenerateStub(opts)); err != nil {
		return &issue.BuildError{Kind: issue.KindFile, Path: "stub", Message: "the stub cannot be used", Cause: err}
	}
	b.customStub = false
	b.dirty = true
	return nil
}

// Compress recompresses every entry. Compressing an archive with a custom
// stub only logs a warning.
func (b *Builder) Compress(c phar.Compression) error {
	if err := b.require("Compress", StateFinalizing); err != nil {
		return err
	}
	if b.customStub && c != phar.None {
		b.logger.Warn("compressing an archive that uses a custom stub; the stub must be able to read compressed entries")
	}
	if err := b.archive.CompressAll(c); err != nil {
		return issue.Config("The compression algorithm \"%s\" is not supported.", c)
	}
	b.dirty = true
	return nil
}

// Sign selects a digest signature.
func (b *Builder) Sign(alg phar.SignatureAlgorithm) error {
	if err := b.require("Sign", StateFinalizing); err != nil {
		return err
	}
	if err := b.archive.SetSignatureAlgorithm(alg); err != nil {
		return issue.Config("The signing algorithm \"%s\" is not supported.", alg)
	}
	b.publicKey = nil
	b.dirty = true
	return nil
}

// SignWithKey signs with the RSA private key at keyPath. The public key is
// written next to the archive when it is sealed.
func (b *Builder) SignWithKey(keyPath, passphrase string) error {
	if err := b.require("SignWithKey", StateFinalizing); err != nil {
		return err
	}
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return issue.IO("read", keyPath, err)
	}
	key, err := phar.ParsePrivateKey(pemBytes, passphrase)
	if err != nil {
		return issue.Signature(keyPath, err)
	}
	pub, err := phar.MarshalPublicKey(key)
	if err != nil {
		return issue.Signature(keyPath, err)
	}
	b.archive.SetPrivateKey(key)
	b.publicKey = pub
	b.dirty = true
	return nil
}

// Seal writes the final archive, applies mode when given and renames the
// temporary file over the output path.
func (b *Builder) Seal(mode *types.FileMode) error {
	if err := b.require("Seal", StateFinalizing); err != nil {
		return err
	}
	if err := b.flush(); err != nil {
		return err
	}
	if mode != nil {
		if err := b.chmod(mode.Mode()); err != nil {
			return err
		}
	}
	if b.publicKey != nil {
		if err := util.WriteFile(b.out, filepath.Base(b.output)+".pubkey", b.publicKey, defaultPerm); err != nil {
			return issue.IO("write", b.output+".pubkey", err)
		}
	}
	if err := b.out.Rename(b.temp, filepath.Base(b.output)); err != nil {
		return issue.IO("rename", b.output, err)
	}

	b.temp = ""
	b.state = StateSealed
	b.lock.Release()
	return nil
}

// Abort discards the build. It is a no-op once the builder is sealed or
// aborted, so callers can always defer it.
func (b *Builder) Abort() {
	if b.state == StateSealed || b.state == StateAborted {
		return
	}
	if b.temp != "" {
		if err := b.out.Remove(b.temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			b.logger.Debug("failed to remove temporary archive", "path", b.tempPath(), "error", err)
		}
		b.temp = ""
	}
	if b.publicKey != nil {
		_ = b.out.Remove(filepath.Base(b.output) + ".pubkey")
	}
	b.state = StateAborted
	b.lock.Release()
}

// flush rewrites the temporary file from the in-memory archive.
func (b *Builder) flush() error {
	if !b.dirty {
		return nil
	}
	var buf bytes.Buffer
	if _, err := b.archive.WriteTo(&buf); err != nil {
		if b.archive.SignatureAlgorithm() == phar.OpenSSL {
			return issue.Signature(b.output, err)
		}
		return issue.IO("write", b.tempPath(), err)
	}
	if err := util.WriteFile(b.out, b.temp, buf.Bytes(), defaultPerm); err != nil {
		return issue.IO("write", b.tempPath(), err)
	}
	b.dirty = false
	return nil
}

func (b *Builder) chmod(mode os.FileMode) error {
	ch, ok := b.out.(billy.Chmod)
	if !ok {
		return issue.IO("chmod", b.tempPath(), errors.ErrUnsupported)
	}
	if err := ch.Chmod(b.temp, mode); err != nil {
		return issue.IO("chmod", b.output, err)
	}
	return nil
}

func (b *Builder) tempPath() string {
	return filepath.Join(filepath.Dir(b.output), b.temp)
}
