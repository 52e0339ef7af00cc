// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/pharbox/box/internal/config"
	"github.com/pharbox/box/internal/phar"
	"github.com/pharbox/box/internal/selector"
	"github.com/pharbox/box/pkg/types"
)

type (
	// RunOptions configures Run.
	RunOptions struct {
		// Sources defaults to the operating system filesystem rooted at the
		// configuration's base path.
		Sources billy.Filesystem
		// Logger receives the build progress; nil discards it.
		Logger *log.Logger
		// Now stamps entry modification times; nil uses the wall clock.
		Now func() time.Time
	}

	// Result describes a sealed archive.
	Result struct {
		// Files counts the regular and binary-safe entries, excluding the
		// main script.
		Files   int
		Path    string
		Elapsed time.Duration
	}

	// run holds the state of one Run call.
	run struct {
		cfg     *config.BuildConfig
		sel     *selector.Selector
		builder *Builder
		logger  *log.Logger

		files int
		main  *selector.FileEntry
		stub  *selector.FileEntry
	}
)

// Run builds the archive described by cfg. On error no file is left at the
// output path.
func Run(ctx context.Context, cfg *config.BuildConfig, opts RunOptions) (*Result, error) {
	start := time.Now()

	r := &run{cfg: cfg, logger: opts.Logger}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	sources := opts.Sources
	if sources == nil {
		sources = osfs.New(cfg.BasePath())
	}

	r.sel = selector.New(sources)
	entries, err := r.sel.Select(cfg)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("building", "output", cfg.OutputPath(), "base", cfg.BasePath())
	b, err := New(ctx, Options{
		Output:     cfg.OutputPath(),
		Alias:      cfg.Alias(),
		Sources:    sources,
		Compactors: cfg.Compactors(),
		Logger:     r.logger,
		Now:        opts.Now,
	})
	if err != nil {
		return nil, err
	}
	defer b.Abort()
	r.builder = b

	for _, step := range []func(context.Context) error{
		r.configure,
		func(ctx context.Context) error { return r.importEntries(ctx, entries) },
		func(context.Context) error { return b.StopBuffering() },
		r.applyStub,
		r.compress,
		r.sign,
		r.seal,
	} {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}

	return &Result{Files: r.files, Path: b.Output(), Elapsed: time.Since(start)}, nil
}

func (r *run) configure(context.Context) error {
	if r.cfg.InterceptFileFuncs() {
		r.logger.Info("enabling file function intercept")
		if err := r.builder.SetIntercept(true); err != nil {
			return err
		}
	}
	if meta, ok := r.cfg.Metadata(); ok {
		r.logger.Info("setting metadata")
		if err := r.builder.SetMetadata(meta); err != nil {
			return err
		}
	}
	if values := r.cfg.Replacements(); len(values) > 0 {
		r.logger.Info("setting replacement values")
		if err := r.builder.SetReplacements(values); err != nil {
			return err
		}
	}
	return nil
}

// importEntries stores text entries through the compactors, then binary-safe
// entries raw, then the main script.
func (r *run) importEntries(ctx context.Context, entries []selector.FileEntry) error {
	var text, binary []selector.FileEntry
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Role == selector.RoleMain:
			r.main = e
		case e.Role == selector.RoleStub:
			r.stub = e
		case e.BinarySafe:
			binary = append(binary, *e)
		default:
			text = append(text, *e)
		}
	}

	r.logger.Info("adding files")
	for _, e := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.builder.ImportFile(e.ArchivePath, e.SourcePath); err != nil {
			return err
		}
	}

	r.logger.Info("adding files (binary safe)")
	for _, e := range binary {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.builder.AddFile(e.SourcePath, e.ArchivePath); err != nil {
			return err
		}
	}
	r.files = len(text) + len(binary)

	if r.main != nil {
		r.logger.Info("adding main script", "path", r.main.ArchivePath)
		if err := r.builder.ImportMain(r.main.ArchivePath, r.main.SourcePath); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) applyStub(context.Context) error {
	switch policy := r.cfg.Stub(); policy.Mode {
	case config.StubGenerate:
		r.logger.Info("generating stub")
		opts := StubOptions{
			Mung:      r.cfg.MungVariables(),
			Web:       r.cfg.Web(),
			NotFound:  r.cfg.NotFoundPath(),
			MimeTypes: r.cfg.MimeTypes(),
		}
		if r.main != nil {
			opts.Main = r.main.ArchivePath
		}
		return r.builder.CreateStub(opts)
	case config.StubFile:
		r.logger.Info("adding existing stub", "path", r.stub.SourcePath)
		script, err := r.sel.ReadFile(*r.stub)
		if err != nil {
			return err
		}
		return r.builder.SetStub(script)
	default:
		return nil
	}
}

func (r *run) compress(context.Context) error {
	c := r.cfg.Compression()
	if c == phar.None {
		return nil
	}
	r.logger.Info("compressing", "algorithm", c)
	return r.builder.Compress(c)
}

func (r *run) sign(context.Context) error {
	if key := r.cfg.PrivateKeyPath(); key != "" {
		r.logger.Info("signing with private key", "key", key)
		return r.builder.SignWithKey(key, r.cfg.PrivateKeyPassphrase())
	}
	r.logger.Info("signing without private key", "algorithm", r.cfg.SigningAlgorithm())
	return r.builder.Sign(r.cfg.SigningAlgorithm())
}

func (r *run) seal(context.Context) error {
	var mode *types.FileMode
	if m, ok := r.cfg.FileMode(); ok {
		r.logger.Info("setting file permissions", "mode", m)
		mode = &m
	}
	return r.builder.Seal(mode)
}
