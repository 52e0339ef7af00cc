// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/pharbox/box/internal/compactor"
	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
	"github.com/pharbox/box/internal/testutil"
	"github.com/pharbox/box/pkg/types"
)

// newProject creates a temporary base directory with a box.json path inside.
func newProject(t *testing.T) (dir, file string) {
	t.Helper()
	dir = testutil.RealTempDir(t)
	return dir, filepath.Join(dir, "box.json")
}

func mustResolve(t *testing.T, raw map[string]any, file string, opts ResolveOptions) *BuildConfig {
	t.Helper()
	cfg, err := Resolve(context.Background(), raw, file, opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return cfg
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()

	dir, file := newProject(t)
	cfg := mustResolve(t, map[string]any{}, file, ResolveOptions{})

	if cfg.File() != file {
		t.Errorf("File() = %q, want %q", cfg.File(), file)
	}
	if cfg.BasePath() != dir {
		t.Errorf("BasePath() = %q, want %q", cfg.BasePath(), dir)
	}
	if cfg.Alias() != DefaultAlias {
		t.Errorf("Alias() = %q, want %q", cfg.Alias(), DefaultAlias)
	}
	if want := filepath.Join(dir, DefaultOutput); cfg.OutputPath() != want {
		t.Errorf("OutputPath() = %q, want %q", cfg.OutputPath(), want)
	}
	if cfg.SigningAlgorithm() != phar.SHA1 {
		t.Errorf("SigningAlgorithm() = %v, want SHA1", cfg.SigningAlgorithm())
	}
	if cfg.Compression() != phar.None {
		t.Errorf("Compression() = %v, want NONE", cfg.Compression())
	}
	if cfg.Stub().Mode != StubNone {
		t.Errorf("Stub().Mode = %v, want none", cfg.Stub().Mode)
	}
	if cfg.MainScriptPath() != "" || cfg.PrivateKeyPath() != "" {
		t.Errorf("unexpected main %q or key %q", cfg.MainScriptPath(), cfg.PrivateKeyPath())
	}
	if _, ok := cfg.FileMode(); ok {
		t.Error("FileMode() should be unset")
	}
	if _, ok := cfg.Metadata(); ok {
		t.Error("Metadata() should be unset")
	}
	if cfg.InterceptFileFuncs() || cfg.Web() {
		t.Error("intercept and web should default to false")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	dir, file := newProject(t)
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	raw := map[string]any{
		"alias":        "app.phar",
		"algorithm":    "SHA256",
		"compression":  "GZ",
		"files":        []any{"a.php", "lib/../b.php"},
		"directories":  "src/",
		"blacklist":    []any{"src/skip.php"},
		"compactors":   []any{"php", "json"},
		"chmod":        "0755",
		"main":         "bin/run.php",
		"stub":         true,
		"metadata":     map[string]any{"version": int64(2)},
		"replacements": map[string]any{"name": "box"},
		"mung":         []any{"REQUEST_URI"},
		"mimetypes":    map[string]any{"phps": "text/plain"},
		"finder":       []any{map[string]any{"in": "src", "name": "*.php"}},
	}

	first := mustResolve(t, raw, file, ResolveOptions{})
	second := mustResolve(t, raw, file, ResolveOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestResolve_UnsupportedAlgorithms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     map[string]any
		wantMsg string
	}{
		{"signing name", map[string]any{"algorithm": "INVALID"}, `The signing algorithm "INVALID" is not supported.`},
		{"signing lowercase", map[string]any{"algorithm": "sha1"}, `The signing algorithm "sha1" is not supported.`},
		{"signing integer", map[string]any{"algorithm": int64(7)}, `The signing algorithm "7" is not supported.`},
		{"compression name", map[string]any{"compression": "INVALID"}, `The compression algorithm "INVALID" is not supported.`},
		{"compression integer", map[string]any{"compression": int64(3)}, `The compression algorithm "3" is not supported.`},
		{"compression bool", map[string]any{"compression": true}, `The compression algorithm "true" is not supported.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, file := newProject(t)
			_, err := Resolve(context.Background(), tt.raw, file, ResolveOptions{})
			if err == nil {
				t.Fatal("Resolve() should fail")
			}
			if !errors.Is(err, issue.ErrConfig) {
				t.Errorf("error should be a ConfigError, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestResolve_Algorithms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         map[string]any
		compression phar.Compression
		signing     phar.SignatureAlgorithm
	}{
		{"names", map[string]any{"compression": "BZ2", "algorithm": "SHA512"}, phar.BZ2, phar.SHA512},
		{"integers", map[string]any{"compression": int64(0x1000), "algorithm": int64(3)}, phar.GZ, phar.SHA256},
		{"whole floats", map[string]any{"compression": float64(0), "algorithm": float64(1)}, phar.None, phar.MD5},
		{"none name", map[string]any{"compression": "NONE"}, phar.None, phar.SHA1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, file := newProject(t)
			cfg := mustResolve(t, tt.raw, file, ResolveOptions{})
			if cfg.Compression() != tt.compression {
				t.Errorf("Compression() = %v, want %v", cfg.Compression(), tt.compression)
			}
			if cfg.SigningAlgorithm() != tt.signing {
				t.Errorf("SigningAlgorithm() = %v, want %v", cfg.SigningAlgorithm(), tt.signing)
			}
		})
	}
}

func TestResolve_BasePath(t *testing.T) {
	t.Parallel()

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		_, err := Resolve(context.Background(), map[string]any{"base-path": "does-not-exist"}, file, ResolveOptions{})
		if !errors.Is(err, issue.ErrConfig) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		want := `The base path "does-not-exist" is not a directory or does not exist.`
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err, want)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		t.Parallel()

		dir, file := newProject(t)
		if err := os.WriteFile(filepath.Join(dir, "plain"), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Resolve(context.Background(), map[string]any{"base-path": "plain"}, file, ResolveOptions{})
		if !errors.Is(err, issue.ErrConfig) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("relative to the configuration file", func(t *testing.T) {
		t.Parallel()

		dir, file := newProject(t)
		if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
			t.Fatal(err)
		}
		cfg := mustResolve(t, map[string]any{"base-path": "app", "output": "../dist/app.phar"}, file, ResolveOptions{})
		if want := filepath.Join(dir, "app"); cfg.BasePath() != want {
			t.Errorf("BasePath() = %q, want %q", cfg.BasePath(), want)
		}
		if want := filepath.Join(dir, "dist", "app.phar"); cfg.OutputPath() != want {
			t.Errorf("OutputPath() = %q, want %q", cfg.OutputPath(), want)
		}
	})

	t.Run("working directory without a file", func(t *testing.T) {
		t.Parallel()

		dir, _ := newProject(t)
		cfg := mustResolve(t, map[string]any{}, "", ResolveOptions{WorkingDir: dir})
		if cfg.BasePath() != dir {
			t.Errorf("BasePath() = %q, want %q", cfg.BasePath(), dir)
		}
	})
}

func TestResolve_Paths(t *testing.T) {
	t.Parallel()

	dir, file := newProject(t)
	cfg := mustResolve(t, map[string]any{
		"files":           []any{"a/./b/../c.php", "/abs/x.php"},
		"files-bin":       "img/logo.png",
		"directories":     []any{"src/"},
		"directories-bin": []any{"res//fonts/"},
		"blacklist":       []any{"./src/skip.php"},
		"main":            "bin/../main.php",
		"stub":            "stub/stub.php",
		"key":             "keys/private.pem",
	}, file, ResolveOptions{})

	join := func(parts ...string) string { return filepath.Join(append([]string{dir}, parts...)...) }
	sep := string(filepath.Separator)

	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"files", cfg.Files(), []string{join("a", "c.php"), filepath.Clean("/abs/x.php")}},
		{"files-bin", cfg.BinaryFiles(), []string{join("img", "logo.png")}},
		{"directories", cfg.Directories(), []string{join("src") + sep}},
		{"directories-bin", cfg.BinaryDirectories(), []string{join("res", "fonts") + sep}},
		{"blacklist", cfg.Blacklist(), []string{"src/skip.php"}},
	}
	for _, c := range checks {
		if !slices.Equal(c.got, c.want) {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if cfg.MainScriptPath() != join("main.php") {
		t.Errorf("MainScriptPath() = %q", cfg.MainScriptPath())
	}
	if stub := cfg.Stub(); stub.Mode != StubFile || stub.Path != join("stub", "stub.php") {
		t.Errorf("Stub() = %+v", stub)
	}
	if cfg.PrivateKeyPath() != join("keys", "private.pem") {
		t.Errorf("PrivateKeyPath() = %q", cfg.PrivateKeyPath())
	}
}

func TestResolve_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	_, file := newProject(t)
	cfg := mustResolve(t, map[string]any{
		"files":        []any{"a.php"},
		"replacements": map[string]any{"k": "v"},
	}, file, ResolveOptions{})

	cfg.Files()[0] = "changed"
	cfg.Replacements()["k"] = "changed"

	if cfg.Files()[0] == "changed" || cfg.Replacements()["k"] != "v" {
		t.Error("accessors must not expose internal state")
	}
}

func TestResolve_StringListErrors(t *testing.T) {
	t.Parallel()

	_, file := newProject(t)
	_, err := Resolve(context.Background(), map[string]any{"files": []any{"a.php", int64(1)}}, file, ResolveOptions{})
	if !errors.Is(err, issue.ErrConfig) || !strings.Contains(err.Error(), `"files"`) {
		t.Errorf("error = %v", err)
	}
}

func TestResolve_Compactors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		wantIDs []string
		wantErr string
	}{
		{"identifiers", []any{"php", "json"}, []string{compactor.IDPhp, compactor.IDJSON}, ""},
		{"class names", []any{`\Herrera\Box\Compactor\Javascript`, `KevinGH\Box\Compactor\Php`}, []string{compactor.IDJavascript, compactor.IDPhp}, ""},
		{"single string", "json", []string{compactor.IDJSON}, ""},
		{"unknown", []any{"Foo\\Bar"}, nil, `The compactor "Foo\Bar" does not exist.`},
		{"not a compactor", []any{`Herrera\Box\Compactor\Compactor`}, nil, `The class "Herrera\Box\Compactor\Compactor" is not a compactor class.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, file := newProject(t)
			cfg, err := Resolve(context.Background(), map[string]any{"compactors": tt.value}, file, ResolveOptions{})
			if tt.wantErr != "" {
				if !errors.Is(err, issue.ErrConfig) || err.Error() != tt.wantErr {
					t.Errorf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !slices.Equal(cfg.CompactorIDs(), tt.wantIDs) {
				t.Errorf("CompactorIDs() = %v, want %v", cfg.CompactorIDs(), tt.wantIDs)
			}
		})
	}
}

func TestResolve_PrivateKey(t *testing.T) {
	t.Parallel()

	t.Run("key forces OPENSSL", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		cfg := mustResolve(t, map[string]any{"key": "private.pem", "algorithm": "SHA512", "key-pass": "secret"}, file, ResolveOptions{})
		if cfg.SigningAlgorithm() != phar.OpenSSL {
			t.Errorf("SigningAlgorithm() = %v, want OPENSSL", cfg.SigningAlgorithm())
		}
		if cfg.PrivateKeyPassphrase() != "secret" {
			t.Errorf("PrivateKeyPassphrase() = %q", cfg.PrivateKeyPassphrase())
		}
	})

	t.Run("OPENSSL without key", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		_, err := Resolve(context.Background(), map[string]any{"algorithm": "OPENSSL"}, file, ResolveOptions{})
		if !errors.Is(err, issue.ErrConfig) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("passphrase ignored without key", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		cfg := mustResolve(t, map[string]any{"key-pass": true}, file, ResolveOptions{})
		if cfg.PrivateKeyPassphrase() != "" {
			t.Errorf("PrivateKeyPassphrase() = %q", cfg.PrivateKeyPassphrase())
		}
	})
}

func TestResolve_PassphrasePrompt(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"key": "private.pem", "key-pass": true}

	tests := []struct {
		name     string
		prompter Prompter
		want     string
		wantErr  bool
	}{
		{
			name: "answered",
			prompter: PrompterFunc(func(_ context.Context, prompt string) (string, error) {
				if prompt != PassphrasePrompt {
					return "", errors.New("unexpected prompt")
				}
				return "secret", nil
			}),
			want: "secret",
		},
		{name: "no prompter", wantErr: true},
		{
			name:     "empty answer",
			prompter: PrompterFunc(func(context.Context, string) (string, error) { return "  ", nil }),
			wantErr:  true,
		},
		{
			name:     "prompt failure",
			prompter: PrompterFunc(func(context.Context, string) (string, error) { return "", errors.New("no terminal") }),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, file := newProject(t)
			cfg, err := Resolve(context.Background(), raw, file, ResolveOptions{Prompter: tt.prompter})
			if tt.wantErr {
				if !errors.Is(err, issue.ErrConfig) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				if !strings.Contains(err.Error(), "passphrase is required") {
					t.Errorf("error = %q", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if cfg.PrivateKeyPassphrase() != tt.want {
				t.Errorf("PrivateKeyPassphrase() = %q, want %q", cfg.PrivateKeyPassphrase(), tt.want)
			}
		})
	}
}

func TestResolve_FileMode(t *testing.T) {
	t.Parallel()

	_, file := newProject(t)
	cfg := mustResolve(t, map[string]any{"chmod": "0755"}, file, ResolveOptions{})
	mode, ok := cfg.FileMode()
	if !ok || mode != types.FileMode(0o755) {
		t.Errorf("FileMode() = %v, %v", mode, ok)
	}

	setuid := mustResolve(t, map[string]any{"chmod": "4755"}, file, ResolveOptions{})
	if mode, _ := setuid.FileMode(); mode != types.FileMode(0o4755) {
		t.Errorf("FileMode() = %v, want 4755", mode)
	}

	for _, bad := range []any{"0999", "17777", "rwx", int64(755)} {
		if _, err := Resolve(context.Background(), map[string]any{"chmod": bad}, file, ResolveOptions{}); !errors.Is(err, issue.ErrConfig) {
			t.Errorf("chmod %v: expected ConfigError, got %v", bad, err)
		}
	}
}

func TestResolve_Replacements(t *testing.T) {
	t.Parallel()

	_, file := newProject(t)
	cfg := mustResolve(t, map[string]any{
		"replacements": map[string]any{
			"name":    "box",
			"count":   int64(3),
			"ratio":   1.5,
			"enabled": true,
			"off":     false,
		},
	}, file, ResolveOptions{})

	want := map[string]string{"name": "box", "count": "3", "ratio": "1.5", "enabled": "1", "off": ""}
	if got := cfg.Replacements(); !reflect.DeepEqual(got, want) {
		t.Errorf("Replacements() = %v, want %v", got, want)
	}
}

func TestResolve_Stub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  StubMode
	}{
		{true, StubGenerate},
		{false, StubNone},
		{"stub.php", StubFile},
		{"", StubNone},
	}

	for _, tt := range tests {
		_, file := newProject(t)
		cfg := mustResolve(t, map[string]any{"stub": tt.value}, file, ResolveOptions{})
		if cfg.Stub().Mode != tt.want {
			t.Errorf("stub %v: Mode = %v, want %v", tt.value, cfg.Stub().Mode, tt.want)
		}
	}
}

func TestResolve_Finders(t *testing.T) {
	t.Parallel()

	t.Run("in is canonicalized against the base path", func(t *testing.T) {
		t.Parallel()

		dir, file := newProject(t)
		cfg := mustResolve(t, map[string]any{
			"finder":     []any{map[string]any{"in": []any{"src/../lib", "vendor/"}, "name": "*.php"}},
			"finder-bin": []any{map[string]any{"in": "res", "name": "*.png"}},
		}, file, ResolveOptions{})

		finders := cfg.Finders()
		if len(finders) != 1 {
			t.Fatalf("Finders() = %d specs, want 1", len(finders))
		}
		want := []string{filepath.Join(dir, "lib"), filepath.Join(dir, "vendor") + string(filepath.Separator)}
		if !slices.Equal(finders[0].In, want) {
			t.Errorf("In = %q, want %q", finders[0].In, want)
		}
		if len(cfg.BinaryFinders()) != 1 {
			t.Errorf("BinaryFinders() = %d specs, want 1", len(cfg.BinaryFinders()))
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		_, err := Resolve(context.Background(), map[string]any{
			"finder": []any{map[string]any{"in": "src", "bogus": "x"}},
		}, file, ResolveOptions{})
		if !errors.Is(err, issue.ErrConfig) || err.Error() != `The method "Finder::bogus" does not exist.` {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("not a list", func(t *testing.T) {
		t.Parallel()

		_, file := newProject(t)
		_, err := Resolve(context.Background(), map[string]any{"finder": "src"}, file, ResolveOptions{})
		if !errors.Is(err, issue.ErrConfig) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})
}

func TestResolve_MetadataAndWeb(t *testing.T) {
	t.Parallel()

	_, file := newProject(t)
	cfg := mustResolve(t, map[string]any{
		"metadata":  []any{"a", int64(1)},
		"web":       true,
		"intercept": true,
		"not-found": "404.php",
		"mimetypes": map[string]any{"phps": "text/plain"},
		"mung":      "REQUEST_URI",
	}, file, ResolveOptions{})

	meta, ok := cfg.Metadata()
	if !ok || !reflect.DeepEqual(meta, []any{"a", int64(1)}) {
		t.Errorf("Metadata() = %v, %v", meta, ok)
	}
	if !cfg.Web() || !cfg.InterceptFileFuncs() {
		t.Error("web and intercept should be enabled")
	}
	if cfg.NotFoundPath() != "404.php" {
		t.Errorf("NotFoundPath() = %q", cfg.NotFoundPath())
	}
	if cfg.MimeTypes()["phps"] != "text/plain" {
		t.Errorf("MimeTypes() = %v", cfg.MimeTypes())
	}
	if !slices.Equal(cfg.MungVariables(), []string{"REQUEST_URI"}) {
		t.Errorf("MungVariables() = %v", cfg.MungVariables())
	}
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	sep := string(filepath.Separator)
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a.php", "a.php"},
		{"./a.php", "a.php"},
		{"a/./b/../c.php", filepath.Join("a", "c.php")},
		{"src/", "src" + sep},
		{"src//lib/", filepath.Join("src", "lib") + sep},
		{"../up", filepath.Join("..", "up")},
		{"./", "." + sep},
	}

	for _, tt := range tests {
		got := Canonicalize(tt.in)
		if got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := Canonicalize(got); again != got {
			t.Errorf("Canonicalize(%q) is not stable: %q -> %q", tt.in, got, again)
		}
	}
}
