// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
)

func TestProvider_Load(t *testing.T) {
	t.Parallel()

	dir, _ := newProject(t)
	writeFile(t, filepath.Join(dir, "a.php"), "<?php echo 'hi';\n")
	writeFile(t, filepath.Join(dir, "box.json"), `{"files": ["a.php"], "main": "a.php", "stub": true}`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.File() != filepath.Join(dir, "box.json") {
		t.Errorf("File() = %q", cfg.File())
	}
	if cfg.Stub().Mode != StubGenerate {
		t.Errorf("Stub().Mode = %v, want generate", cfg.Stub().Mode)
	}
	if cfg.SigningAlgorithm() != phar.SHA1 {
		t.Errorf("SigningAlgorithm() = %v, want SHA1", cfg.SigningAlgorithm())
	}
	if cfg.MainScriptPath() != filepath.Join(dir, "a.php") {
		t.Errorf("MainScriptPath() = %q", cfg.MainScriptPath())
	}
	if got := cfg.Files(); len(got) != 1 || got[0] != filepath.Join(dir, "a.php") {
		t.Errorf("Files() = %v", got)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir, _ := newProject(t)
	writeFile(t, filepath.Join(dir, "build", "box.yml"), "alias: app.phar\noutput: ../dist/app.phar\n")

	cfg, err := Load(context.Background(), LoadOptions{WorkingDir: dir, ConfigFilePath: "build/box.yml"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Alias() != "app.phar" {
		t.Errorf("Alias() = %q", cfg.Alias())
	}
	if want := filepath.Join(dir, "dist", "app.phar"); cfg.OutputPath() != want {
		t.Errorf("OutputPath() = %q, want %q", cfg.OutputPath(), want)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"schema violation", `{"files": 1}`, "files"},
		{"unsupported algorithm", `{"algorithm": "INVALID"}`, "INVALID"},
		{"missing base path", `{"base-path": "nope"}`, `The base path "nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "box.json"), tt.content)

			_, err := Load(context.Background(), LoadOptions{WorkingDir: dir})
			if !errors.Is(err, issue.ErrConfig) {
				t.Fatalf("Load() error = %v, want ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}

	t.Run("no configuration file", func(t *testing.T) {
		t.Parallel()

		_, err := Load(context.Background(), LoadOptions{WorkingDir: t.TempDir()})
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Load(ctx, LoadOptions{WorkingDir: t.TempDir()}); !errors.Is(err, context.Canceled) {
			t.Errorf("Load() error = %v", err)
		}
	})
}
