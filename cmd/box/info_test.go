// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pharbox/box/internal/phar"
)

// writeArchive stores an archive with the given entries in a temp dir.
func writeArchive(t *testing.T, compression phar.Compression, names ...string) string {
	t.Helper()
	a := phar.New("test.phar")
	for _, name := range names {
		if err := a.Add(name, []byte("<?php echo 'Hello!';")); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}
	a.SetMetadata(map[string]any{"a": int64(123)})
	if err := a.CompressAll(compression); err != nil {
		t.Fatalf("CompressAll() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.phar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if _, err := a.WriteTo(f); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	return path
}

func TestInfo_Format(t *testing.T) {
	t.Parallel()

	app, stdout, _ := testApp(t, Dependencies{})
	if err := execute(t, app, "info"); err != nil {
		t.Fatalf("info error = %v", err)
	}

	want := `API Version: 1.1.1

Supported Compression:
  - GZ
  - BZ2

Supported Signatures:
  - MD5
  - SHA-1
  - SHA-256
  - SHA-512
  - OpenSSL
`
	if got := stdout.String(); got != want {
		t.Errorf("stdout =\n%s\nwant\n%s", got, want)
	}
}

func TestInfo_Archive(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, phar.None, "a/b/c/d.php")
	r, err := phar.Open(path)
	if err != nil {
		t.Fatalf("phar.Open() error = %v", err)
	}
	sig := r.Signature()
	header := "API Version: 1.1.1\n\nArchive Compression: None\n\nSignature: " + sig.HashType +
		"\n\nSignature Hash: " + sig.Hash + "\n"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"summary", nil, header},
		{"indented listing", []string{"--list"}, header + "\nContents:\na/\n  b/\n    c/\n      d.php\n"},
		{"flat listing", []string{"-l", "-m", "flat"}, header + "\nContents:\na\na/b\na/b/c\na/b/c/d.php\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, stdout, _ := testApp(t, Dependencies{})
			if err := execute(t, app, append([]string{"info", path}, tt.args...)...); err != nil {
				t.Fatalf("info error = %v", err)
			}
			if got := stdout.String(); got != tt.want {
				t.Errorf("stdout =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestInfo_CompressedListingAndMetadata(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, phar.GZ, "src/a.php", "index.php")
	app, stdout, _ := testApp(t, Dependencies{})
	if err := execute(t, app, "info", path, "-l", "--metadata"); err != nil {
		t.Fatalf("info error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"Archive Compression: GZ",
		"index.php [GZ]\nsrc/\n  a.php [GZ]\n",
		"Metadata:\narray (\n",
		"'a' => 123,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestInfo_Errors(t *testing.T) {
	t.Parallel()

	app, _, stderr := testApp(t, Dependencies{})
	missing := filepath.Join(t.TempDir(), "missing.phar")
	if err := execute(t, app, "info", missing); err == nil {
		t.Fatal("info on a missing archive succeeded")
	}
	if want := `The path "` + missing + `" is not a file or does not exist.`; !strings.Contains(stderr.String(), want) {
		t.Errorf("stderr = %q, want it to contain %q", stderr.String(), want)
	}

	app, _, _ = testApp(t, Dependencies{})
	if err := execute(t, app, "info", "-m", "tree"); err == nil {
		t.Error("info with an invalid mode succeeded")
	}
}

func TestBuildTree(t *testing.T) {
	t.Parallel()

	tree := buildTree([]phar.EntryInfo{{Name: "z.php"}, {Name: "lib/b.php"}, {Name: "lib/a.php", Compression: phar.BZ2}})

	var buf bytes.Buffer
	renderIndented(&buf, tree, 0)
	if want := "lib/\n  a.php [BZ2]\n  b.php\nz.php\n"; buf.String() != want {
		t.Errorf("renderIndented() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	renderFlat(&buf, tree, "")
	if want := "lib\nlib/a.php [BZ2]\nlib/b.php\nz.php\n"; buf.String() != want {
		t.Errorf("renderFlat() = %q, want %q", buf.String(), want)
	}
}
