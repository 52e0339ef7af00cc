// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pharbox/box/internal/compactor"
	"github.com/pharbox/box/internal/finder"
	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
	"github.com/pharbox/box/pkg/types"
)

// PassphrasePrompt is shown when "key-pass" is true.
const PassphrasePrompt = "Private key passphrase: "

type (
	// Prompter obtains the private key passphrase interactively.
	Prompter interface {
		Passphrase(ctx context.Context, prompt string) (string, error)
	}

	// PrompterFunc adapts a function to the Prompter interface.
	PrompterFunc func(ctx context.Context, prompt string) (string, error)

	// ResolveOptions holds the collaborators of Resolve.
	ResolveOptions struct {
		// Prompter is asked for the passphrase when "key-pass" is true.
		Prompter Prompter
		// WorkingDir replaces the configuration file directory when file is empty.
		WorkingDir string
	}
)

// Passphrase calls f.
func (f PrompterFunc) Passphrase(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Resolve turns a decoded configuration document into a BuildConfig. file is
// the location of the document; its directory is the default base path.
// Resolve performs no I/O beyond existence checks, reading git metadata for
// "git-version" and prompting for the passphrase.
func Resolve(ctx context.Context, raw map[string]any, file string, opts ResolveOptions) (*BuildConfig, error) {
	r := resolver{raw: raw}

	configDir := opts.WorkingDir
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, issue.ConfigWrap(file, err)
		}
		file = abs
		configDir = filepath.Dir(abs)
	}
	if configDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		configDir = wd
	}

	cfg := &BuildConfig{file: file}

	base, err := r.basePath(configDir)
	if err != nil {
		return nil, err
	}
	cfg.basePath = base

	cfg.alias = r.stringOr(KeyAlias, DefaultAlias)
	cfg.outputPath = r.path(base, r.stringOr(KeyOutput, DefaultOutput))
	cfg.mainPath = r.path(base, r.stringOr(KeyMain, ""))
	cfg.notFoundPath = r.stringOr(KeyNotFound, "")
	cfg.keyPath = r.path(base, r.stringOr(KeyPrivateKey, ""))
	cfg.intercept = r.boolOr(KeyIntercept, false)
	cfg.web = r.boolOr(KeyWeb, false)
	cfg.stub = r.stubPolicy(base)

	if cfg.files, err = r.paths(KeyFiles, base); err != nil {
		return nil, err
	}
	if cfg.binaryFiles, err = r.paths(KeyBinaryFiles, base); err != nil {
		return nil, err
	}
	if cfg.directories, err = r.paths(KeyDirectories, base); err != nil {
		return nil, err
	}
	if cfg.binaryDirectories, err = r.paths(KeyBinaryDirectories, base); err != nil {
		return nil, err
	}
	if cfg.blacklist, err = r.blacklist(); err != nil {
		return nil, err
	}
	if cfg.finders, err = r.finders(KeyFinder, base); err != nil {
		return nil, err
	}
	if cfg.binaryFinders, err = r.finders(KeyBinaryFinder, base); err != nil {
		return nil, err
	}
	if cfg.mung, err = r.strings(KeyMung); err != nil {
		return nil, err
	}
	if cfg.mimeTypes, err = r.stringMap(KeyMimeTypes); err != nil {
		return nil, err
	}

	if cfg.compression, err = r.compression(); err != nil {
		return nil, err
	}
	if cfg.signing, err = r.signing(cfg.keyPath); err != nil {
		return nil, err
	}
	if cfg.compactors, err = r.compactors(); err != nil {
		return nil, err
	}
	if cfg.fileMode, cfg.hasFileMode, err = r.fileMode(); err != nil {
		return nil, err
	}
	cfg.metadata, cfg.hasMetadata = raw[KeyMetadata]

	if cfg.replacements, err = r.replacements(configDir); err != nil {
		return nil, err
	}

	if cfg.keyPath != "" {
		if cfg.keyPass, err = r.passphrase(ctx, opts.Prompter); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Canonicalize normalizes "." and ".." segments and repeated separators of
// path. A trailing separator is preserved. The empty string stays empty.
func Canonicalize(path string) string {
	if path == "" {
		return ""
	}
	trailing := strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))
	clean := filepath.Clean(path)
	if trailing && !strings.HasSuffix(clean, string(filepath.Separator)) {
		clean += string(filepath.Separator)
	}
	return clean
}

type resolver struct {
	raw map[string]any
}

func (r resolver) basePath(configDir string) (string, error) {
	configured, ok := r.raw[KeyBasePath].(string)
	if !ok || configured == "" {
		base, err := filepath.EvalSymlinks(configDir)
		if err != nil {
			return "", issue.Config("The base path \"%s\" is not a directory or does not exist.", configDir)
		}
		return base, nil
	}

	dir := configured
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(configDir, dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", issue.Config("The base path \"%s\" is not a directory or does not exist.", configured)
	}
	base, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", issue.Config("The base path \"%s\" is not a directory or does not exist.", configured)
	}
	return base, nil
}

// path resolves p against base. Empty stays empty.
func (r resolver) path(base, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return Canonicalize(p)
	}
	return Canonicalize(base + string(filepath.Separator) + p)
}

func (r resolver) stringOr(key, def string) string {
	if s, ok := r.raw[key].(string); ok {
		return s
	}
	return def
}

func (r resolver) boolOr(key string, def bool) bool {
	if b, ok := r.raw[key].(bool); ok {
		return b
	}
	return def
}

// strings reads a string or a list of strings.
func (r resolver) strings(key string) ([]string, error) {
	switch v := r.raw[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, issue.Config("The \"%s\" setting must be a string or a list of strings.", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, issue.Config("The \"%s\" setting must be a string or a list of strings.", key)
	}
}

func (r resolver) paths(key, base string) ([]string, error) {
	list, err := r.strings(key)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, r.path(base, p))
	}
	return out, nil
}

// blacklist entries stay base-relative; they are compared with archive paths.
func (r resolver) blacklist() ([]string, error) {
	list, err := r.strings(KeyBlacklist)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, filepath.ToSlash(Canonicalize(p)))
	}
	return out, nil
}

func (r resolver) stringMap(key string) (map[string]string, error) {
	raw, ok := r.raw[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, issue.Config("The \"%s\" setting must be an object.", key)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, issue.Config("The \"%s\" value for \"%s\" must be a string.", key, k)
		}
		out[k] = s
	}
	return out, nil
}

func (r resolver) stubPolicy(base string) StubPolicy {
	switch v := r.raw[KeyStub].(type) {
	case bool:
		if v {
			return StubPolicy{Mode: StubGenerate}
		}
	case string:
		if v != "" {
			return StubPolicy{Mode: StubFile, Path: r.path(base, v)}
		}
	}
	return StubPolicy{Mode: StubNone}
}

func (r resolver) finders(key, base string) ([]finder.Spec, error) {
	raw, ok := r.raw[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, issue.Config("The \"%s\" setting must be a list of objects.", key)
	}
	specs, err := finder.ParseList(list)
	if err != nil {
		return nil, err
	}
	for i := range specs {
		for j, dir := range specs[i].In {
			specs[i].In[j] = r.path(base, dir)
		}
		if _, err := finder.Compile(specs[i]); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

func (r resolver) compression() (phar.Compression, error) {
	raw, ok := r.raw[KeyCompression]
	if !ok || raw == nil {
		return phar.None, nil
	}
	if name, isName := raw.(string); isName {
		c, found := phar.ParseCompression(name)
		if !found {
			return 0, issue.Config("The compression algorithm \"%s\" is not supported.", name)
		}
		return c, nil
	}
	n, isInt := integer(raw)
	if !isInt || n < 0 || n > math.MaxUint32 || !phar.Compression(n).Valid() {
		return 0, issue.Config("The compression algorithm \"%v\" is not supported.", raw)
	}
	return phar.Compression(n), nil
}

// signing returns the signature algorithm. A private key always signs with
// OPENSSL, whatever "algorithm" says.
func (r resolver) signing(keyPath string) (phar.SignatureAlgorithm, error) {
	alg := DefaultSigningAlgorithm
	if raw, ok := r.raw[KeyAlgorithm]; ok && raw != nil {
		if name, isName := raw.(string); isName {
			a, found := phar.ParseSignatureAlgorithm(name)
			if !found {
				return 0, issue.Config("The signing algorithm \"%s\" is not supported.", name)
			}
			alg = a
		} else {
			n, isInt := integer(raw)
			if !isInt || n < 0 || n > math.MaxUint32 || !phar.SignatureAlgorithm(n).Valid() {
				return 0, issue.Config("The signing algorithm \"%v\" is not supported.", raw)
			}
			alg = phar.SignatureAlgorithm(n)
		}
	}

	if keyPath != "" {
		return phar.OpenSSL, nil
	}
	if alg == phar.OpenSSL {
		return 0, issue.Config("The OPENSSL signing algorithm requires a private key (\"key\").")
	}
	return alg, nil
}

func (r resolver) compactors() (compactor.Chain, error) {
	names, err := r.strings(KeyCompactors)
	if err != nil || names == nil {
		return nil, err
	}
	chain := make(compactor.Chain, 0, len(names))
	for _, name := range names {
		c, err := compactor.Lookup(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	return chain, nil
}

func (r resolver) fileMode() (types.FileMode, bool, error) {
	raw, ok := r.raw[KeyChmod]
	if !ok || raw == nil {
		return 0, false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, false, issue.Config("The file mode \"%v\" must be an octal string.", raw)
	}
	mode, err := types.ParseFileMode(s)
	if err != nil {
		return 0, false, issue.Config("The file mode \"%s\" is not a valid octal value.", s)
	}
	return mode, true, nil
}

// replacements stringifies the configured values the way PHP casts scalars
// and adds the git-version placeholder.
func (r resolver) replacements(configDir string) (map[string]string, error) {
	out := make(map[string]string)
	if raw, ok := r.raw[KeyReplacements]; ok && raw != nil {
		m, isMap := raw.(map[string]any)
		if !isMap {
			return nil, issue.Config("The \"%s\" setting must be an object.", KeyReplacements)
		}
		for _, k := range slices.Sorted(maps.Keys(m)) {
			s, err := scalarString(m[k])
			if err != nil {
				return nil, issue.Config("The replacement value for \"%s\" must be a scalar.", k)
			}
			out[k] = s
		}
	}

	if placeholder, ok := r.raw[KeyGitVersion].(string); ok && placeholder != "" {
		version, err := GitVersion(configDir)
		if err != nil {
			return nil, issue.Config("The tag or commit hash could not be retrieved from \"%s\": %v", configDir, err)
		}
		out[placeholder] = version
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// passphrase returns the "key-pass" string, or prompts when it is true.
func (r resolver) passphrase(ctx context.Context, prompter Prompter) (string, error) {
	switch v := r.raw[KeyPrivateKeyPass].(type) {
	case string:
		return v, nil
	case bool:
		if !v {
			return "", nil
		}
	default:
		return "", nil
	}

	if prompter == nil {
		return "", issue.Config("Your private key passphrase is required for signing.")
	}
	pass, err := prompter.Passphrase(ctx, PassphrasePrompt)
	if err != nil {
		return "", &issue.BuildError{
			Kind:    issue.KindConfig,
			Message: "Your private key passphrase is required for signing.",
			Cause:   err,
		}
	}
	if strings.TrimSpace(pass) == "" {
		return "", issue.Config("Your private key passphrase is required for signing.")
	}
	return pass, nil
}

// integer accepts the numeric types documents decode to.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		if s {
			return "1", nil
		}
		return "", nil
	case nil:
		return "", nil
	default:
		return "", errors.New("not a scalar")
	}
}
