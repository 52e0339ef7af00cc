// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/pkg/cueutil"
)

//go:embed box_schema.cue
var boxSchema []byte

// schemaDefinition is the root definition documents are validated against.
const schemaDefinition = "#Box"

// DefaultFileNames are tried in order when no configuration file is given.
var DefaultFileNames = []string{"box.json", "box.json.dist", "box.yaml", "box.yml", "box.toml"}

// ErrConfigNotFound is returned when no configuration file could be found.
var ErrConfigNotFound = errors.New("the configuration file could not be found")

// Find returns the absolute path of the configuration file. An explicit path
// is resolved against workingDir and must exist; otherwise DefaultFileNames
// are tried in workingDir.
func Find(workingDir, explicit string) (string, error) {
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		workingDir = wd
	}

	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(workingDir, explicit)
		}
		if !fileExists(explicit) {
			return "", issue.ConfigWrap(explicit, ErrConfigNotFound)
		}
		return explicit, nil
	}

	for _, name := range DefaultFileNames {
		candidate := filepath.Join(workingDir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", issue.ConfigWrap(workingDir, ErrConfigNotFound)
}

// ReadDocument reads and decodes the configuration file at path. The decoder
// is chosen by extension; anything that is not YAML or TOML is read as JSON
// with comments and trailing commas allowed. Numbers are normalized to int64
// when whole and float64 otherwise.
func ReadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.IO("read", path, err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, issue.ConfigWrap(path, err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		var doc map[string]any
		err = toml.Unmarshal(data, &doc)
		raw = doc
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		err = dec.Decode(&raw)
	}
	if err != nil {
		return nil, issue.ConfigWrap(path, err)
	}

	if raw == nil {
		return map[string]any{}, nil
	}
	doc, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, issue.ConfigWrap(path, errors.New("the document must be an object"))
	}
	return doc, nil
}

// ValidateDocument checks doc against the embedded schema.
func ValidateDocument(path string, doc map[string]any) error {
	if err := cueutil.Validate(boxSchema, schemaDefinition, doc, filepath.Base(path)); err != nil {
		return issue.ConfigWrap(path, err)
	}
	return nil
}

// normalize converts decoder-specific values into the JSON-compatible set
// used everywhere else: map[string]any, []any, string, bool, int64, float64, nil.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return normalize(f)
	case int:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return float64(v)
		}
		return int64(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		// TOML local dates and times.
		return v.String()
	default:
		return v
	}
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
