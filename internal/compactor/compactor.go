// SPDX-License-Identifier: MPL-2.0

// Package compactor implements the content transformers applied to text files
// before they are stored in an archive.
package compactor

import (
	"path"
	"slices"
	"strings"

	"github.com/pharbox/box/internal/issue"
)

// Built-in compactor identifiers.
const (
	IDPhp        = "php"
	IDJavascript = "javascript"
	IDJSON       = "json"
)

type (
	// Compactor transforms the content of the files it supports.
	// Compact must only be called for paths accepted by Supports.
	Compactor interface {
		ID() string
		Supports(archivePath string) bool
		Compact(archivePath string, content []byte) ([]byte, error)
	}

	// Chain applies compactors in configuration order. Each compactor decides
	// on its own whether it applies to a path.
	Chain []Compactor

	extensions []string
)

var (
	// aliases maps class names found in existing box.json files to built-ins.
	aliases = map[string]string{
		IDPhp:                              IDPhp,
		IDJavascript:                       IDJavascript,
		IDJSON:                             IDJSON,
		`Herrera\Box\Compactor\Php`:        IDPhp,
		`Herrera\Box\Compactor\Composer`:   IDPhp,
		`Herrera\Box\Compactor\Javascript`: IDJavascript,
		`Herrera\Box\Compactor\Json`:       IDJSON,
		`KevinGH\Box\Compactor\Php`:        IDPhp,
		`KevinGH\Box\Compactor\Javascript`: IDJavascript,
		`KevinGH\Box\Compactor\Json`:       IDJSON,
	}

	// abstract names exist but cannot compact anything on their own.
	abstract = []string{
		`Herrera\Box\Compactor\Compactor`,
		`Herrera\Box\Compactor\CompactorInterface`,
		`KevinGH\Box\Compactor\Compactor`,
		`KevinGH\Box\Compactor\CompactorInterface`,
	}
)

// Lookup resolves a configured compactor name. A leading backslash is ignored.
func Lookup(name string) (Compactor, error) {
	key := strings.TrimPrefix(name, `\`)
	if slices.Contains(abstract, key) {
		return nil, issue.Config("The class \"%s\" is not a compactor class.", name)
	}

	switch aliases[key] {
	case IDPhp:
		return NewPhp(), nil
	case IDJavascript:
		return NewJavascript(), nil
	case IDJSON:
		return NewJSON(), nil
	default:
		return nil, issue.Config("The compactor \"%s\" does not exist.", name)
	}
}

// IDs returns the built-in compactor identifiers.
func IDs() []string {
	return []string{IDPhp, IDJavascript, IDJSON}
}

// Compact runs every supporting compactor over content, in order. A failure
// is returned as a compaction error naming archivePath.
func (c Chain) Compact(archivePath string, content []byte) ([]byte, error) {
	out := content
	for _, comp := range c {
		if !comp.Supports(archivePath) {
			continue
		}
		var err error
		if out, err = comp.Compact(archivePath, out); err != nil {
			return nil, issue.Compaction(archivePath, err)
		}
	}
	return out, nil
}

// IDs returns the identifiers of the chained compactors.
func (c Chain) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, comp := range c {
		ids = append(ids, comp.ID())
	}
	return ids
}

func (e extensions) match(archivePath string) bool {
	return slices.Contains(e, strings.ToLower(path.Ext(archivePath)))
}
