// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"slices"
	"strings"
)

// DefaultShebang starts every generated stub.
const DefaultShebang = "#!/usr/bin/env php"

// webIndex is the script Phar::webPhar serves when no main script is set.
const webIndex = "index.php"

// StubOptions describes a generated bootstrap stub.
type StubOptions struct {
	// Shebang defaults to DefaultShebang; "-" omits the line.
	Shebang   string
	Alias     string
	Main      string
	Intercept bool
	Mung      []string
	Web       bool
	NotFound  string
	MimeTypes map[string]string
}

// GenerateStub returns the PHP bootstrap for opts. A web stub serves the
// archive with Phar::webPhar; otherwise the archive is mapped under its alias
// and the main script, if any, is required.
func GenerateStub(opts StubOptions) []byte {
	var lines []string

	switch opts.Shebang {
	case "":
		lines = append(lines, DefaultShebang)
	case "-":
	default:
		lines = append(lines, opts.Shebang)
	}
	lines = append(lines, "<?php", "")

	if !opts.Web {
		lines = append(lines, "Phar::mapPhar("+phpString(opts.Alias)+");")
	}
	// Phar::webPhar ends the request, so everything it depends on comes first.
	if opts.Intercept {
		lines = append(lines, "Phar::interceptFileFuncs();")
	}
	if len(opts.Mung) > 0 {
		lines = append(lines, "Phar::mungServer("+phpList(opts.Mung)+");")
	}
	if opts.Web {
		index := opts.Main
		if index == "" {
			index = webIndex
		}
		notFound := "null"
		if opts.NotFound != "" {
			notFound = phpString(opts.NotFound)
		}
		lines = append(lines, "Phar::webPhar("+phpString(opts.Alias)+", "+phpString(index)+", "+notFound+", "+phpMap(opts.MimeTypes)+");")
	}
	if opts.Main != "" && !opts.Web {
		lines = append(lines, "", "require "+phpString("phar://"+opts.Alias+"/"+opts.Main)+";")
	}

	lines = append(lines, "", "__HALT_COMPILER();", "")
	return []byte(strings.Join(lines, "\n"))
}

// phpString quotes s as a single-quoted PHP literal.
func phpString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func phpList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = phpString(v)
	}
	return "array(" + strings.Join(quoted, ", ") + ")"
}

func phpMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = phpString(k) + " => " + phpString(m[k])
	}
	return "array(" + strings.Join(pairs, ", ") + ")"
}
