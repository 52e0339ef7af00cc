// SPDX-License-Identifier: MPL-2.0

package compactor

import (
	"github.com/smacker/go-tree-sitter/javascript"
)

// Javascript strips comments and collapses whitespace in JavaScript sources.
// A whitespace run containing a newline becomes one newline so that automatic
// semicolon insertion still applies.
type Javascript struct {
	exts    extensions
	grammar *grammar
}

// NewJavascript returns the JavaScript compactor.
func NewJavascript() *Javascript {
	return &Javascript{
		exts: extensions{".js"},
		grammar: &grammar{
			language: javascript.GetLanguage(),
			atomic: map[string]bool{
				"string":          true,
				"template_string": true,
				"regex":           true,
			},
		},
	}
}

func (*Javascript) ID() string { return IDJavascript }

func (c *Javascript) Supports(archivePath string) bool { return c.exts.match(archivePath) }

func (c *Javascript) Compact(_ string, content []byte) ([]byte, error) {
	return c.grammar.strip(content)
}
