// SPDX-License-Identifier: MPL-2.0

package compactor

import (
	"github.com/smacker/go-tree-sitter/php"
)

// Php strips comments and collapses whitespace in PHP sources. Newlines are
// kept so that line numbers in stack traces stay correct. String literals,
// heredocs and inline HTML are copied unchanged.
type Php struct {
	exts    extensions
	grammar *grammar
}

// NewPhp returns the PHP compactor.
func NewPhp() *Php {
	return &Php{
		exts: extensions{".php", ".phtml", ".inc", ".php5"},
		grammar: &grammar{
			language: php.GetLanguage(),
			atomic: map[string]bool{
				"string":                   true,
				"encapsed_string":          true,
				"heredoc":                  true,
				"nowdoc":                   true,
				"text":                     true,
				"shell_command_expression": true,
			},
			verbatim:  map[string]bool{"text": true, "?>": true},
			keepLines: true,
		},
	}
}

func (*Php) ID() string { return IDPhp }

func (c *Php) Supports(archivePath string) bool { return c.exts.match(archivePath) }

func (c *Php) Compact(_ string, content []byte) ([]byte, error) {
	return c.grammar.strip(content)
}
