// SPDX-License-Identifier: MPL-2.0

package compactor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type (
	// SyntaxError reports the first position tree-sitter could not parse.
	SyntaxError struct {
		Line   uint32 // 1-indexed
		Column uint32 // 1-indexed
	}

	// grammar describes how a tree-sitter language is stripped.
	grammar struct {
		language *sitter.Language
		// atomic node types are copied verbatim, children included.
		atomic map[string]bool
		// verbatim node types also keep the whitespace around them.
		verbatim map[string]bool
		// keepLines keeps every newline of collapsed whitespace; otherwise
		// a run containing newlines becomes a single newline.
		keepLines bool
	}

	token struct {
		kind       string
		start, end uint32
	}
)

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

var (
	blanks          = regexp.MustCompile(`[ \t]+`)
	newlines        = regexp.MustCompile(`\r\n|\r`)
	indentAfterLine = regexp.MustCompile(`\n +`)
	spaceBeforeLine = regexp.MustCompile(` +\n`)
)

// strip removes comments and collapses whitespace between tokens.
func (g *grammar) strip(content []byte) ([]byte, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root)
	}

	var tokens []token
	g.collect(root, &tokens)

	var (
		out     strings.Builder
		pending strings.Builder
		prev    string
		pos     uint32
	)
	out.Grow(len(content))

	for _, tok := range tokens {
		gap := string(content[pos:tok.start])
		switch {
		case strings.TrimSpace(gap) != "":
			out.WriteString(g.collapse(pending.String()))
			out.WriteString(gap)
			pending.Reset()
		case g.verbatim[prev] || g.verbatim[tok.kind]:
			out.WriteString(pending.String())
			out.WriteString(gap)
			pending.Reset()
		default:
			pending.WriteString(gap)
		}

		text := string(content[tok.start:tok.end])
		if tok.kind == "comment" {
			if n := strings.Count(text, "\n"); n > 0 {
				pending.WriteString(strings.Repeat("\n", n))
			} else {
				pending.WriteByte(' ')
			}
		} else {
			// Whitespace and comments before the first token are dropped.
			if out.Len() > 0 {
				out.WriteString(g.collapse(pending.String()))
			}
			pending.Reset()
			out.WriteString(text)
		}
		prev = tok.kind
		pos = tok.end
	}

	tail := pending.String() + string(content[pos:])
	switch {
	case g.verbatim[prev]:
		out.WriteString(tail)
	case strings.ContainsAny(tail, "\r\n"):
		out.WriteString("\n")
	}

	return []byte(out.String()), nil
}

func (g *grammar) collect(n *sitter.Node, tokens *[]token) {
	if n.StartByte() == n.EndByte() {
		return
	}
	if n.ChildCount() == 0 || g.atomic[n.Type()] || n.Type() == "comment" {
		*tokens = append(*tokens, token{kind: n.Type(), start: n.StartByte(), end: n.EndByte()})
		return
	}
	for i := range int(n.ChildCount()) {
		g.collect(n.Child(i), tokens)
	}
}

// collapse reduces a whitespace run to the shortest equivalent separator.
func (g *grammar) collapse(ws string) string {
	if ws == "" {
		return ""
	}
	ws = newlines.ReplaceAllString(ws, "\n")
	if !strings.Contains(ws, "\n") {
		return " "
	}
	if !g.keepLines {
		return "\n"
	}
	ws = blanks.ReplaceAllString(ws, " ")
	ws = indentAfterLine.ReplaceAllString(ws, "\n")
	ws = spaceBeforeLine.ReplaceAllString(ws, "\n")
	return ws
}

func syntaxError(root *sitter.Node) error {
	n := firstError(root)
	if n == nil {
		n = root
	}
	p := n.StartPoint()
	return &SyntaxError{Line: p.Row + 1, Column: p.Column + 1}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := firstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}
