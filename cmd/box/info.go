// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
)

const (
	listModeIndent = "indent"
	listModeFlat   = "flat"
)

type (
	infoOptions struct {
		list     bool
		mode     string
		metadata bool
	}

	// attribute is one "Name: value" block of info output. A list value is
	// printed one item per line.
	attribute struct {
		name  string
		value string
		list  []string
	}

	// treeNode is a directory (children set) or a file (entry set) of an
	// archive listing.
	treeNode struct {
		name     string
		children map[string]*treeNode
		entry    *phar.EntryInfo
	}
)

// newInfoCommand creates the `box info` command.
func newInfoCommand(app *App) *cobra.Command {
	opts := infoOptions{}

	cmd := &cobra.Command{
		Use:   "info [phar]",
		Short: "Displays information about the PHAR format or a PHAR file",
		Long: `Display information about the supported PHAR format, or about the
PHAR file if specified.

With --list the contents of the archive are listed, as an indented tree by
default or as flat paths with --mode flat.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mode != listModeIndent && opts.mode != listModeFlat {
				return fmt.Errorf("invalid listing mode %q (options: %s, %s)", opts.mode, listModeIndent, listModeFlat)
			}
			if len(args) == 0 {
				renderAttributes(app.stdout, formatAttributes())
				return nil
			}
			return runInfo(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list the contents of the archive")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", listModeIndent, "the listing mode (indent, flat)")
	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "display the archive metadata")

	return cmd
}

func runInfo(cmd *cobra.Command, app *App, file string, opts infoOptions) error {
	r, err := openArchive(file)
	if err != nil {
		return app.fail(cmd, "read archive", err)
	}

	compression := "None"
	if c := r.Compression(); c != phar.None {
		compression = c.String()
	}
	signature, hash := "None", ""
	if sig := r.Signature(); sig != nil {
		signature, hash = sig.HashType, sig.Hash
	}
	renderAttributes(app.stdout, []attribute{
		{name: "API Version", value: r.Version()},
		{name: "Archive Compression", value: compression},
		{name: "Signature", value: signature},
		{name: "Signature Hash", value: hash},
	})

	if opts.list {
		fmt.Fprintln(app.stdout)
		fmt.Fprintln(app.stdout, LabelStyle.Render("Contents:"))
		tree := buildTree(r.Entries())
		if opts.mode == listModeFlat {
			renderFlat(app.stdout, tree, "")
		} else {
			renderIndented(app.stdout, tree, 0)
		}
	}

	if opts.metadata {
		meta, err := r.Metadata()
		if err != nil {
			return app.fail(cmd, "read archive metadata", issue.IO("read metadata", file, err))
		}
		fmt.Fprintln(app.stdout)
		fmt.Fprintln(app.stdout, LabelStyle.Render("Metadata:"))
		fmt.Fprintln(app.stdout, phar.FormatMetadata(meta))
	}
	return nil
}

// formatAttributes describes what this build of box can read and write.
func formatAttributes() []attribute {
	compressions := []string{phar.GZ.String(), phar.BZ2.String()}
	var signatures []string
	for _, name := range phar.SignatureNames() {
		alg, _ := phar.ParseSignatureAlgorithm(name)
		signatures = append(signatures, alg.HashType())
	}
	return []attribute{
		{name: "API Version", value: phar.APIVersion},
		{name: "Supported Compression", list: compressions},
		{name: "Supported Signatures", list: signatures},
	}
}

func renderAttributes(w io.Writer, attrs []attribute) {
	for i, a := range attrs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		label := LabelStyle.Render(a.name + ":")
		if a.list == nil {
			fmt.Fprintf(w, "%s %s\n", label, a.value)
			continue
		}
		fmt.Fprintln(w, label)
		for _, item := range a.list {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}

// buildTree turns the flat entry names into a directory tree.
func buildTree(entries []phar.EntryInfo) *treeNode {
	root := &treeNode{children: map[string]*treeNode{}}
	for i := range entries {
		node := root
		parts := strings.Split(entries[i].Name, "/")
		for j, part := range parts {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part}
				node.children[part] = child
			}
			if j == len(parts)-1 {
				child.entry = &entries[i]
			} else if child.children == nil {
				child.children = map[string]*treeNode{}
			}
			node = child
		}
	}
	return root
}

func (n *treeNode) sorted() []*treeNode {
	nodes := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		nodes = append(nodes, c)
	}
	slices.SortFunc(nodes, func(a, b *treeNode) int { return strings.Compare(a.name, b.name) })
	return nodes
}

func (n *treeNode) isDir() bool { return n.children != nil && n.entry == nil }

func renderIndented(w io.Writer, dir *treeNode, indent int) {
	pad := strings.Repeat(" ", indent)
	for _, n := range dir.sorted() {
		if n.isDir() {
			fmt.Fprintln(w, pad+PathStyle.Render(n.name+"/"))
			renderIndented(w, n, indent+2)
			continue
		}
		fmt.Fprintln(w, pad+n.name+compressionMarker(n.entry))
	}
}

func renderFlat(w io.Writer, dir *treeNode, prefix string) {
	for _, n := range dir.sorted() {
		p := path.Join(prefix, n.name)
		if n.isDir() {
			fmt.Fprintln(w, PathStyle.Render(p))
			renderFlat(w, n, p)
			continue
		}
		fmt.Fprintln(w, p+compressionMarker(n.entry))
	}
}

func compressionMarker(e *phar.EntryInfo) string {
	if e == nil || e.Compression == phar.None {
		return ""
	}
	return " " + CompressionStyle.Render("["+e.Compression.String()+"]")
}
