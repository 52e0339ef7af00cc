// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigInvalidId
	SourceFileNotFoundId
	CompactionFailedId
	ArchiveWriteFailedId
	SigningFailedId
	ArchiveNotFoundId
	SignatureMismatchId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No configuration file found!

box looks for its configuration in the current directory.

## Search order:
1. The file given with ` + "`--config`" + `
2. box.json
3. box.json.dist
4. box.yaml, box.yml, box.toml

## Things you can try:
- Create a minimal box.json:
~~~json
{
    "files": ["index.php"],
    "main": "index.php",
    "stub": true
}
~~~

- Or point to an existing file:
~~~
$ box build -c path/to/box.json
~~~`,
		extLinks: []HttpLink{"https://www.php.net/manual/en/book.phar.php"},
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration!

The configuration file could not be decoded or does not match the schema.

## Things you can try:
- Check the error above for the offending key (e.g. ` + "`files[0]`" + `)
- Validate the file on its own:
~~~
$ box validate -v
~~~

- Algorithm names are case-sensitive: GZ, BZ2, NONE, MD5, SHA1, SHA256, SHA512, OPENSSL`,
	}

	sourceFileNotFoundIssue = &Issue{
		id: SourceFileNotFoundId,
		mdMsg: `
# Source file not found!

A file or directory listed in the configuration does not exist.

## Things you can try:
- Paths are relative to ` + "`base-path`" + ` (the directory of box.json by default)
- Remove the entry from ` + "`files`" + ` or ` + "`directories`" + `
- Use a ` + "`finder`" + ` when the file is optional`,
	}

	compactionFailedIssue = &Issue{
		id: CompactionFailedId,
		mdMsg: `
# Compaction failed!

A compactor could not parse one of the selected files.

## Things you can try:
- Fix the syntax error in the reported file
- Move the file to ` + "`files-bin`" + ` or ` + "`directories-bin`" + ` to store it unchanged
- Remove the compactor from ` + "`compactors`" + ``,
	}

	archiveWriteFailedIssue = &Issue{
		id: ArchiveWriteFailedId,
		mdMsg: `
# Could not write the archive!

The archive could not be written, renamed into place or have its mode changed.
No file was left at the output path.

## Things you can try:
- Check that the output directory exists and is writable
- Check the ` + "`chmod`" + ` value (octal, e.g. "0755")
- Make sure no other build is writing the same output`,
	}

	signingFailedIssue = &Issue{
		id: SigningFailedId,
		mdMsg: `
# Signing failed!

The private key could not be read or decrypted.

## Things you can try:
- Check that ` + "`key`" + ` points to a PEM encoded RSA private key
- Set ` + "`key-pass`" + ` to the passphrase, or to true to be prompted
- Export the passphrase through the environment:
~~~
$ BOX_KEY_PASS=secret box build
~~~`,
	}

	archiveNotFoundIssue = &Issue{
		id: ArchiveNotFoundId,
		mdMsg: `
# Archive not found!

The given path is not a file or is not a readable archive.

## Things you can try:
- Build the archive first:
~~~
$ box build
~~~`,
	}

	signatureMismatchIssue = &Issue{
		id: SignatureMismatchId,
		mdMsg: `
# Signature mismatch!

The archive contents do not match the embedded signature.

## Things you can try:
- Rebuild the archive from a trusted source
- For OpenSSL signatures, make sure the matching ` + "`.pubkey`" + ` file sits next to the archive`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():     configNotFoundIssue,
		configInvalidIssue.Id():      configInvalidIssue,
		sourceFileNotFoundIssue.Id(): sourceFileNotFoundIssue,
		compactionFailedIssue.Id():   compactionFailedIssue,
		archiveWriteFailedIssue.Id(): archiveWriteFailedIssue,
		signingFailedIssue.Id():      signingFailedIssue,
		archiveNotFoundIssue.Id():    archiveNotFoundIssue,
		signatureMismatchIssue.Id():  signatureMismatchIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForKind returns the catalog entry that documents a BuildError kind, or nil.
func ForKind(k Kind) *Issue {
	switch k {
	case KindConfig:
		return configInvalidIssue
	case KindFile:
		return sourceFileNotFoundIssue
	case KindCompaction:
		return compactionFailedIssue
	case KindIO:
		return archiveWriteFailedIssue
	case KindSignature:
		return signingFailedIssue
	default:
		return nil
	}
}
