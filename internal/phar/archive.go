// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/pharbox/box/pkg/types"
)

type (
	// Entry is a file stored in an Archive. Content is always uncompressed.
	Entry struct {
		Name        string
		Content     []byte
		Compression Compression
		ModTime     time.Time
		Perm        uint32
	}

	// Archive is an archive being assembled in memory. Entries keep the
	// order in which their path was first added.
	Archive struct {
		alias     string
		stub      []byte
		metadata  any
		entries   []*Entry
		index     map[string]int
		algorithm SignatureAlgorithm
		key       *rsa.PrivateKey
		now       func() time.Time
	}
)

// New returns an empty archive signed with SHA1 by default.
func New(alias string) *Archive {
	return &Archive{
		alias:     alias,
		index:     make(map[string]int),
		algorithm: SHA1,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for entry timestamps.
func (a *Archive) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	a.now = now
}

// Alias returns the alias the archive registers itself under.
func (a *Archive) Alias() string { return a.alias }

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Stub returns the custom stub, or nil when none was set.
func (a *Archive) Stub() []byte { return a.stub }

// Entry returns the entry stored at name.
func (a *Archive) Entry(name string) (*Entry, bool) {
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.entries[i], true
}

// Names returns entry names in archive order.
func (a *Archive) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.Name
	}
	return names
}

// Add stores content at name. Adding an existing name replaces the content
// and keeps the original position.
func (a *Archive) Add(name string, content []byte) error {
	if err := types.ArchivePath(name).Validate(); err != nil {
		return err
	}
	e := &Entry{Name: name, Content: content, ModTime: a.now(), Perm: DefaultPerm}
	if i, ok := a.index[name]; ok {
		e.Compression = a.entries[i].Compression
		a.entries[i] = e
		return nil
	}
	a.index[name] = len(a.entries)
	a.entries = append(a.entries, e)
	return nil
}

// SetStub installs a custom stub. Everything after __HALT_COMPILER(); is
// replaced by the standard terminator when the archive is written.
func (a *Archive) SetStub(stub []byte) error {
	if haltIndex(stub) < 0 {
		return ErrInvalidStub
	}
	a.stub = bytes.Clone(stub)
	return nil
}

// SetMetadata sets the archive-wide metadata value.
func (a *Archive) SetMetadata(v any) { a.metadata = v }

// Metadata returns the archive-wide metadata value.
func (a *Archive) Metadata() any { return a.metadata }

// CompressAll sets the compression of every entry.
func (a *Archive) CompressAll(c Compression) error {
	if !c.Valid() {
		return fmt.Errorf("unsupported compression %s", c)
	}
	for _, e := range a.entries {
		e.Compression = c
	}
	return nil
}

// SetSignatureAlgorithm selects a digest signature. OpenSSL signatures need
// a key and are set with SetPrivateKey.
func (a *Archive) SetSignatureAlgorithm(alg SignatureAlgorithm) error {
	if !alg.Valid() || alg == OpenSSL {
		return fmt.Errorf("unsupported signature algorithm %s", alg)
	}
	a.algorithm = alg
	a.key = nil
	return nil
}

// SetPrivateKey signs the archive with key using OpenSSL (RSA, SHA-1).
func (a *Archive) SetPrivateKey(key *rsa.PrivateKey) {
	a.algorithm = OpenSSL
	a.key = key
}

// SignatureAlgorithm returns the algorithm the archive will be signed with.
func (a *Archive) SignatureAlgorithm() SignatureAlgorithm { return a.algorithm }

// WriteTo serializes the archive, including its signature.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	stub := a.stub
	if stub == nil {
		stub = []byte("<?php " + haltCompiler)
	}
	buf.Write(stub[:haltIndex(stub)+len(haltCompiler)])
	buf.WriteString(stubTerminus)

	data := make([][]byte, len(a.entries))
	var globalFlags uint32 = flagSigned
	for i, e := range a.entries {
		packed, err := compress(e.Compression, e.Content)
		if err != nil {
			return 0, fmt.Errorf("compress %s: %w", e.Name, err)
		}
		data[i] = packed
		globalFlags |= uint32(e.Compression)
	}

	manifest, err := a.manifest(data, globalFlags)
	if err != nil {
		return 0, err
	}
	putUint32(&buf, uint32(len(manifest)))
	buf.Write(manifest)
	for _, d := range data {
		buf.Write(d)
	}

	if err := a.sign(&buf); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

func (a *Archive) manifest(data [][]byte, globalFlags uint32) ([]byte, error) {
	var m bytes.Buffer
	putUint32(&m, uint32(len(a.entries)))
	m.WriteByte(byte(apiVersion >> 8))
	m.WriteByte(byte(apiVersion & 0xF0))
	putUint32(&m, globalFlags)
	putString(&m, a.alias)

	meta, err := MarshalMetadata(a.metadata)
	if err != nil {
		return nil, fmt.Errorf("serialize metadata: %w", err)
	}
	putString(&m, string(meta))

	for i, e := range a.entries {
		putString(&m, e.Name)
		putUint32(&m, uint32(len(e.Content)))
		putUint32(&m, uint32(e.ModTime.Unix()))
		putUint32(&m, uint32(len(data[i])))
		putUint32(&m, crc32.ChecksumIEEE(e.Content))
		putUint32(&m, (e.Perm&permMask)|uint32(e.Compression))
		putUint32(&m, 0)
	}
	return m.Bytes(), nil
}

func (a *Archive) sign(buf *bytes.Buffer) error {
	if a.algorithm == OpenSSL {
		if a.key == nil {
			return fmt.Errorf("OpenSSL signature requires a private key")
		}
		sig, err := signRSA(a.key, buf.Bytes())
		if err != nil {
			return fmt.Errorf("sign archive: %w", err)
		}
		buf.Write(sig)
		putUint32(buf, uint32(len(sig)))
	} else {
		sum, err := digest(a.algorithm, buf.Bytes())
		if err != nil {
			return err
		}
		buf.Write(sum)
	}
	putUint32(buf, uint32(a.algorithm))
	buf.WriteString(sigMagic)
	return nil
}

func haltIndex(stub []byte) int {
	return bytes.Index(bytes.ToLower(stub), bytes.ToLower([]byte(haltCompiler)))
}

func putUint32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func putString(b *bytes.Buffer, s string) {
	putUint32(b, uint32(len(s)))
	b.WriteString(s)
}
