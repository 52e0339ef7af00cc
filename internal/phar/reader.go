// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pharbox/box/pkg/types"
)

type (
	// EntryInfo describes an entry found in an archive manifest.
	EntryInfo struct {
		Name           string
		Size           uint32
		CompressedSize uint32
		CRC32          uint32
		ModTime        time.Time
		Perm           uint32
		Compression    Compression
		offset         int
	}

	// Reader gives read access to an archive file held in memory.
	Reader struct {
		path      string
		data      []byte
		stubEnd   int
		version   string
		flags     uint32
		alias     string
		metadata  []byte
		entries   []EntryInfo
		signature *Signature
		sigStart  int
		sigBytes  []byte
	}
)

// Open reads and parses the archive at path.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.path = path
	return r, nil
}

// Parse parses an archive held in memory.
func Parse(data []byte) (*Reader, error) {
	r := &Reader{data: data, sigStart: len(data)}

	halt := bytes.Index(data, []byte(haltCompiler))
	if halt < 0 {
		return nil, fmt.Errorf("%w: %s not found", ErrCorrupt, haltCompiler)
	}
	pos := halt + len(haltCompiler)
	for pos < len(data) && data[pos] == ' ' {
		pos++
	}
	if bytes.HasPrefix(data[pos:], []byte("?>")) {
		pos += 2
	}
	switch {
	case bytes.HasPrefix(data[pos:], []byte("\r\n")):
		pos += 2
	case bytes.HasPrefix(data[pos:], []byte("\n")):
		pos++
	}
	r.stubEnd = pos

	p := parser{data: data, pos: pos}
	manifestLen := p.uint32()
	manifestEnd := p.pos + int(manifestLen)
	if p.err != nil || manifestEnd > len(data) {
		return nil, fmt.Errorf("%w: truncated manifest", ErrCorrupt)
	}

	count := p.uint32()
	ver := p.bytes(2)
	r.flags = p.uint32()
	r.alias = string(p.lengthPrefixed())
	r.metadata = p.lengthPrefixed()
	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, p.err)
	}
	r.version = fmt.Sprintf("%d.%d.%d", ver[0]>>4, ver[0]&0x0F, ver[1]>>4)

	offset := manifestEnd
	for range count {
		e := EntryInfo{Name: string(p.lengthPrefixed())}
		e.Size = p.uint32()
		e.ModTime = time.Unix(int64(p.uint32()), 0)
		e.CompressedSize = p.uint32()
		e.CRC32 = p.uint32()
		flags := p.uint32()
		p.lengthPrefixed() // per-entry metadata
		if p.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, p.err)
		}
		e.Perm = flags & permMask
		e.Compression = Compression(flags & flagCompressedMask)
		e.offset = offset
		offset += int(e.CompressedSize)
		r.entries = append(r.entries, e)
	}
	if offset > len(data) {
		return nil, fmt.Errorf("%w: entry data exceeds file size", ErrCorrupt)
	}

	if r.flags&flagSigned != 0 {
		if err := r.parseSignature(offset); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) parseSignature(dataEnd int) error {
	n := len(r.data)
	if n-dataEnd < 8 || string(r.data[n-4:]) != sigMagic {
		return fmt.Errorf("%w: missing signature", ErrCorrupt)
	}
	alg := SignatureAlgorithm(binary.LittleEndian.Uint32(r.data[n-8 : n-4]))

	var sigStart, sigEnd int
	if alg == OpenSSL {
		if n-dataEnd < 12 {
			return fmt.Errorf("%w: truncated signature", ErrCorrupt)
		}
		size := int(binary.LittleEndian.Uint32(r.data[n-12 : n-8]))
		sigEnd = n - 12
		sigStart = sigEnd - size
	} else {
		size := digestSize(alg)
		if size == 0 {
			return fmt.Errorf("%w: unknown signature algorithm %#x", ErrCorrupt, uint32(alg))
		}
		sigEnd = n - 8
		sigStart = sigEnd - size
	}
	if sigStart < dataEnd {
		return fmt.Errorf("%w: truncated signature", ErrCorrupt)
	}

	r.sigStart = sigStart
	r.sigBytes = r.data[sigStart:sigEnd]
	r.signature = &Signature{Algorithm: alg, HashType: alg.HashType(), Hash: hexUpper(r.sigBytes)}
	return nil
}

// Path returns the file the archive was opened from.
func (r *Reader) Path() string { return r.path }

// Version returns the manifest API version, e.g. "1.1.1".
func (r *Reader) Version() string { return r.version }

// Alias returns the archive alias.
func (r *Reader) Alias() string { return r.alias }

// Stub returns the stub, terminator included.
func (r *Reader) Stub() []byte { return r.data[:r.stubEnd] }

// Compression returns the compression recorded in the global flags. Mixed
// archives report GZ before BZ2.
func (r *Reader) Compression() Compression {
	switch {
	case r.flags&uint32(GZ) != 0:
		return GZ
	case r.flags&uint32(BZ2) != 0:
		return BZ2
	default:
		return None
	}
}

// Signature returns the archive signature, or nil for unsigned archives.
func (r *Reader) Signature() *Signature {
	if r.signature == nil {
		return nil
	}
	s := *r.signature
	return &s
}

// Entries returns the manifest entries sorted by name.
func (r *Reader) Entries() []EntryInfo {
	out := slices.Clone(r.entries)
	slices.SortFunc(out, func(a, b EntryInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Metadata decodes the archive-wide metadata.
func (r *Reader) Metadata() (any, error) {
	return UnmarshalMetadata(r.metadata)
}

// Read returns the uncompressed content of the entry name and checks its CRC.
func (r *Reader) Read(name string) ([]byte, error) {
	i := slices.IndexFunc(r.entries, func(e EntryInfo) bool { return e.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	e := r.entries[i]
	content, err := decompress(e.Compression, r.data[e.offset:e.offset+int(e.CompressedSize)])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	if uint32(len(content)) != e.Size || crc32.ChecksumIEEE(content) != e.CRC32 {
		return nil, fmt.Errorf("%w: %s: CRC32 mismatch", ErrCorrupt, name)
	}
	return content, nil
}

// Verify recomputes the signature. OpenSSL signatures are checked against the
// "<archive>.pubkey" file next to the archive.
func (r *Reader) Verify() error {
	if r.signature == nil {
		return ErrNotSigned
	}
	signed := r.data[:r.sigStart]

	if r.signature.Algorithm == OpenSSL {
		if r.path == "" {
			return errors.New("cannot locate the public key of an in-memory archive")
		}
		pemBytes, err := os.ReadFile(r.path + ".pubkey")
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}
		pub, err := ParsePublicKey(pemBytes)
		if err != nil {
			return err
		}
		return verifyRSA(pub, signed, r.sigBytes)
	}

	sum, err := digest(r.signature.Algorithm, signed)
	if err != nil {
		return err
	}
	if !bytes.Equal(sum, r.sigBytes) {
		return ErrSignatureMismatch
	}
	return nil
}

// ExtractTo writes entries below dir. When picks are given only entries equal
// to a pick, or inside a picked directory, are extracted.
func (r *Reader) ExtractTo(dir string, picks ...string) (int, error) {
	count := 0
	for _, e := range r.Entries() {
		if !picked(e.Name, picks) {
			continue
		}
		if err := types.ArchivePath(e.Name).Validate(); err != nil {
			return count, err
		}
		content, err := r.Read(e.Name)
		if err != nil {
			return count, err
		}
		target := filepath.Join(dir, filepath.FromSlash(e.Name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return count, err
		}
		perm := os.FileMode(e.Perm)
		if perm == 0 {
			perm = DefaultPerm
		}
		if err := os.WriteFile(target, content, perm); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func picked(name string, picks []string) bool {
	if len(picks) == 0 {
		return true
	}
	for _, p := range picks {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if name == p || strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}

// parser reads little-endian manifest fields and remembers the first error.
type parser struct {
	data []byte
	pos  int
	err  error
}

func (p *parser) bytes(n int) []byte {
	if p.err != nil {
		return make([]byte, n)
	}
	if n < 0 || p.pos+n > len(p.data) {
		p.err = errors.New("unexpected end of manifest")
		return make([]byte, max(n, 0))
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b
}

func (p *parser) uint32() uint32 {
	return binary.LittleEndian.Uint32(p.bytes(4))
}

func (p *parser) lengthPrefixed() []byte {
	return p.bytes(int(p.uint32()))
}
