// Package snapshot implements a packed binary form of a resolved set plus
// a digest of the input manifest, written after a successful resolution
// and read on the next run to decide whether full resolution can be
// skipped.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"

	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/resolver"
	"github.com/tylerdiaz/supergemlock/internal/version"
)

const (
	magic         = "GRLK"
	formatVersion = uint32(1)
	headerSize    = 4 + 4 + 4 + sha256.Size // magic + format_version + library_count + digest
)

// SourceTag is a library record's one-byte source_tag field. The wire
// format reserves four values though the parsed Source model only carries
// three variants (registry/vcs/path); SourceGitHub is kept distinct for a
// future version that differentiates GitHub-hosted VCS sources from
// generic git remotes, but this writer never emits it: every
// manifest.SourceVCS library is written as SourceGit.
type SourceTag uint8

const (
	SourceRegistryTag SourceTag = 0
	SourceGitHubTag   SourceTag = 1
	SourceGitTag      SourceTag = 2
	SourcePathTag     SourceTag = 3
)

// Digest computes the SHA-256 digest of manifest bytes, used both when
// writing a snapshot and when the fast-path gate checks for a match.
func Digest(manifestBytes []byte) [sha256.Size]byte {
	return sha256.Sum256(manifestBytes)
}

// Record is one entry of a snapshot's library records.
type Record struct {
	Name          string
	Version       version.Version
	SourceTag     SourceTag
	DependencyIdx []uint32
}

// Snapshot is the decoded form of the binary file.
type Snapshot struct {
	InputDigest [sha256.Size]byte
	Records     []Record
}

// Write encodes res as a Snapshot keyed on manifestDigest and atomically
// replaces the file at path. It takes an advisory file lock for the
// duration of the write so a concurrent invocation of the companion CLI
// never observes a half-written snapshot.
func Write(path string, res *resolver.Resolution, manifestDigest [sha256.Size]byte) error {
	lock := flock.NewFlock(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrap(err, "locking snapshot")
	}
	defer lock.Unlock()

	buf := encode(res, manifestDigest)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "creating temp snapshot file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp snapshot file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp snapshot file")
	}

	// Write-then-rename: the temp file lives in the same directory, so the
	// rename replaces path atomically and never leaves a partially written
	// file in place if the process is interrupted mid-write.
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "replacing snapshot file")
	}
	return nil
}

func encode(res *resolver.Resolution, digest [sha256.Size]byte) *bytes.Buffer {
	index := make(map[string]uint32, len(res.Sequence))
	for i, lib := range res.Sequence {
		index[lib.Name] = uint32(i)
	}

	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	writeU32(buf, formatVersion)
	writeU32(buf, uint32(len(res.Sequence)))
	buf.Write(digest[:])

	for _, lib := range res.Sequence {
		name := []byte(lib.Name)
		writeU16(buf, uint16(len(name)))
		writeU64(buf, lib.Version.Pack())
		writeU16(buf, uint16(len(lib.DependencyNames)))
		buf.WriteByte(byte(sourceTagFor(lib.Source)))
		buf.WriteByte(0) // reserved
		buf.Write(name)
		for _, dep := range lib.DependencyNames {
			idx, ok := index[dep]
			if !ok {
				idx = 0 // dependency outside the resolved set: placeholder index
			}
			writeU32(buf, idx)
		}
	}
	return buf
}

func sourceTagFor(src manifest.Source) SourceTag {
	switch src.Kind {
	case manifest.SourceVCS:
		return SourceGitTag
	case manifest.SourcePath:
		return SourcePathTag
	default:
		return SourceRegistryTag
	}
}

// Read decodes the snapshot at path. It returns (nil, nil) if the file does
// not exist, so the fast-path gate can short-circuit straight to a full
// resolution.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading snapshot")
	}
	return decode(data)
}

func decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize {
		return nil, errors.New("snapshot too short")
	}
	if string(data[0:4]) != magic {
		return nil, errors.New("snapshot magic mismatch")
	}
	if binary.LittleEndian.Uint32(data[4:8]) != formatVersion {
		return nil, errors.New("snapshot format version mismatch")
	}
	count := binary.LittleEndian.Uint32(data[8:12])

	var digest [sha256.Size]byte
	copy(digest[:], data[12:12+sha256.Size])

	snap := &Snapshot{InputDigest: digest}
	off := headerSize
	for i := uint32(0); i < count; i++ {
		rec, next, err := decodeRecord(data, off)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding record %d", i)
		}
		snap.Records = append(snap.Records, rec)
		off = next
	}
	return snap, nil
}

func decodeRecord(data []byte, off int) (Record, int, error) {
	if off+2+8+2+1+1 > len(data) {
		return Record{}, 0, errors.New("truncated record header")
	}
	nameLen := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	packed := binary.LittleEndian.Uint64(data[off:])
	off += 8
	depCount := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	tag := SourceTag(data[off])
	off++
	off++ // reserved

	if off+nameLen > len(data) {
		return Record{}, 0, errors.New("truncated record name")
	}
	name := string(data[off : off+nameLen])
	off += nameLen

	if off+depCount*4 > len(data) {
		return Record{}, 0, errors.New("truncated dependency indices")
	}
	deps := make([]uint32, depCount)
	for i := 0; i < depCount; i++ {
		deps[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	return Record{
		Name:          name,
		Version:       version.Unpack(packed),
		SourceTag:     tag,
		DependencyIdx: deps,
	}, off, nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// Gate implements the fast-path check. ShouldSkip never mutates on-disk
// state.
type Gate struct {
	SnapshotPath string
}

// ShouldSkip reports whether resolution can be skipped because the current
// manifest bytes match the stored snapshot's input digest.
func (g Gate) ShouldSkip(manifestBytes []byte) (bool, error) {
	snap, err := Read(g.SnapshotPath)
	if err != nil {
		// A corrupt or unreadable snapshot is not a hard failure: fall
		// through to a full resolution.
		return false, nil //nolint:nilerr // fast-path mismatch is not a failure
	}
	if snap == nil {
		return false, nil
	}
	digest := Digest(manifestBytes)
	return bytes.Equal(snap.InputDigest[:], digest[:]), nil
}

// Write is a thin convenience wrapper so callers (the orchestrator) only
// import this package once for both writing and gating.
func (g Gate) Write(res *resolver.Resolution, manifestBytes []byte) error {
	return Write(g.SnapshotPath, res, Digest(manifestBytes))
}
