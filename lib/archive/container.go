// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Container format constants. The header is plaintext (an operator can
// identify an archive file without the key) but is bound into the AEAD
// as additional authenticated data, so tampering with any header field
// fails authentication on open.
const (
	// ContainerVersion is the container format version byte.
	ContainerVersion byte = 0x01

	// HeaderSize is the fixed size of the container header:
	// 4 (magic) + 1 (version) + 1 (compression tag) +
	// 4 (record count) + 8 (uncompressed size) + 32 (content id).
	HeaderSize = 4 + 1 + 1 + 4 + 8 + 32
)

// containerMagic identifies an Arena archive file.
var containerMagic = [4]byte{'A', 'R', 'N', 'A'}

// ContentID is the 32-byte BLAKE3 hash of an archive's plaintext body
// (the framed record bytes, before compression). It names the archive
// file on disk and binds the sealed payload to its content: the AEAD
// key is derived from it and the header carrying it is authenticated.
type ContentID [32]byte

// ComputeContentID hashes an archive body with BLAKE3.
func ComputeContentID(body []byte) ContentID {
	return blake3.Sum256(body)
}

// String returns the lowercase hex form of the content id.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseContentID parses a 64-character hex string into a ContentID.
func ParseContentID(text string) (ContentID, error) {
	var id ContentID
	if len(text) != hex.EncodedLen(len(id)) {
		return ContentID{}, fmt.Errorf("content id must be %d hex characters, got %d",
			hex.EncodedLen(len(id)), len(text))
	}
	if _, err := hex.Decode(id[:], []byte(text)); err != nil {
		return ContentID{}, fmt.Errorf("invalid content id: %w", err)
	}
	return id, nil
}

// Header is the plaintext container header. It is authenticated but
// not encrypted: ParseHeader works without the archive key, so tooling
// can identify a file before deciding to decrypt it.
type Header struct {
	// Version is the container format version.
	Version byte

	// Compression is the algorithm applied to the body before sealing.
	Compression CompressionTag

	// RecordCount is the number of records framed in the body.
	RecordCount uint32

	// UncompressedSize is the exact byte length of the plaintext body.
	UncompressedSize uint64

	// ContentID is the BLAKE3 hash of the plaintext body.
	ContentID ContentID
}

// encodeHeader serializes a header into its fixed wire form.
func encodeHeader(header Header) [HeaderSize]byte {
	var out [HeaderSize]byte
	copy(out[0:4], containerMagic[:])
	out[4] = header.Version
	out[5] = byte(header.Compression)
	binary.BigEndian.PutUint32(out[6:10], header.RecordCount)
	binary.BigEndian.PutUint64(out[10:18], header.UncompressedSize)
	copy(out[18:50], header.ContentID[:])
	return out
}

// ParseHeader reads and validates the container header from the start
// of an archive file. Returns an error if the data is too short, the
// magic does not match, or the version is unsupported.
//
// A successfully parsed header is not yet trustworthy: the fields are
// only authenticated once Open verifies the AEAD tag.
func ParseHeader(container []byte) (Header, error) {
	if len(container) < HeaderSize {
		return Header{}, fmt.Errorf("archive is %d bytes, header alone is %d", len(container), HeaderSize)
	}
	if !bytes.Equal(container[0:4], containerMagic[:]) {
		return Header{}, fmt.Errorf("not an arena archive (bad magic)")
	}

	header := Header{
		Version:          container[4],
		Compression:      CompressionTag(container[5]),
		RecordCount:      binary.BigEndian.Uint32(container[6:10]),
		UncompressedSize: binary.BigEndian.Uint64(container[10:18]),
	}
	copy(header.ContentID[:], container[18:50])

	if header.Version != ContainerVersion {
		return Header{}, fmt.Errorf("archive version %d is not supported (expected %d)",
			header.Version, ContainerVersion)
	}
	return header, nil
}

// frameRecords concatenates records into the archive body: each record
// is a 4-byte big-endian length prefix followed by its bytes.
func frameRecords(records [][]byte) []byte {
	total := 0
	for _, record := range records {
		total += 4 + len(record)
	}

	body := make([]byte, 0, total)
	var length [4]byte
	for _, record := range records {
		binary.BigEndian.PutUint32(length[:], uint32(len(record)))
		body = append(body, length[:]...)
		body = append(body, record...)
	}
	return body
}

// splitRecords reverses frameRecords. The record count must match
// exactly — the body is authenticated before this runs, so a mismatch
// means a sealing bug, not tampering.
func splitRecords(body []byte, recordCount uint32) ([][]byte, error) {
	records := make([][]byte, 0, recordCount)
	rest := body
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, fmt.Errorf("truncated record frame: %d trailing bytes", len(rest))
		}
		length := binary.BigEndian.Uint32(rest[0:4])
		rest = rest[4:]
		if uint64(length) > uint64(len(rest)) {
			return nil, fmt.Errorf("record %d length %d exceeds remaining %d bytes",
				len(records), length, len(rest))
		}
		records = append(records, rest[:length:length])
		rest = rest[length:]
	}

	if uint32(len(records)) != recordCount {
		return nil, fmt.Errorf("archive frames %d records, header says %d", len(records), recordCount)
	}
	return records, nil
}
