// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/arena-foundation/arena/lib/secret"
)

// KeySize is the size in bytes of the archive key and of every derived
// per-archive key.
const KeySize = 32

// SealOverhead is the byte overhead of the sealed payload beyond the
// compressed body: 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
// A full archive file is HeaderSize + SealOverhead bytes larger than
// its compressed body.
const SealOverhead = chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoArchive is the "info" parameter prefix for HKDF-SHA256,
// providing domain separation for archive key derivation. Changing it
// invalidates every existing archive file.
var hkdfInfoArchive = []byte("arena.archive.enc.v1")

// DeriveContentKey derives the per-archive encryption key from the
// service archive key and the archive's content id. The same body
// always derives the same key, so re-archiving identical records
// yields a file an operator can deduplicate by name.
//
// The masterKey is borrowed (read via .Bytes()) and is NOT closed by
// this function. The returned Buffer must be closed by the caller.
func DeriveContentKey(masterKey *secret.Buffer, contentID ContentID) (*secret.Buffer, error) {
	info := make([]byte, len(hkdfInfoArchive)+len(contentID))
	copy(info, hkdfInfoArchive)
	copy(info[len(hkdfInfoArchive):], contentID[:])
	return deriveKey(masterKey.Bytes(), info)
}

// deriveKey is the HKDF-SHA256 derivation shared by all key paths. It
// derives a 32-byte key from inputKeyMaterial using the given info
// parameter. The salt is nil: the archive key is already uniformly
// random, so HKDF's extract phase with nil salt (HMAC-SHA256 with zero
// key) is appropriate per RFC 5869.
func deriveKey(inputKeyMaterial []byte, info []byte) (*secret.Buffer, error) {
	reader := hkdf.New(sha256.New, inputKeyMaterial, nil, info)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	// NewFromBytes copies into mmap and zeros the heap slice.
	return secret.NewFromBytes(derived)
}

// KeySet holds the service archive key in guarded memory and seals and
// opens archive containers with keys derived from it.
//
// The archive key is read from the key file named in the service
// config (or generated on first start) and held in a secret.Buffer
// (mmap-backed, mlock'd, excluded from core dumps, zeroed on close).
//
// KeySet does not cache derived keys. Each Seal or Open performs a
// fresh HKDF derivation, which costs about a microsecond — negligible
// next to the AEAD pass and the file I/O around it.
//
// Close zeroes and releases the archive key. After Close, all methods
// panic (via secret.Buffer's closed check).
type KeySet struct {
	masterKey *secret.Buffer
}

// NewKeySet creates a key set from a service archive key. The
// masterKey buffer is owned by the KeySet and will be closed when
// Close is called. The caller must not use masterKey after passing it
// to this function.
//
// Returns an error if masterKey is not exactly KeySize (32) bytes.
func NewKeySet(masterKey *secret.Buffer) (*KeySet, error) {
	if masterKey.Len() != KeySize {
		return nil, fmt.Errorf("archive key must be %d bytes, got %d", KeySize, masterKey.Len())
	}
	return &KeySet{masterKey: masterKey}, nil
}

// Close zeroes and releases the archive key. After Close, Seal and
// Open will panic. Idempotent.
func (keySet *KeySet) Close() error {
	return keySet.masterKey.Close()
}

// Seal builds a complete archive container from a batch of records.
// The records are framed, hashed (the BLAKE3 content id), compressed
// with the probe-selected algorithm, and sealed with
// XChaCha20-Poly1305 under a key derived from the content id. The
// full header is the AEAD's additional authenticated data, so any
// header tampering fails Open.
//
// The returned bytes are the complete archive file. The content id
// names the file on disk.
func (keySet *KeySet) Seal(records [][]byte) ([]byte, ContentID, error) {
	body := frameRecords(records)
	contentID := ComputeContentID(body)

	compressed, tag, err := CompressAuto(body)
	if err != nil {
		return nil, ContentID{}, fmt.Errorf("compressing archive body: %w", err)
	}

	headerBytes := encodeHeader(Header{
		Version:          ContainerVersion,
		Compression:      tag,
		RecordCount:      uint32(len(records)),
		UncompressedSize: uint64(len(body)),
		ContentID:        contentID,
	})

	encryptionKey, err := DeriveContentKey(keySet.masterKey, contentID)
	if err != nil {
		return nil, ContentID{}, fmt.Errorf("deriving archive content key: %w", err)
	}
	defer encryptionKey.Close()

	aead, err := chacha20poly1305.NewX(encryptionKey.Bytes())
	if err != nil {
		return nil, ContentID{}, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, ContentID{}, fmt.Errorf("generating random nonce: %w", err)
	}

	container := make([]byte, 0, HeaderSize+SealOverhead+len(compressed))
	container = append(container, headerBytes[:]...)
	container = append(container, nonce[:]...)
	container = aead.Seal(container, nonce[:], compressed, headerBytes[:])
	return container, contentID, nil
}

// Open authenticates and decrypts an archive container produced by
// Seal, returning the archived records and the verified header.
//
// Returns an error if:
//   - The container is malformed (bad magic, unsupported version,
//     truncated payload)
//   - AEAD authentication fails (wrong key or tampered file — header
//     fields included)
//   - The decompressed body does not match the header's size or
//     content id
func (keySet *KeySet) Open(container []byte) ([][]byte, Header, error) {
	header, err := ParseHeader(container)
	if err != nil {
		return nil, Header{}, err
	}

	payload := container[HeaderSize:]
	if len(payload) < SealOverhead {
		return nil, Header{}, fmt.Errorf("sealed payload is %d bytes, minimum is %d (nonce + tag)",
			len(payload), SealOverhead)
	}
	nonce := payload[:chacha20poly1305.NonceSizeX]
	ciphertext := payload[chacha20poly1305.NonceSizeX:]

	encryptionKey, err := DeriveContentKey(keySet.masterKey, header.ContentID)
	if err != nil {
		return nil, Header{}, fmt.Errorf("deriving archive content key: %w", err)
	}
	defer encryptionKey.Close()

	aead, err := chacha20poly1305.NewX(encryptionKey.Bytes())
	if err != nil {
		return nil, Header{}, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	compressed, err := aead.Open(nil, nonce, ciphertext, container[:HeaderSize])
	if err != nil {
		return nil, Header{}, fmt.Errorf("AEAD decryption failed (wrong key or tampered archive): %w", err)
	}

	body, err := Decompress(compressed, header.Compression, int(header.UncompressedSize))
	if err != nil {
		return nil, Header{}, fmt.Errorf("decompressing archive body: %w", err)
	}

	// The AEAD already authenticated the compressed payload and the
	// header. Recomputing the content id catches a sealing bug where
	// the header id never matched the body.
	if ComputeContentID(body) != header.ContentID {
		return nil, Header{}, fmt.Errorf("archive body does not match its content id")
	}

	records, err := splitRecords(body, header.RecordCount)
	if err != nil {
		return nil, Header{}, err
	}
	return records, header, nil
}
