// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive builds and opens sealed session archive files.
//
// When finished sessions are compacted out of the registry, their
// records are framed into a body, compressed with a probe-selected
// algorithm (zstd for the usual CBOR-heavy case, lz4 when the ratio is
// marginal, none when incompressible), and sealed with
// XChaCha20-Poly1305 under a key HKDF-derived from the service archive
// key and the body's BLAKE3 content id. The plaintext header (magic,
// version, compression tag, record count, uncompressed size, content
// id) doubles as the AEAD's additional authenticated data, so
// tampering with any header field fails authentication.
//
// Key exports:
//
//   - [KeySet] -- holds the archive key, [KeySet.Seal] and
//     [KeySet.Open] round-trip record batches
//   - [ParseHeader] -- identify an archive file without the key
//   - [Compress] / [Decompress] / [CompressAuto] -- body compression
//   - [ContentID] -- BLAKE3 content address, names archive files
//
// Key material lives in lib/secret buffers (mmap-backed, locked
// against swap, zeroed on close). Records are opaque bytes here; the
// session service encodes them as deterministic CBOR.
package archive
