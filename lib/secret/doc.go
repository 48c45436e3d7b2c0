// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data:
// archive keys, token signing seeds, and age identities.
//
// [Buffer] allocates memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock
// (preventing swap), and marks it excluded from core dumps via
// madvise(MADV_DONTDUMP). On Close, the memory is zeroed, unlocked,
// and unmapped. Because the memory lives outside the Go heap, the
// garbage collector cannot copy or relocate it, so secret material
// does not persist after release.
//
// Constructors:
//
//   - [New] allocates a zero-filled buffer of a given size
//   - [NewFromBytes] copies into protected memory and zeros the source
//   - [ReadFromPath] reads a key file (or stdin) into a buffer
//
// Access via [Buffer.Bytes] (a slice into the mmap region) or
// [Buffer.String] (a heap copy, for API boundaries that require
// strings). [Buffer.Equal] compares in constant time. After Close,
// any access panics; Close is idempotent.
//
// Depends on golang.org/x/sys/unix only. Imported by lib/sealed and
// lib/archive for key material.
package secret
