// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption and decryption for Arena key
// backups. It wraps filippo.io/age for the specific operations the key
// backup flow needs: generate x25519 keypairs, encrypt to multiple
// recipients, and decrypt with a private key.
//
// Ciphertext uses the age armored format, so backup files are plain
// text and interoperable with the reference age CLI. Callers pass
// plaintext []byte to [Encrypt] and receive an armored string; [Decrypt]
// accepts an armored string and returns plaintext. Private keys and
// decrypted plaintext are returned as [secret.Buffer] values backed by
// mmap memory outside the Go heap (locked against swap, excluded from
// core dumps, zeroed on Close).
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [Encrypt] -- encrypt to age public key recipients
//   - [Decrypt] -- decrypt with a secret.Buffer key
//   - [ParsePublicKey] / [ParsePrivateKey] -- key validation
//
// Used by the "arena key backup" and "arena key restore" commands to
// seal the service's token-signing keypair and archive key to operator
// escrow recipients.
//
// Depends on lib/secret for secure memory allocation.
package sealed
