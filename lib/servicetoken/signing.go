// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package servicetoken

import (
	"crypto/ed25519"

	"github.com/arena-foundation/arena/lib/codec"
)

// Tokens and revocation batches share one wire shape: the
// CBOR-encoded payload followed by a 64-byte Ed25519 signature over
// exactly those payload bytes.

// signPayload encodes v and appends its signature.
func signPayload(privateKey ed25519.PrivateKey, v any) ([]byte, error) {
	payload, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	signed := make([]byte, 0, len(payload)+signatureSize)
	signed = append(signed, payload...)
	signed = append(signed, ed25519.Sign(privateKey, payload)...)
	return signed, nil
}

// openSigned splits signed data and verifies the signature, returning
// the payload bytes. The caller supplies its own sentinel errors for
// the two failure modes so token and revocation verification stay
// distinguishable.
func openSigned(publicKey ed25519.PublicKey, data []byte, tooShort, badSignature error) ([]byte, error) {
	if len(data) <= signatureSize {
		return nil, tooShort
	}
	split := len(data) - signatureSize
	payload, signature := data[:split], data[split:]
	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, badSignature
	}
	return payload, nil
}
