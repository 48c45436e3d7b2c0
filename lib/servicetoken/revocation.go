// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package servicetoken

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/arena-foundation/arena/lib/codec"
)

// RevocationEntry names one token to revoke. ExpiresAt carries the
// token's own expiry so the service's blacklist can drop the entry
// once the token would have died anyway.
type RevocationEntry struct {
	TokenID string `cbor:"1,keyasint"`

	// ExpiresAt is the token's natural expiry, Unix seconds.
	ExpiresAt int64 `cbor:"2,keyasint"`
}

// RevocationRequest is a batch of revocations pushed from the
// operator to the session service. It is signed with the same Ed25519
// key that signs tokens, so the service verifies both with one public
// key.
type RevocationRequest struct {
	Entries []RevocationEntry `cbor:"1,keyasint"`

	// IssuedAt is when the operator built the batch, Unix seconds.
	IssuedAt int64 `cbor:"2,keyasint"`
}

// Errors returned by VerifyRevocation.
var (
	ErrRevocationTooShort  = errors.New("servicetoken: revocation data too short for signature")
	ErrRevocationBadSig    = errors.New("servicetoken: invalid revocation signature")
	ErrRevocationNoEntries = errors.New("servicetoken: revocation request has no entries")
)

// SignRevocation signs a revocation batch. The wire format matches
// token minting: CBOR payload followed by a 64-byte signature.
func SignRevocation(privateKey ed25519.PrivateKey, request *RevocationRequest) ([]byte, error) {
	signed, err := signPayload(privateKey, request)
	if err != nil {
		return nil, fmt.Errorf("servicetoken: encoding revocation request: %w", err)
	}
	return signed, nil
}

// VerifyRevocation checks the signature on a signed revocation batch
// and decodes it. An empty batch is rejected.
func VerifyRevocation(publicKey ed25519.PublicKey, data []byte) (*RevocationRequest, error) {
	payload, err := openSigned(publicKey, data, ErrRevocationTooShort, ErrRevocationBadSig)
	if err != nil {
		return nil, err
	}

	var request RevocationRequest
	if err := codec.Unmarshal(payload, &request); err != nil {
		return nil, fmt.Errorf("servicetoken: decoding revocation request: %w", err)
	}
	if len(request.Entries) == 0 {
		return nil, ErrRevocationNoEntries
	}
	return &request, nil
}
