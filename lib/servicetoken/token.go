// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package servicetoken

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/glob"
	"github.com/arena-foundation/arena/lib/ref"
)

// signatureSize is the fixed size of an Ed25519 signature.
const signatureSize = ed25519.SignatureSize // 64 bytes

// Grant is the authorization grant embedded in a service token.
type Grant struct {
	// Actions is a list of action path patterns (glob syntax), e.g.
	// "session/queue" or "session/**".
	Actions []string `cbor:"1,keyasint"`

	// Targets is a list of account handle patterns (glob syntax).
	// Operations that act on an account other than the token subject
	// (queueing or dropping someone else) check the affected handle
	// against these patterns. Self-service operations ignore Targets.
	Targets []string `cbor:"2,keyasint,omitempty"`
}

// Token is the CBOR-encoded payload of a service identity token.
type Token struct {
	// Subject is the account the token authenticates. Participants
	// queue and drop as this account; executors acknowledge, ready,
	// and finish sessions as this account.
	Subject ref.AccountID `cbor:"1,keyasint"`

	// Audience is the service role this token is scoped to (e.g.,
	// "session"). A token for the session service cannot be used
	// against any other service.
	Audience string `cbor:"2,keyasint"`

	// Grants are the pre-resolved grants for this service. The
	// operator scopes them per account when minting.
	Grants []Grant `cbor:"3,keyasint,omitempty"`

	// ID is a unique token identifier (hex string). Used for
	// emergency revocation via the Blacklist.
	ID string `cbor:"4,keyasint"`

	// IssuedAt is a Unix timestamp (seconds) of when the token was
	// minted.
	IssuedAt int64 `cbor:"5,keyasint"`

	// ExpiresAt is a Unix timestamp (seconds) after which this
	// token is no longer valid.
	ExpiresAt int64 `cbor:"6,keyasint"`
}

// Errors returned by Verify and related functions.
var (
	ErrTokenTooShort    = errors.New("servicetoken: token too short for signature")
	ErrInvalidSignature = errors.New("servicetoken: invalid Ed25519 signature")
	ErrTokenExpired     = errors.New("servicetoken: token has expired")
	ErrAudienceMismatch = errors.New("servicetoken: audience does not match")
	ErrTokenRevoked     = errors.New("servicetoken: token has been revoked")
)

// Mint signs a Token with the signing private key and returns the raw
// wire-format bytes: CBOR-encoded payload followed by the 64-byte
// Ed25519 signature.
func Mint(privateKey ed25519.PrivateKey, token *Token) ([]byte, error) {
	signed, err := signPayload(privateKey, token)
	if err != nil {
		return nil, fmt.Errorf("servicetoken: encoding token payload: %w", err)
	}
	return signed, nil
}

// Verify splits the raw token bytes, verifies the Ed25519 signature,
// CBOR-decodes the payload, and checks expiry. Returns the decoded
// Token on success.
//
// The caller should additionally check the Audience field against the
// expected service role and consult the Blacklist for revoked token IDs.
func Verify(publicKey ed25519.PublicKey, tokenBytes []byte) (*Token, error) {
	return VerifyAt(publicKey, tokenBytes, time.Now())
}

// VerifyAt is like Verify but accepts an explicit time for expiry
// checks. This supports deterministic testing.
func VerifyAt(publicKey ed25519.PublicKey, tokenBytes []byte, now time.Time) (*Token, error) {
	payload, err := openSigned(publicKey, tokenBytes, ErrTokenTooShort, ErrInvalidSignature)
	if err != nil {
		return nil, err
	}

	var token Token
	if err := codec.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("servicetoken: decoding token payload: %w", err)
	}

	if now.Unix() >= token.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &token, nil
}

// VerifyForService combines Verify with an audience check. This is the
// standard verification path for services: verify signature, check
// expiry, and confirm the token is scoped to this service.
func VerifyForService(publicKey ed25519.PublicKey, tokenBytes []byte, expectedAudience string) (*Token, error) {
	return VerifyForServiceAt(publicKey, tokenBytes, expectedAudience, time.Now())
}

// VerifyForServiceAt is like VerifyForService but accepts an explicit time.
func VerifyForServiceAt(publicKey ed25519.PublicKey, tokenBytes []byte, expectedAudience string, now time.Time) (*Token, error) {
	token, err := VerifyAt(publicKey, tokenBytes, now)
	if err != nil {
		return nil, err
	}

	if token.Audience != expectedAudience {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrAudienceMismatch, token.Audience, expectedAudience)
	}

	return token, nil
}

// GrantsAllow checks whether the token's embedded grants authorize a
// specific action on a specific target account handle.
//
// For self-service actions (empty target), only the action patterns
// are checked. For actions on another account, both action and target
// patterns must match. A grant with no Targets authorizes only
// self-service actions.
func GrantsAllow(grants []Grant, action, target string) bool {
	selfService := target == ""
	for _, grant := range grants {
		if !glob.MatchAnyPattern(grant.Actions, action) {
			continue
		}
		if selfService {
			return true
		}
		if len(grant.Targets) == 0 {
			continue
		}
		if glob.MatchAnyPattern(grant.Targets, target) {
			return true
		}
	}
	return false
}
