// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package entropy provides the seed source behind session identifier
// generation. The orchestrator is built against the Source interface;
// production injects System() and tests inject Fixed() for
// reproducible identifiers.
package entropy

import (
	"crypto/rand"
	"fmt"

	"github.com/zeebo/blake3"
)

// SeedSize is the size in bytes of a seed.
const SeedSize = 32

// Source produces 32-byte seeds, domain-separated by a caller chosen
// tag: the same source yields unrelated seed streams for different
// tags, so two subsystems can never be tricked into consuming each
// other's randomness.
type Source interface {
	Seed(tag string) ([SeedSize]byte, error)
}

// System returns the production source: kernel randomness mixed
// through a BLAKE3 keyed hash under the tag's domain key.
func System() Source { return systemSource{} }

type systemSource struct{}

func (systemSource) Seed(tag string) ([SeedSize]byte, error) {
	var material [SeedSize]byte
	if _, err := rand.Read(material[:]); err != nil {
		return [SeedSize]byte{}, fmt.Errorf("reading system randomness: %w", err)
	}
	return mix(tag, material[:]), nil
}

// Fixed returns a deterministic source: every Seed call derives the
// same value from the given material and the tag. Distinct tags
// still produce distinct seeds. For tests.
func Fixed(material []byte) Source {
	return fixedSource{material: append([]byte(nil), material...)}
}

type fixedSource struct {
	material []byte
}

func (f fixedSource) Seed(tag string) ([SeedSize]byte, error) {
	return mix(tag, f.material), nil
}

// Failing returns a source whose Seed always returns err. For
// error-path tests.
func Failing(err error) Source { return failingSource{err: err} }

type failingSource struct {
	err error
}

func (f failingSource) Seed(string) ([SeedSize]byte, error) {
	return [SeedSize]byte{}, f.err
}

// mix runs material through a BLAKE3 keyed hash under the tag's
// domain key.
func mix(tag string, material []byte) [SeedSize]byte {
	key := tagKey(tag)
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails on wrong key length; tagKey is fixed
		// size.
		panic("entropy: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(material)
	var seed [SeedSize]byte
	copy(seed[:], hasher.Sum(nil))
	return seed
}

// tagKey turns a tag into a 32-byte BLAKE3 key: short ASCII tags are
// zero-padded so the key stays inspectable in hex dumps; longer tags
// are hashed down.
func tagKey(tag string) [32]byte {
	var key [32]byte
	if len(tag) <= len(key) {
		copy(key[:], tag)
		return key
	}
	return blake3.Sum256([]byte(tag))
}
