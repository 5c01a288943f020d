// Copyright (c) 2026, Google LLC All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mutator generates well-formed session commands and corrupts them
// byte by byte.
package mutator

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/go-tpm-fuzz/codec"
)

// ErrInvalidInput indicates a mutator precondition was violated by the
// caller.
var ErrInvalidInput = errors.New("invalid mutator input")

// DefaultMaxNonce is the largest nonce Base generates.
const DefaultMaxNonce = 64

// Mutator draws all of its randomness from the generator it was built with,
// so a seeded generator reproduces a run exactly. It is not safe for
// concurrent use.
type Mutator struct {
	rng      *rand.Rand
	maxNonce int
}

// New returns a Mutator using rng.
func New(rng *rand.Rand) *Mutator {
	return &Mutator{rng: rng, maxNonce: DefaultMaxNonce}
}

// Base returns a well-formed command whose nonce length is uniform in
// [0, DefaultMaxNonce] and whose nonce bytes are random.
func (m *Mutator) Base() ([]byte, error) {
	nonce := make([]byte, m.rng.Intn(m.maxNonce+1))
	m.rng.Read(nonce)
	return codec.Encode(nonce)
}

// Mutate returns a copy of cmd with k single-byte corruptions, k uniform in
// [1, maxMutations]. Each corruption overwrites a uniformly chosen offset with
// a uniformly chosen byte. The length of cmd never changes.
func (m *Mutator) Mutate(cmd []byte, maxMutations int) ([]byte, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("%w: nothing to mutate in an empty command", ErrInvalidInput)
	}
	if maxMutations < 1 {
		return nil, fmt.Errorf("%w: max mutations must be positive, got %d", ErrInvalidInput, maxMutations)
	}
	out := append([]byte(nil), cmd...)
	k := 1 + m.rng.Intn(maxMutations)
	for i := 0; i < k; i++ {
		out[m.rng.Intn(len(out))] = byte(m.rng.Intn(256))
	}
	return out, nil
}
