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

// Package cmdbuf holds a fixed-capacity command buffer that untrusted command
// bytes are loaded into before parsing.
package cmdbuf

import (
	"errors"
	"fmt"
)

// ErrOverflow indicates that an access or a load would cross the buffer's
// physical capacity.
var ErrOverflow = errors.New("command buffer overflow")

// OverflowError describes a rejected access. It matches ErrOverflow under
// errors.Is.
type OverflowError struct {
	Offset   int
	Length   int
	Capacity int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%v: range [%d, %d+%d) exceeds capacity %d", ErrOverflow, e.Offset, e.Offset, e.Length, e.Capacity)
}

// Is reports whether target is ErrOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// Buffer is a zero-filled byte array of fixed capacity plus the length of the
// command currently loaded into it. Bytes past the loaded length are always
// zero.
//
// A Buffer is not safe for concurrent use; every fuzzing worker owns its own.
type Buffer struct {
	data   []byte
	loaded int
}

// New creates a zero-filled buffer with the given capacity.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	return &Buffer{data: make([]byte, capacity)}, nil
}

// Cap returns the physical capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the length of the currently loaded command.
func (b *Buffer) Len() int { return b.loaded }

// Load zeroes the buffer and copies cmd into its front. It fails with an
// *OverflowError, leaving the buffer untouched, when cmd is longer than the
// capacity.
func (b *Buffer) Load(cmd []byte) error {
	if len(cmd) > len(b.data) {
		return &OverflowError{Offset: 0, Length: len(cmd), Capacity: len(b.data)}
	}
	b.Clear()
	copy(b.data, cmd)
	b.loaded = len(cmd)
	return nil
}

// Clear resets every byte to zero and forgets the loaded command.
func (b *Buffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.loaded = 0
}

// ReadRange returns a copy of length bytes starting at offset. The range is
// checked against the physical capacity rather than the loaded length, so a
// declared size that overstates the loaded command reads zeros but never
// leaves the allocation.
func (b *Buffer) ReadRange(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset > len(b.data)-length {
		return nil, &OverflowError{Offset: offset, Length: length, Capacity: len(b.data)}
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// ByteAt returns the byte at offset.
func (b *Buffer) ByteAt(offset int) (byte, error) {
	if offset < 0 || offset >= len(b.data) {
		return 0, &OverflowError{Offset: offset, Length: 1, Capacity: len(b.data)}
	}
	return b.data[offset], nil
}

// Bytes returns a copy of the loaded command.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.data[:b.loaded]...)
}
