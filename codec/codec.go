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

// Package codec encodes well-formed session commands and decodes whatever
// bytes sit in a command buffer, header first and session second.
//
// The wire layout is
//
//	tag          u16, big-endian
//	size         u32, big-endian
//	command code u16, big-endian
//	nonce length u8
//	nonce        nonce length bytes
package codec

import (
	"errors"
	"fmt"

	"github.com/google/go-tpm-fuzz/tpmutil"
)

const (
	// TagNoSessions is the tag of every generated command.
	TagNoSessions tpmutil.Tag = 0x8001
	// CodeSession is the command code of every generated command.
	CodeSession tpmutil.CommandCode = 0x0001

	// MaxNonceSize is the largest nonce an 8-bit length can describe.
	MaxNonceSize = 0xff

	// sessionOffset is where the nonce length byte lives.
	sessionOffset = tpmutil.HeaderSize
	// declaredOverhead is added to the nonce length to form the declared
	// size: a 10-byte TPM 2.0 style header plus the nonce length byte. The
	// encoded header is only 8 bytes, so well-formed commands declare two
	// bytes more than they carry.
	declaredOverhead = 10 + 1
)

var (
	// ErrMalformed indicates structurally inconsistent command fields.
	ErrMalformed = errors.New("malformed command")
	// ErrNonceTooLong is returned by Encode for nonces an 8-bit length
	// cannot describe.
	ErrNonceTooLong = errors.New("nonce too long")
)

// Command is the logical content of a session command.
type Command struct {
	Tag   tpmutil.Tag
	Size  uint32
	Code  tpmutil.CommandCode
	Nonce []byte
}

// Marshal packs c exactly as given. Size is written verbatim, which lets
// callers build commands whose declared size lies about their content.
func Marshal(c Command) ([]byte, error) {
	if len(c.Nonce) > MaxNonceSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrNonceTooLong, len(c.Nonce), MaxNonceSize)
	}
	hdr := tpmutil.CommandHeader{Tag: c.Tag, Size: c.Size, Code: c.Code}
	return tpmutil.Pack(hdr, tpmutil.U8Bytes(c.Nonce))
}

// Encode builds a well-formed command carrying nonce.
func Encode(nonce []byte) ([]byte, error) {
	return Marshal(Command{
		Tag:   TagNoSessions,
		Size:  uint32(declaredOverhead + len(nonce)),
		Code:  CodeSession,
		Nonce: nonce,
	})
}

// EncodedLen returns the length of Encode's output for a nonce of n bytes.
func EncodedLen(n int) int {
	return tpmutil.HeaderSize + 1 + n
}
