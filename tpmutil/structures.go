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

package tpmutil

import (
	"encoding/binary"
	"fmt"
	"io"
)

// RawBytes is for Pack arguments that are already encoded. Compared to
// U8Bytes, RawBytes will not be prepended with a length during encoding.
type RawBytes []byte

// U8Bytes is a byte slice with an 8-bit length header, the layout of the
// session nonce.
type U8Bytes []byte

// TPMMarshal packs U8Bytes.
func (b *U8Bytes) TPMMarshal(out io.Writer) error {
	if len(*b) > 0xff {
		return fmt.Errorf("U8Bytes of length %d does not fit an 8-bit length header", len(*b))
	}
	if err := binary.Write(out, binary.BigEndian, uint8(len(*b))); err != nil {
		return err
	}
	_, err := out.Write(*b)
	return err
}

// TPMUnmarshal unpacks a U8Bytes.
func (b *U8Bytes) TPMUnmarshal(in io.Reader) error {
	var size uint8
	if err := binary.Read(in, binary.BigEndian, &size); err != nil {
		return err
	}
	buf := make([]byte, int(size))
	if _, err := io.ReadFull(in, buf); err != nil {
		return err
	}
	*b = buf
	return nil
}

// Tag is a command tag.
type Tag uint16

// CommandCode identifies the command carried in a CommandHeader.
type CommandCode uint16

// CommandHeader is the fixed-size header that starts every command.
type CommandHeader struct {
	Tag  Tag
	Size uint32
	Code CommandCode
}

// HeaderSize is the encoded size of a CommandHeader.
const HeaderSize = 8

// ResponseCode is a response code returned by TPM.
type ResponseCode uint32

// RCSuccess is response code for successful command. Identical for TPM 1.2 and
// 2.0.
const RCSuccess ResponseCode = 0x000

// ResponseHeader is the header of a TPM response.
type ResponseHeader struct {
	Tag  Tag
	Size uint32
	Res  ResponseCode
}

// ResponseHeaderSize is the encoded size of a ResponseHeader.
const ResponseHeaderSize = 10

// SelfMarshaler allows custom types to override default encoding/decoding
// behavior in Pack, Unpack and UnpackBuf.
type SelfMarshaler interface {
	TPMMarshal(out io.Writer) error
	TPMUnmarshal(in io.Reader) error
}
