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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type simplePacked struct {
	A uint32
	B uint32
}

type nestedPacked struct {
	SP simplePacked
	C  uint16
}

func TestPackCommandHeader(t *testing.T) {
	ch := CommandHeader{Tag: 0x8001, Size: 0x0b, Code: 0x0001}
	b, err := Pack(ch)
	if err != nil {
		t.Fatalf("Pack(%v) = %v", ch, err)
	}
	want := []byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0b, 0x00, 0x01}
	if !bytes.Equal(b, want) {
		t.Errorf("Pack(%v) = %x, want %x", ch, b, want)
	}
	if len(b) != HeaderSize {
		t.Errorf("len(Pack(header)) = %d, want HeaderSize %d", len(b), HeaderSize)
	}

	var got CommandHeader
	n, err := Unpack(b, &got)
	if err != nil {
		t.Fatalf("Unpack() = %v", err)
	}
	if n != HeaderSize {
		t.Errorf("Unpack() read %d bytes, want %d", n, HeaderSize)
	}
	if diff := cmp.Diff(ch, got); diff != "" {
		t.Errorf("Unpack() mismatch (-want +got):\n%s", diff)
	}
}

func TestPackU8Bytes(t *testing.T) {
	nonce := U8Bytes{1, 2, 3}
	b, err := Pack(nonce)
	if err != nil {
		t.Fatalf("Pack(U8Bytes) = %v", err)
	}
	if want := []byte{3, 1, 2, 3}; !bytes.Equal(b, want) {
		t.Errorf("Pack(U8Bytes) = %x, want %x", b, want)
	}

	var got U8Bytes
	if _, err := Unpack(b, &got); err != nil {
		t.Fatalf("Unpack(U8Bytes) = %v", err)
	}
	if !bytes.Equal(got, nonce) {
		t.Errorf("Unpack(U8Bytes) = %x, want %x", got, nonce)
	}

	// A declared length with too few bytes behind it must fail.
	if _, err := Unpack([]byte{4, 1, 2}, &got); err == nil {
		t.Error("Unpack(U8Bytes) succeeded on a truncated payload")
	}
}

func TestPackU8BytesTooLong(t *testing.T) {
	if _, err := Pack(U8Bytes(make([]byte, 256))); err == nil {
		t.Error("Pack() succeeded for a 256 byte U8Bytes")
	}
}

func TestPackRawBytes(t *testing.T) {
	b, err := Pack(uint8(7), RawBytes{0xaa, 0xbb})
	if err != nil {
		t.Fatalf("Pack() = %v", err)
	}
	if want := []byte{7, 0xaa, 0xbb}; !bytes.Equal(b, want) {
		t.Errorf("Pack() = %x, want %x", b, want)
	}
}

func TestUnpackNested(t *testing.T) {
	np := nestedPacked{simplePacked{137, 138}, 139}
	b, err := Pack(np)
	if err != nil {
		t.Fatalf("Pack() = %v", err)
	}
	var got nestedPacked
	if _, err := Unpack(b, &got); err != nil {
		t.Fatalf("Unpack() = %v", err)
	}
	if diff := cmp.Diff(np, got); diff != "" {
		t.Errorf("Unpack() mismatch (-want +got):\n%s", diff)
	}

	// Try unpacking a version that's missing a byte at the end.
	if _, err := Unpack(b[:len(b)-1], &got); err == nil {
		t.Error("Unpack() succeeded on a truncated struct")
	}
}

func TestInvalidPack(t *testing.T) {
	var nilHeader *CommandHeader
	if _, err := Pack(nilHeader); err == nil {
		t.Error("Pack() succeeded for a nil pointer")
	}
	if _, err := Pack([]int{1, 2}); err == nil {
		t.Error("Pack() succeeded for a slice of int")
	}
}

func TestInvalidUnpack(t *testing.T) {
	var v uint32
	if _, err := Unpack([]byte{0, 0, 0, 0}, v); err == nil {
		t.Error("Unpack() succeeded into a non pointer")
	}
	var p *uint32
	if _, err := Unpack([]byte{0, 0, 0, 0}, p); err == nil {
		t.Error("Unpack() succeeded into a nil pointer")
	}
}

func TestParseResponseHeader(t *testing.T) {
	resp := []byte{0x80, 0x01, 0, 0, 0, 0x0a, 0, 0, 0x01, 0x43}
	rh, err := ParseResponseHeader(resp)
	if err != nil {
		t.Fatalf("ParseResponseHeader() = %v", err)
	}
	want := ResponseHeader{Tag: 0x8001, Size: 10, Res: 0x143}
	if diff := cmp.Diff(want, rh); diff != "" {
		t.Errorf("ParseResponseHeader() mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseResponseHeader(resp[:9]); err == nil {
		t.Error("ParseResponseHeader() succeeded on a 9 byte response")
	}
}
