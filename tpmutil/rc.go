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

import "fmt"

// RCKind is the layout a response code uses, following the response code
// evaluation chart of the TPM 2.0 library, part 1.
type RCKind uint8

// Response code layouts.
const (
	RCKindSuccess RCKind = iota
	RCKindTPM12
	RCKindVendor
	RCKindWarning
	RCKindFormat0
	RCKindParameter
	RCKindHandle
	RCKindSession
)

var rcKindNames = [...]string{
	RCKindSuccess:   "success",
	RCKindTPM12:     "TPM 1.2 status",
	RCKindVendor:    "vendor error",
	RCKindWarning:   "warning",
	RCKindFormat0:   "error",
	RCKindParameter: "parameter error",
	RCKindHandle:    "handle error",
	RCKindSession:   "session error",
}

func (k RCKind) String() string {
	if int(k) < len(rcKindNames) {
		return rcKindNames[k]
	}
	return fmt.Sprintf("RCKind(%d)", uint8(k))
}

// Error numbers a malformed command most often provokes.
const (
	RCInitialize   uint8 = 0x00 // format 0
	RCFailure      uint8 = 0x01 // format 0
	RCCommandSize  uint8 = 0x42 // format 0
	RCCommandCode  uint8 = 0x43 // format 0
	RCAuthSize     uint8 = 0x44 // format 0
	RCAuthContext  uint8 = 0x45 // format 0
	RCValue        uint8 = 0x04 // format 1
	RCHandle       uint8 = 0x0B // format 1
	RCNonce        uint8 = 0x0F // format 1
	RCSize         uint8 = 0x15 // format 1
	RCTag          uint8 = 0x17 // format 1
	RCInsufficient uint8 = 0x1A // format 1
	RCReservedBits uint8 = 0x21 // format 1
	RCRetry        uint8 = 0x22 // warning
)

var format0Text = map[uint8]string{
	RCInitialize:  "TPM not initialized",
	RCFailure:     "TPM in failure mode",
	RCCommandSize: "command size inconsistent with the command buffer",
	RCCommandCode: "command code not supported",
	RCAuthSize:    "authorization area size out of range",
	RCAuthContext: "authorization session not allowed for this command",
}

var format1Text = map[uint8]string{
	RCValue:        "value out of range",
	RCHandle:       "handle not correct for the use",
	RCNonce:        "invalid nonce size or value",
	RCSize:         "structure is the wrong size",
	RCTag:          "incorrect structure tag",
	RCInsufficient: "not enough octets to unmarshal a value",
	RCReservedBits: "reserved bits not zero",
}

var warningText = map[uint8]string{
	RCRetry: "TPM could not start the command",
}

// DecodedRC is a response code split into its fields.
type DecodedRC struct {
	Raw  ResponseCode
	Kind RCKind
	// Number is the error or warning number within its layout.
	Number uint8
	// Index is the 1-based parameter, handle or session the error refers to,
	// or 0.
	Index uint8
}

// DecodeRC splits rc into its fields.
func DecodeRC(rc ResponseCode) DecodedRC {
	d := DecodedRC{Raw: rc}
	switch {
	case rc == RCSuccess:
		d.Kind = RCKindSuccess
	case rc&0x180 == 0: // bits 7 and 8 clear
		d.Kind = RCKindTPM12
	case rc&0x80 == 0: // format 0
		switch {
		case rc&0x400 != 0:
			d.Kind = RCKindVendor
		case rc&0x800 != 0:
			d.Kind, d.Number = RCKindWarning, uint8(rc&0x7f)
		default:
			d.Kind, d.Number = RCKindFormat0, uint8(rc&0x7f)
		}
	case rc&0x40 != 0:
		d.Kind, d.Number, d.Index = RCKindParameter, uint8(rc&0x3f), uint8(rc>>8&0xf)
	case rc&0x800 == 0:
		d.Kind, d.Number, d.Index = RCKindHandle, uint8(rc&0x3f), uint8(rc>>8&0x7)
	default:
		d.Kind, d.Number, d.Index = RCKindSession, uint8(rc&0x3f), uint8(rc>>8&0x7)
	}
	return d
}

// String renders d for logs and outcome details.
func (d DecodedRC) String() string {
	var text string
	switch d.Kind {
	case RCKindSuccess:
		return "success"
	case RCKindTPM12, RCKindVendor:
		return fmt.Sprintf("%v 0x%03x", d.Kind, uint32(d.Raw))
	case RCKindWarning:
		text = warningText[d.Number]
	case RCKindFormat0:
		text = format0Text[d.Number]
	default:
		text = format1Text[d.Number]
	}
	s := fmt.Sprintf("%v 0x%02x", d.Kind, d.Number)
	if d.Index != 0 {
		s += fmt.Sprintf(" (#%d)", d.Index)
	}
	if text != "" {
		s += ": " + text
	}
	return fmt.Sprintf("%s [0x%03x]", s, uint32(d.Raw))
}
