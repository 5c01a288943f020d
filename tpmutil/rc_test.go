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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeRC(t *testing.T) {
	tests := []struct {
		rc       ResponseCode
		want     DecodedRC
		wantText string
	}{
		{0x000, DecodedRC{Raw: 0x000, Kind: RCKindSuccess}, "success"},
		{0x01e, DecodedRC{Raw: 0x01e, Kind: RCKindTPM12}, "TPM 1.2 status 0x01e"},
		{0x142, DecodedRC{Raw: 0x142, Kind: RCKindFormat0, Number: RCCommandSize},
			"error 0x42: command size inconsistent with the command buffer [0x142]"},
		{0x143, DecodedRC{Raw: 0x143, Kind: RCKindFormat0, Number: RCCommandCode},
			"error 0x43: command code not supported [0x143]"},
		{0x922, DecodedRC{Raw: 0x922, Kind: RCKindWarning, Number: RCRetry},
			"warning 0x22: TPM could not start the command [0x922]"},
		{0x500, DecodedRC{Raw: 0x500, Kind: RCKindVendor}, "vendor error 0x500"},
		{0x1d5, DecodedRC{Raw: 0x1d5, Kind: RCKindParameter, Number: RCSize, Index: 1},
			"parameter error 0x15 (#1): structure is the wrong size [0x1d5]"},
		{0x28b, DecodedRC{Raw: 0x28b, Kind: RCKindHandle, Number: RCHandle, Index: 2},
			"handle error 0x0b (#2): handle not correct for the use [0x28b]"},
		{0x98f, DecodedRC{Raw: 0x98f, Kind: RCKindSession, Number: RCNonce, Index: 1},
			"session error 0x0f (#1): invalid nonce size or value [0x98f]"},
		{0x0bf, DecodedRC{Raw: 0x0bf, Kind: RCKindHandle, Number: 0x3f},
			"handle error 0x3f [0x0bf]"},
	}
	for _, tt := range tests {
		got := DecodeRC(tt.rc)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DecodeRC(0x%x) mismatch (-want +got):\n%s", uint32(tt.rc), diff)
		}
		if s := got.String(); s != tt.wantText {
			t.Errorf("DecodeRC(0x%x).String() = %q, want %q", uint32(tt.rc), s, tt.wantText)
		}
	}
}
