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
	"errors"
	"fmt"
	"io"
)

// maxTPMResponse bounds a single response read. /dev/tpm insists on handing
// the whole response back in one read.
const maxTPMResponse = 4096

// RunCommandRaw writes an already-encoded command to rw and returns the raw
// response, header included. The command is sent as-is: nothing checks that
// the declared size matches len(inb).
func RunCommandRaw(rw io.ReadWriter, inb []byte) ([]byte, error) {
	if rw == nil {
		return nil, errors.New("nil TPM handle")
	}
	if _, err := rw.Write(inb); err != nil {
		return nil, fmt.Errorf("writing command: %w", err)
	}

	outb := make([]byte, maxTPMResponse)
	outlen, err := rw.Read(outb)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	// Resize the buffer to match the amount read from the TPM.
	return outb[:outlen], nil
}

// ParseResponseHeader decodes the response header at the start of resp.
func ParseResponseHeader(resp []byte) (ResponseHeader, error) {
	var rh ResponseHeader
	if len(resp) < ResponseHeaderSize {
		return rh, fmt.Errorf("response of %d bytes is shorter than the %d byte header", len(resp), ResponseHeaderSize)
	}
	if _, err := Unpack(resp[:ResponseHeaderSize], &rh); err != nil {
		return rh, err
	}
	return rh, nil
}
