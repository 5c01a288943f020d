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

package codec

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/cmdbuf"
	"github.com/google/go-tpm-fuzz/tpmutil"
)

// Decode parses the command loaded in buf. Every inconsistency comes back as
// a rejected Result; Decode never reads outside the buffer's capacity.
//
// The declared size is only checked against the capacity, not against the
// loaded length, so a command that lies about its size still reaches the
// session stage.
func Decode(buf *cmdbuf.Buffer) Result {
	hdr, res, ok := decodeHeader(buf)
	if !ok {
		return res
	}
	return decodeSession(buf, hdr)
}

func decodeHeader(buf *cmdbuf.Buffer) (tpmutil.CommandHeader, Result, bool) {
	var hdr tpmutil.CommandHeader
	if buf.Len() < tpmutil.HeaderSize {
		return hdr, malformed(StageHeader, "command of %d bytes is shorter than the %d byte header", buf.Len(), tpmutil.HeaderSize), false
	}
	raw, err := buf.ReadRange(0, tpmutil.HeaderSize)
	if err != nil {
		return hdr, overflow(StageHeader, err), false
	}
	if _, err := tpmutil.Unpack(raw, &hdr); err != nil {
		return hdr, malformed(StageHeader, "unpacking header: %v", err), false
	}
	if uint64(hdr.Size) > uint64(buf.Cap()) {
		return hdr, overflow(StageHeader, fmt.Errorf("%w: declared size %d exceeds capacity %d", cmdbuf.ErrOverflow, hdr.Size, buf.Cap())), false
	}
	if glog.V(3) {
		glog.Infof("header parsed: tag=0x%04x size=%d code=0x%04x loaded=%d", uint16(hdr.Tag), hdr.Size, uint16(hdr.Code), buf.Len())
	}
	return hdr, Result{}, true
}

func decodeSession(buf *cmdbuf.Buffer, hdr tpmutil.CommandHeader) Result {
	n, err := buf.ByteAt(sessionOffset)
	if err != nil {
		return overflow(StageSession, err)
	}
	start := sessionOffset + 1
	if end := start + int(n); end > buf.Cap() {
		return overflow(StageSession, fmt.Errorf("%w: nonce ends at %d past capacity %d", cmdbuf.ErrOverflow, end, buf.Cap()))
	}
	nonce, err := buf.ReadRange(start, int(n))
	if err != nil {
		return overflow(StageSession, err)
	}
	return Result{
		Status: Parsed,
		Stage:  StageSession,
		Command: Command{
			Tag:   hdr.Tag,
			Size:  hdr.Size,
			Code:  hdr.Code,
			Nonce: nonce,
		},
	}
}

func malformed(stage Stage, format string, args ...interface{}) Result {
	return Result{
		Status: RejectedMalformed,
		Stage:  stage,
		Reason: fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformed}, args...)...),
	}
}

func overflow(stage Stage, err error) Result {
	return Result{Status: RejectedOverflow, Stage: stage, Reason: err}
}
