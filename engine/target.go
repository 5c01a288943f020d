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

package engine

import (
	"fmt"

	"github.com/google/go-tpm-fuzz/cmdbuf"
	"github.com/google/go-tpm-fuzz/codec"
	"github.com/google/go-tpm-fuzz/outcome"
	"github.com/google/go-tpm-fuzz/tpmutil"
	"github.com/google/go-tpm-fuzz/transport"
)

// Verdict is how a target classified one command.
type Verdict struct {
	Class  outcome.Class
	Detail string
}

// Target consumes mutated commands. Rejections the target anticipates come
// back as a Verdict; a returned error is an unanticipated failure and is
// classified as an Exception.
type Target interface {
	Handle(cmd []byte) (Verdict, error)
}

// ParserTarget loads each command into its own buffer and decodes it.
type ParserTarget struct {
	buf *cmdbuf.Buffer
}

// NewParserTarget returns a ParserTarget backed by a buffer of the given
// capacity.
func NewParserTarget(capacity int) (*ParserTarget, error) {
	buf, err := cmdbuf.New(capacity)
	if err != nil {
		return nil, err
	}
	return &ParserTarget{buf: buf}, nil
}

// Handle implements Target. A command longer than the buffer means the
// mutator grew a command, which is a defect, so it is returned as an error.
func (p *ParserTarget) Handle(cmd []byte) (Verdict, error) {
	if err := p.buf.Load(cmd); err != nil {
		return Verdict{}, fmt.Errorf("loading command: %w", err)
	}
	return Classify(codec.Decode(p.buf)), nil
}

// Classify maps a parse result onto an outcome class.
func Classify(res codec.Result) Verdict {
	switch res.Status {
	case codec.Parsed:
		return Verdict{Class: outcome.Success}
	case codec.RejectedMalformed, codec.RejectedOverflow:
		return Verdict{Class: outcome.HandledError, Detail: res.Reason.Error()}
	}
	return Verdict{Class: outcome.Exception, Detail: fmt.Sprintf("unknown parse status %v", res.Status)}
}

// TPMTarget sends each command to a TPM. A non-zero response code is a
// handled error; a failed exchange or an inconsistent response is an
// Exception.
type TPMTarget struct {
	tpm transport.TPM
}

// NewTPMTarget returns a target sending commands through tpm.
func NewTPMTarget(tpm transport.TPM) *TPMTarget {
	return &TPMTarget{tpm: tpm}
}

// Handle implements Target.
func (t *TPMTarget) Handle(cmd []byte) (Verdict, error) {
	resp, err := t.tpm.Send(cmd)
	if err != nil {
		return Verdict{}, err
	}
	rh, err := tpmutil.ParseResponseHeader(resp)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", transport.ErrShortResponse, err)
	}
	if int(rh.Size) != len(resp) {
		return Verdict{}, fmt.Errorf("response declares %d bytes but carries %d", rh.Size, len(resp))
	}
	if rh.Res != tpmutil.RCSuccess {
		return Verdict{Class: outcome.HandledError, Detail: tpmutil.DecodeRC(rh.Res).String()}, nil
	}
	return Verdict{Class: outcome.Success}, nil
}
