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

import "fmt"

// Status is the variant tag of a Result.
type Status int

const (
	// Parsed means both stages accepted the command.
	Parsed Status = iota
	// RejectedMalformed means a stage found inconsistent fields.
	RejectedMalformed
	// RejectedOverflow means a declared or derived length crossed the
	// buffer capacity.
	RejectedOverflow
)

func (s Status) String() string {
	switch s {
	case Parsed:
		return "Parsed"
	case RejectedMalformed:
		return "RejectedMalformed"
	case RejectedOverflow:
		return "RejectedOverflow"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Stage names the parser state a Result was produced in.
type Stage int

const (
	// StageHeader is the Start -> HeaderParsed transition.
	StageHeader Stage = iota
	// StageSession is the HeaderParsed -> Parsed transition.
	StageSession
)

func (s Stage) String() string {
	if s == StageHeader {
		return "header"
	}
	return "session"
}

// Result is the outcome of Decode. Command is only meaningful when Status is
// Parsed; Reason is only set for rejections and wraps ErrMalformed or
// cmdbuf.ErrOverflow.
type Result struct {
	Status  Status
	Stage   Stage
	Command Command
	Reason  error
}

// Rejected reports whether the command was turned away.
func (r Result) Rejected() bool {
	return r.Status != Parsed
}

func (r Result) String() string {
	if r.Status == Parsed {
		return fmt.Sprintf("Parsed{tag: 0x%04x, size: %d, code: 0x%04x, nonce: %x}", uint16(r.Command.Tag), r.Command.Size, uint16(r.Command.Code), r.Command.Nonce)
	}
	return fmt.Sprintf("%v(%v: %v)", r.Status, r.Stage, r.Reason)
}
