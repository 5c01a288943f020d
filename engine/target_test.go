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
	"errors"
	"testing"

	"github.com/google/go-tpm-fuzz/outcome"
	"github.com/google/go-tpm-fuzz/transport"
)

type fakeTPM struct {
	resp []byte
	err  error
}

func (f fakeTPM) Send([]byte) ([]byte, error) { return f.resp, f.err }

func TestTPMTarget(t *testing.T) {
	sendErr := errors.New("connection reset")
	tests := []struct {
		name      string
		tpm       fakeTPM
		want      outcome.Class
		wantErr   bool
		errTarget error
	}{
		{
			name: "success",
			tpm:  fakeTPM{resp: []byte{0x80, 0x01, 0, 0, 0, 0x0a, 0, 0, 0, 0}},
			want: outcome.Success,
		},
		{
			name: "command code rejected",
			tpm:  fakeTPM{resp: []byte{0x80, 0x01, 0, 0, 0, 0x0a, 0, 0, 0x01, 0x43}},
			want: outcome.HandledError,
		},
		{
			name:      "short response",
			tpm:       fakeTPM{resp: []byte{0x80, 0x01, 0}},
			wantErr:   true,
			errTarget: transport.ErrShortResponse,
		},
		{
			name:    "size mismatch",
			tpm:     fakeTPM{resp: []byte{0x80, 0x01, 0, 0, 0, 0x20, 0, 0, 0, 0}},
			wantErr: true,
		},
		{
			name:      "send failure",
			tpm:       fakeTPM{err: sendErr},
			wantErr:   true,
			errTarget: sendErr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewTPMTarget(tt.tpm).Handle([]byte{0x80, 0x01})
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Fatalf("Handle() = %v, %v, want error %v", v, err, tt.wantErr)
			}
			if tt.errTarget != nil && !errors.Is(err, tt.errTarget) {
				t.Errorf("Handle() = %v, want %v", err, tt.errTarget)
			}
			if err == nil && v.Class != tt.want {
				t.Errorf("Handle() class = %v, want %v", v.Class, tt.want)
			}
		})
	}
}

func TestTPMTargetDetail(t *testing.T) {
	v, err := NewTPMTarget(fakeTPM{resp: []byte{0x80, 0x01, 0, 0, 0, 0x0a, 0, 0, 0x01, 0x43}}).Handle(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "error 0x43: command code not supported [0x143]"; v.Detail != want {
		t.Errorf("Detail = %q, want %q", v.Detail, want)
	}
}

func TestNewParserTargetRejectsBadCapacity(t *testing.T) {
	if _, err := NewParserTarget(0); err == nil {
		t.Error("NewParserTarget(0) succeeded")
	}
}
