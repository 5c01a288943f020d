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

// Package transport implements types for sending raw command bytes to TPMs.
package transport

import (
	"errors"
	"io"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/tpmutil"
)

// ErrShortResponse indicates a TPM answered with less than a response header.
var ErrShortResponse = errors.New("short TPM response")

// TPM represents a logical connection to a TPM.
type TPM interface {
	Send(input []byte) ([]byte, error)
}

// TPMCloser represents a logical connection to a TPM that can be closed.
type TPMCloser interface {
	TPM
	io.Closer
}

// wrappedRWC adapts an io.ReadWriteCloser into a TPMCloser.
type wrappedRWC struct {
	transport io.ReadWriteCloser
}

// FromReadWriteCloser takes in an io.ReadWriteCloser and returns a TPMCloser
// that sends commands over it unmodified.
func FromReadWriteCloser(rwc io.ReadWriteCloser) TPMCloser {
	return &wrappedRWC{transport: rwc}
}

// Send implements the TPM interface.
func (t *wrappedRWC) Send(input []byte) ([]byte, error) {
	if glog.V(2) {
		glog.Infof("TPM request:\n%x\n", input)
	}
	out, err := tpmutil.RunCommandRaw(t.transport, input)
	if err != nil {
		return nil, err
	}
	if glog.V(2) {
		glog.Infof("TPM response:\n%x\n", out)
	}
	return out, nil
}

// Close implements the TPMCloser interface.
func (t *wrappedRWC) Close() error {
	return t.transport.Close()
}
