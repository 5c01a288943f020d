//go:build !windows

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
	"fmt"
	"io"
	"os"
	"time"
)

// OpenTPM opens a channel to the TPM at the given path. Reads wait in poll
// until the device has a response ready; with a non-negative timeout they
// fail with os.ErrDeadlineExceeded once it expires.
func OpenTPM(path string, timeout time.Duration) (io.ReadWriteCloser, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if fi.Mode()&os.ModeDevice == 0 {
		return nil, fmt.Errorf("unsupported TPM file mode %s", fi.Mode().String())
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return &pollingFile{File: f, timeout: timeout}, nil
}

// pollingFile waits for the descriptor to become readable before each read.
type pollingFile struct {
	*os.File
	timeout time.Duration
}

func (p *pollingFile) Read(b []byte) (int, error) {
	if err := poll(p.File, p.timeout); err != nil {
		return 0, err
	}
	return p.File.Read(b)
}
