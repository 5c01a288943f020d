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

// Package device sends fuzzed commands to a TPM character device, normally
// the kernel resource manager. Every response read is bounded by a timeout so
// a command the TPM never answers fails the iteration instead of stalling the
// run.
package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/tpmutil"
	"github.com/google/go-tpm-fuzz/transport"
)

// DefaultResponseTimeout bounds the wait for one response.
const DefaultResponseTimeout = 30 * time.Second

// ErrFileIsNotDevice indicates that the path is not a character device.
var ErrFileIsNotDevice = errors.New("TPM file is not a character device")

// Open opens the TPM character device at path. A non-positive timeout waits
// for responses indefinitely.
func Open(path string, timeout time.Duration) (transport.TPMCloser, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrFileIsNotDevice, fi.Mode().String(), path)
	}
	if timeout <= 0 {
		timeout = -1
	}
	rwc, err := tpmutil.OpenTPM(path, timeout)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if !isResourceManager(path) {
		glog.Warningf("%s is not a resource manager device; fuzzed commands may leave sessions or objects loaded", path)
	}
	return transport.FromReadWriteCloser(rwc), nil
}

// isResourceManager reports whether path names a kernel resource manager
// device such as /dev/tpmrm0.
func isResourceManager(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "tpmrm")
}
