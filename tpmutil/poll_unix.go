//go:build linux || darwin

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
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// pollNoTimeout blocks indefinitely until data is available
// (TSS2_TCTI_TIMEOUT_BLOCK).
const pollNoTimeout time.Duration = -1

// poll blocks until the file descriptor is ready for reading, the timeout
// expires, or an error occurs.
func poll(f *os.File, timeout time.Duration) error {
	const events = unix.POLLIN
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	pollFds := []unix.PollFd{
		{Fd: int32(f.Fd()), Events: events},
	}
	n, err := unix.Poll(pollFds, ms)
	if err != nil {
		return err
	}
	if n == 0 {
		return os.ErrDeadlineExceeded
	}
	if pollFds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		return &os.PathError{Op: "poll", Path: f.Name(), Err: unix.EBADF}
	}
	return nil
}
