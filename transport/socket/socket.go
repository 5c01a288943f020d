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

// Package socket talks to a TPM emulator listening on a Unix domain socket,
// such as swtpm started with "--server type=unixio". Every command is sent on
// a fresh connection.
package socket

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/transport"
)

var (
	// ErrFileIsNotSocket indicates that the TPM path is not a socket.
	ErrFileIsNotSocket = errors.New("TPM file is not a socket")
	// ErrWriteThenRead indicates that Write and Read were not called in
	// alternation.
	ErrWriteThenRead = errors.New("must call Write then Read in an alternating sequence")
)

// Open returns a TPM sending commands to the emulator socket at path.
func Open(path string) (transport.TPMCloser, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrFileIsNotSocket, fi.Mode().String(), path)
	}
	return transport.FromReadWriteCloser(newConnPerCommand(path, net.Dial)), nil
}

type dialFunc func(network, address string) (net.Conn, error)

// connPerCommand dials on Write and hangs up after the matching Read.
type connPerCommand struct {
	path string
	dial dialFunc
	conn net.Conn
}

func newConnPerCommand(path string, dial dialFunc) *connPerCommand {
	return &connPerCommand{path: path, dial: dial}
}

func (c *connPerCommand) Write(p []byte) (int, error) {
	if c.conn != nil {
		return 0, ErrWriteThenRead
	}
	conn, err := c.dial("unix", c.path)
	if err != nil {
		return 0, err
	}
	c.conn = conn
	return conn.Write(p)
}

func (c *connPerCommand) Read(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrWriteThenRead
	}
	n, err := c.conn.Read(p)
	if cerr := c.conn.Close(); cerr != nil {
		glog.V(2).Infof("closing emulator connection: %v", cerr)
	}
	c.conn = nil
	return n, err
}

// Close hangs up a connection left open by a Write with no Read.
func (c *connPerCommand) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
