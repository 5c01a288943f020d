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
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maruel/panicparse/v2/stack"
)

// crashSite names the frame that raised the panic captured in dump, a
// goroutine dump as returned by debug.Stack: the first frame below the panic
// call that is not part of the runtime. It returns "" when the dump cannot be
// parsed.
func crashSite(dump []byte) string {
	snap, _, err := stack.ScanSnapshot(bytes.NewReader(dump), io.Discard, &stack.Opts{})
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	if snap == nil || len(snap.Goroutines) == 0 {
		return ""
	}
	gr := snap.Goroutines[0]
	for _, g := range snap.Goroutines {
		if g.First {
			gr = g
			break
		}
	}
	return siteIn(gr.Stack.Calls)
}

// siteIn picks the crash site out of the calls of the panicking goroutine,
// innermost first.
func siteIn(calls []stack.Call) string {
	start := 0
	for i, c := range calls {
		if c.Func.Complete == "panic" || c.Func.Complete == "runtime.gopanic" {
			start = i + 1
			break
		}
	}
	for _, c := range calls[start:] {
		if skipFrame(c.Func) {
			continue
		}
		return fmt.Sprintf("%s.%s %s:%d", c.Func.DirName, c.Func.Name, c.SrcName, c.Line)
	}
	return ""
}

// skipFrame reports whether a frame belongs to the runtime, to the stack
// capture or to the engine's own recovery rather than to the target.
func skipFrame(f stack.Func) bool {
	switch {
	case f.Complete == "" || f.Complete == "panic":
		return true
	case f.ImportPath == "runtime", strings.HasPrefix(f.ImportPath, "runtime/"):
		return true
	case f.DirName == "engine" && strings.HasPrefix(f.Name, "(*Engine)."):
		return true
	}
	return false
}
