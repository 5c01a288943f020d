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

package report

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-tpm-fuzz/outcome"
)

// corpusExt is the extension of crash corpus entries.
const corpusExt = ".cbor"

var corpusEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano, Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Corpus saves the input of every Exception record so it can be replayed.
// Entries are named by the SHA-1 of the input; a repeated input keeps the
// entry written first.
type Corpus struct {
	dir string
}

// NewCorpus creates dir if needed and returns a corpus writing into it.
func NewCorpus(dir string) (*Corpus, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating corpus dir: %w", err)
	}
	return &Corpus{dir: dir}, nil
}

// Emit implements Sink. Non-exception records are ignored.
func (c *Corpus) Emit(r outcome.Record) error {
	if r.Class != outcome.Exception {
		return nil
	}
	sum := sha1.Sum(r.Input)
	path := filepath.Join(c.dir, hex.EncodeToString(sum[:])+corpusExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	b, err := corpusEncMode.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding corpus entry: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// Entries lists the corpus entry files, sorted by name.
func (c *Corpus) Entries() ([]string, error) {
	return filepath.Glob(filepath.Join(c.dir, "*"+corpusExt))
}

// ReadCorpusEntry decodes one corpus entry.
func ReadCorpusEntry(path string) (outcome.Record, error) {
	var r outcome.Record
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := cbor.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decoding corpus entry %s: %w", path, err)
	}
	return r, nil
}
