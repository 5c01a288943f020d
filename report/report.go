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

// Package report persists and presents what a fuzzing run produced: the
// record log, the summary, alerts, crash corpus, metrics and the record
// stream.
package report

import (
	"errors"

	"github.com/google/go-tpm-fuzz/outcome"
)

// Sink receives records.
type Sink interface {
	Emit(outcome.Record) error
}

// Multi fans records out to every sink, stopping at the first failure.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(r outcome.Record) error {
	for _, s := range m {
		if err := s.Emit(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer and returns all close
// errors joined.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
