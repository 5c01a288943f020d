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

// Package outcome defines the per-iteration record a fuzzing run emits.
package outcome

import (
	"fmt"
	"time"
)

// Class is the classification of one fuzzing iteration.
type Class int

const (
	// Success means the target accepted the command.
	Success Class = iota
	// HandledError means the target rejected the command through one of
	// its defined rejection paths.
	HandledError
	// Exception means the target failed in a way it does not anticipate.
	Exception

	numClasses = 3
)

// Classes lists every Class in declaration order.
var Classes = [numClasses]Class{Success, HandledError, Exception}

var classNames = [numClasses]string{"Success", "HandledError", "Exception"}

func (c Class) String() string {
	if c >= 0 && int(c) < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Valid reports whether c is one of the defined classes.
func (c Class) Valid() bool {
	return c >= 0 && int(c) < numClasses
}

// ParseClass is the inverse of Class.String. "Handled Error" is accepted as
// an alias for HandledError.
func ParseClass(s string) (Class, error) {
	for i, name := range classNames {
		if s == name {
			return Class(i), nil
		}
	}
	if s == "Handled Error" {
		return HandledError, nil
	}
	return 0, fmt.Errorf("unknown outcome class %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal %v", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(b []byte) error {
	v, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Record is the immutable result of one iteration.
type Record struct {
	// Iteration is the index of the iteration within the whole run.
	Iteration int `json:"iteration" cbor:"1,keyasint"`
	// Timestamp is when the iteration was classified.
	Timestamp time.Time `json:"timestamp" cbor:"2,keyasint"`
	Class     Class     `json:"result" cbor:"3,keyasint"`
	// Detail carries the rejection reason or the failure description,
	// verbatim.
	Detail string `json:"error,omitempty" cbor:"4,keyasint,omitempty"`
	// Input is the mutated command the target saw.
	Input []byte `json:"input,omitempty" cbor:"5,keyasint,omitempty"`
	// Site locates the failing frame of an Exception caused by a panic.
	Site string `json:"site,omitempty" cbor:"6,keyasint,omitempty"`
	// Shard is the worker that produced the record.
	Shard int `json:"shard" cbor:"7,keyasint"`
}

// TimestampString formats the timestamp as ISO-8601 in UTC.
func (r Record) TimestampString() string {
	return r.Timestamp.UTC().Format(time.RFC3339Nano)
}
