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

// Package engine drives fuzzing iterations: generate a command, mutate it,
// hand it to a target and record how the target classified it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/mutator"
	"github.com/google/go-tpm-fuzz/outcome"
)

// DefaultMaxMutations is the default upper bound of corruptions per command.
const DefaultMaxMutations = 5

// Sink receives records in iteration order.
type Sink interface {
	Emit(outcome.Record) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(outcome.Record) error

// Emit implements Sink.
func (f SinkFunc) Emit(r outcome.Record) error { return f(r) }

// Options tune an Engine.
type Options struct {
	// MaxMutations bounds the corruptions applied to each command.
	// Zero means DefaultMaxMutations.
	MaxMutations int
	// Now stamps records. Nil means time.Now.
	Now func() time.Time
}

// Engine runs iterations against a single target. An Engine is not safe for
// concurrent use; sharded runs build one per worker.
type Engine struct {
	target       Target
	mut          *mutator.Mutator
	maxMutations int
	now          func() time.Time

	// Iteration i of a shard is global iteration base + i*stride.
	shard  int
	base   int
	stride int
}

// New returns an Engine that draws all randomness from rng.
func New(target Target, rng *rand.Rand, opts Options) (*Engine, error) {
	if target == nil {
		return nil, errors.New("nil target")
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	maxMutations := opts.MaxMutations
	if maxMutations == 0 {
		maxMutations = DefaultMaxMutations
	}
	if maxMutations < 0 {
		return nil, fmt.Errorf("max mutations must be positive, got %d", maxMutations)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		target:       target,
		mut:          mutator.New(rng),
		maxMutations: maxMutations,
		now:          now,
		stride:       1,
	}, nil
}

// Run executes iterations sequentially, emitting one record per iteration in
// order. An iteration that fails unexpectedly is recorded as an Exception and
// the run continues; only a sink failure or a cancelled ctx stops it early.
func (e *Engine) Run(ctx context.Context, iterations int, sink Sink) error {
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := e.Step(i)
		if err := sink.Emit(rec); err != nil {
			return fmt.Errorf("emitting record %d: %w", rec.Iteration, err)
		}
	}
	return nil
}

// Step runs iteration i: Ready -> Generated -> Mutated -> Loaded -> Decoded
// -> Recorded.
func (e *Engine) Step(i int) outcome.Record {
	rec := outcome.Record{Iteration: e.base + i*e.stride, Shard: e.shard}

	base, err := e.mut.Base()
	if err != nil {
		return e.exception(rec, fmt.Sprintf("generating command: %v", err), "")
	}
	cmd, err := e.mut.Mutate(base, e.maxMutations)
	if err != nil {
		return e.exception(rec, fmt.Sprintf("mutating command: %v", err), "")
	}
	rec.Input = cmd
	if len(cmd) != len(base) {
		return e.exception(rec, fmt.Sprintf("mutation changed length from %d to %d", len(base), len(cmd)), "")
	}

	v, site, err := e.handle(cmd)
	if err != nil {
		return e.exception(rec, err.Error(), site)
	}
	rec.Class = v.Class
	rec.Detail = v.Detail
	rec.Timestamp = e.now()
	if glog.V(2) {
		glog.Infof("iteration %d: %x -> %v %s", rec.Iteration, cmd, rec.Class, rec.Detail)
	}
	return rec
}

// handle calls the target, turning a panic into an error and the site that
// raised it.
func (e *Engine) handle(cmd []byte) (v Verdict, site string, err error) {
	defer func() {
		if r := recover(); r != nil {
			site = crashSite(debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	v, err = e.target.Handle(cmd)
	return v, "", err
}

func (e *Engine) exception(rec outcome.Record, detail, site string) outcome.Record {
	rec.Class = outcome.Exception
	rec.Detail = detail
	rec.Site = site
	rec.Timestamp = e.now()
	if glog.V(1) {
		glog.Infof("iteration %d: exception: %s %s", rec.Iteration, detail, site)
	}
	return rec
}
