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
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/go-tpm-fuzz/aggregate"
	"github.com/google/go-tpm-fuzz/outcome"
	"golang.org/x/sync/errgroup"
)

// ShardConfig describes a run split across workers.
type ShardConfig struct {
	Iterations int
	Workers    int
	// Seed seeds worker w with Seed+w.
	Seed    int64
	Options Options
}

// NewTargetFunc builds the target owned by one worker.
type NewTargetFunc func(shard int) (Target, error)

// ordered releases records to sink in iteration order, holding back those
// that arrive ahead of a slower shard.
type ordered struct {
	mu      sync.Mutex
	sink    Sink
	next    int
	pending map[int]outcome.Record
}

func newOrdered(s Sink) *ordered {
	return &ordered{sink: s, pending: make(map[int]outcome.Record)}
}

func (o *ordered) Emit(r outcome.Record) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r.Iteration != o.next {
		o.pending[r.Iteration] = r
		return nil
	}
	if err := o.sink.Emit(r); err != nil {
		return err
	}
	o.next++
	for {
		p, ok := o.pending[o.next]
		if !ok {
			return nil
		}
		delete(o.pending, o.next)
		if err := o.sink.Emit(p); err != nil {
			return err
		}
		o.next++
	}
}

// flush emits whatever is still held back, in order, skipping the
// iterations that never arrived.
func (o *ordered) flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx := make([]int, 0, len(o.pending))
	for i := range o.pending {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		r := o.pending[i]
		delete(o.pending, i)
		if err := o.sink.Emit(r); err != nil {
			return err
		}
	}
	return nil
}

// RunSharded splits cfg.Iterations across cfg.Workers workers. Each worker
// owns its target and its random source; worker w runs the iterations i with
// i%Workers == w. Records reach sink in iteration order whatever the number
// of workers. The returned counts are the merge of every shard's counts.
func RunSharded(ctx context.Context, cfg ShardConfig, newTarget NewTargetFunc, sink Sink) (aggregate.Counts, error) {
	if cfg.Workers < 1 {
		return aggregate.Counts{}, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Iterations < 0 {
		return aggregate.Counts{}, fmt.Errorf("iterations must not be negative, got %d", cfg.Iterations)
	}
	if sink == nil {
		sink = SinkFunc(func(outcome.Record) error { return nil })
	}
	shared := newOrdered(sink)

	counts := make([]aggregate.Counts, cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		w, n := w, shardSize(cfg.Iterations, cfg.Workers, w)
		g.Go(func() error {
			target, err := newTarget(w)
			if err != nil {
				return fmt.Errorf("shard %d: building target: %w", w, err)
			}
			e, err := New(target, rand.New(rand.NewSource(cfg.Seed+int64(w))), cfg.Options)
			if err != nil {
				return fmt.Errorf("shard %d: %w", w, err)
			}
			e.shard, e.base, e.stride = w, w, cfg.Workers

			agg := aggregate.New()
			err = e.Run(ctx, n, SinkFunc(func(r outcome.Record) error {
				agg.Record(r)
				return shared.Emit(r)
			}))
			counts[w] = agg.Counts()
			if err != nil {
				return fmt.Errorf("shard %d: %w", w, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if ferr := shared.flush(); err == nil {
		err = ferr
	}
	return aggregate.Merge(counts...), err
}

// shardSize is the number of iterations worker w runs; the first
// iterations%workers workers take one extra.
func shardSize(iterations, workers, w int) int {
	n := iterations / workers
	if w < iterations%workers {
		n++
	}
	return n
}
