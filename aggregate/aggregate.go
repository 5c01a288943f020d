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

// Package aggregate tallies outcome records into rates and flags runs whose
// rates cross the anomaly thresholds.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/google/go-tpm-fuzz/outcome"
)

// ErrEmptyDataset is returned when rates are requested for zero records.
var ErrEmptyDataset = errors.New("empty dataset")

// Counts holds the number of records seen per class.
type Counts struct {
	Success      int
	HandledError int
	Exception    int
}

// Add counts one record of class c. Classes outside the defined set count as
// Exception.
func (c *Counts) Add(class outcome.Class) {
	switch class {
	case outcome.Success:
		c.Success++
	case outcome.HandledError:
		c.HandledError++
	default:
		c.Exception++
	}
}

// Of returns the count for class.
func (c Counts) Of(class outcome.Class) int {
	switch class {
	case outcome.Success:
		return c.Success
	case outcome.HandledError:
		return c.HandledError
	case outcome.Exception:
		return c.Exception
	}
	return 0
}

// Total returns the number of records counted.
func (c Counts) Total() int {
	return c.Success + c.HandledError + c.Exception
}

// Merge adds counts together. It is associative and commutative, so shard
// results may be merged in any order.
func Merge(cs ...Counts) Counts {
	var m Counts
	for _, c := range cs {
		m.Success += c.Success
		m.HandledError += c.HandledError
		m.Exception += c.Exception
	}
	return m
}

// Aggregator accumulates records. The zero value is ready to use. It is not
// safe for concurrent use.
type Aggregator struct {
	counts Counts
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Record counts r.
func (a *Aggregator) Record(r outcome.Record) {
	a.counts.Add(r.Class)
}

// Emit counts r, letting an Aggregator act as a record sink.
func (a *Aggregator) Emit(r outcome.Record) error {
	a.Record(r)
	return nil
}

// Counts returns the tallies so far.
func (a *Aggregator) Counts() Counts {
	return a.counts
}

// Summary derives rates from the tallies so far.
func (a *Aggregator) Summary() (Summary, error) {
	return Summarize(a.counts)
}

// Summary is the machine-readable digest of a run.
type Summary struct {
	TotalTests       int            `json:"total_tests"`
	Results          map[string]int `json:"results"`
	SuccessRate      float64        `json:"success_rate"`
	ErrorRate        float64        `json:"error_rate"`
	HandledErrorRate float64        `json:"handled_error_rate"`
}

// Summarize computes rates as count/total. It fails with ErrEmptyDataset when
// nothing was counted rather than produce NaN rates.
func Summarize(c Counts) (Summary, error) {
	total := c.Total()
	if total == 0 {
		return Summary{}, ErrEmptyDataset
	}
	results := make(map[string]int, len(outcome.Classes))
	for _, class := range outcome.Classes {
		results[class.String()] = c.Of(class)
	}
	return Summary{
		TotalTests:       total,
		Results:          results,
		SuccessRate:      float64(c.Success) / float64(total),
		ErrorRate:        float64(c.Exception) / float64(total),
		HandledErrorRate: float64(c.HandledError) / float64(total),
	}, nil
}

// Counts rebuilds the tallies of a summary read back from storage.
func (s Summary) Counts() (Counts, error) {
	var c Counts
	for name, n := range s.Results {
		class, err := outcome.ParseClass(name)
		if err != nil {
			return Counts{}, err
		}
		if n < 0 {
			return Counts{}, fmt.Errorf("negative count %d for %v", n, class)
		}
		switch class {
		case outcome.Success:
			c.Success += n
		case outcome.HandledError:
			c.HandledError += n
		case outcome.Exception:
			c.Exception += n
		}
	}
	if c.Total() != s.TotalTests {
		return Counts{}, fmt.Errorf("results add up to %d, summary claims %d", c.Total(), s.TotalTests)
	}
	return c, nil
}
