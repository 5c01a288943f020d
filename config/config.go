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

// Package config holds the recognized options of a fuzzing run.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid indicates a configuration that cannot drive a run.
var ErrInvalid = errors.New("invalid configuration")

// Target kinds.
const (
	TargetParser    = "parser"
	TargetSimulator = "simulator"
	TargetDevice    = "device"
	TargetSocket    = "socket"
)

// Defaults. MaxMutations and AnomalyThreshold match the engine and
// aggregate package defaults.
const (
	DefaultIterations       = 1000
	DefaultBufferCapacity   = 4096
	DefaultMaxMutations     = 5
	DefaultAnomalyThreshold = 0.3
	DefaultDevicePath       = "/dev/tpmrm0"
	DefaultKafkaTopic       = "tpmfuzz-outcomes"

	DefaultRecordsPath = "fuzz_results_log.csv"
	DefaultSummaryPath = "fuzz_results_summary.json"
	DefaultAlertPath   = "fuzz_results_alert.txt"
)

// Config describes one fuzzing run and where its results go. Empty output
// paths disable the corresponding output.
type Config struct {
	Iterations       int
	BufferCapacity   int
	MaxMutations     int
	AnomalyThreshold float64
	// Seed seeds the random sources; zero picks a time-based seed.
	Seed    int64
	Workers int

	Target     string
	DevicePath string
	// SocketPath is the emulator socket of the socket target.
	SocketPath string

	RecordsPath  string
	SummaryPath  string
	AlertPath    string
	CorpusDir    string
	MetricsPath  string
	KafkaBrokers []string
	KafkaTopic   string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Iterations:       DefaultIterations,
		BufferCapacity:   DefaultBufferCapacity,
		MaxMutations:     DefaultMaxMutations,
		AnomalyThreshold: DefaultAnomalyThreshold,
		Workers:          1,
		Target:           TargetParser,
		DevicePath:       DefaultDevicePath,
		RecordsPath:      DefaultRecordsPath,
		SummaryPath:      DefaultSummaryPath,
		AlertPath:        DefaultAlertPath,
		KafkaTopic:       DefaultKafkaTopic,
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalid.
func (c Config) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalid, c.Iterations)
	case c.BufferCapacity <= 0:
		return fmt.Errorf("%w: buffer capacity must be positive, got %d", ErrInvalid, c.BufferCapacity)
	case c.MaxMutations <= 0:
		return fmt.Errorf("%w: max mutations per command must be positive, got %d", ErrInvalid, c.MaxMutations)
	case !(c.AnomalyThreshold > 0 && c.AnomalyThreshold < 1):
		return fmt.Errorf("%w: anomaly threshold must be in (0, 1), got %v", ErrInvalid, c.AnomalyThreshold)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	}
	switch c.Target {
	case TargetParser:
	case TargetSimulator, TargetDevice, TargetSocket:
		// All workers would share one TPM state.
		if c.Workers != 1 {
			return fmt.Errorf("%w: %s target supports a single worker, got %d", ErrInvalid, c.Target, c.Workers)
		}
		if c.Target == TargetDevice && c.DevicePath == "" {
			return fmt.Errorf("%w: device target needs a device path", ErrInvalid)
		}
		if c.Target == TargetSocket && c.SocketPath == "" {
			return fmt.Errorf("%w: socket target needs a socket path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", ErrInvalid, c.Target)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("%w: kafka brokers given without a topic", ErrInvalid)
	}
	return nil
}

// EffectiveSeed returns Seed, or a seed derived from now when Seed is zero.
func (c Config) EffectiveSeed(now time.Time) int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return now.UnixNano()
}
