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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/aggregate"
	"github.com/google/go-tpm-fuzz/config"
	"github.com/google/go-tpm-fuzz/engine"
	"github.com/google/go-tpm-fuzz/report"
	"github.com/google/go-tpm-fuzz/transport/simulator"
	"github.com/google/go-tpm-fuzz/transport/socket"
)

// runFuzz runs one fuzzing session and writes every configured output.
// Anomalies are reported but do not make the run fail.
func runFuzz(ctx context.Context, cfg config.Config, stdout io.Writer, analyze bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	seed := cfg.EffectiveSeed(time.Now())
	glog.Infof("fuzzing %s target: %d iterations, %d workers, seed %d", cfg.Target, cfg.Iterations, cfg.Workers, seed)

	newTarget, closeTarget, err := targetFactory(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeTarget(); cerr != nil {
			glog.Errorf("closing %s target: %v", cfg.Target, cerr)
		}
	}()

	sinks, metrics, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	start := time.Now()
	counts, runErr := engine.RunSharded(ctx, engine.ShardConfig{
		Iterations: cfg.Iterations,
		Workers:    cfg.Workers,
		Seed:       seed,
		Options:    engine.Options{MaxMutations: cfg.MaxMutations},
	}, newTarget, sinks)
	if cerr := sinks.Close(); cerr != nil {
		glog.Errorf("closing outputs: %v", cerr)
		if runErr == nil {
			runErr = cerr
		}
	}
	if runErr != nil {
		// Summarize whatever completed before failing.
		if counts.Total() == 0 {
			return runErr
		}
		glog.Errorf("run stopped after %d iterations: %v", counts.Total(), runErr)
	}
	glog.Infof("finished %d iterations in %v", counts.Total(), time.Since(start))

	summary, err := aggregate.Summarize(counts)
	if err != nil {
		return err
	}
	if cfg.SummaryPath != "" {
		if err := report.WriteSummary(cfg.SummaryPath, summary); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	anomalies := aggregate.IsCritical(summary, cfg.AnomalyThreshold)
	for _, a := range anomalies {
		glog.Warningf("anomaly: %s (success rate %.4f, exception rate %.4f)", a.Message(), summary.SuccessRate, summary.ErrorRate)
	}
	report.PrintAlert(stdout, anomalies)
	if cfg.AlertPath != "" {
		if err := report.WriteAlert(cfg.AlertPath, anomalies); err != nil {
			return fmt.Errorf("writing alert: %w", err)
		}
	}
	if metrics != nil {
		metrics.SetAnomalies(anomalies)
		if err := metrics.WriteTextfile(cfg.MetricsPath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if analyze {
		if err := report.Analyze(stdout, summary); err != nil {
			return err
		}
		report.Chart(stdout, summary)
	}
	return runErr
}

// targetFactory returns the per-worker target constructor for cfg and a
// function releasing whatever the targets share.
func targetFactory(cfg config.Config) (engine.NewTargetFunc, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Target {
	case config.TargetParser:
		return func(int) (engine.Target, error) {
			return engine.NewParserTarget(cfg.BufferCapacity)
		}, noop, nil
	case config.TargetSimulator:
		tpm, err := simulator.OpenSimulator()
		if err != nil {
			return nil, nil, fmt.Errorf("opening TPM simulator: %w", err)
		}
		return func(int) (engine.Target, error) {
			return engine.NewTPMTarget(tpm), nil
		}, tpm.Close, nil
	case config.TargetDevice:
		tpm, err := openDevice(cfg.DevicePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening TPM device: %w", err)
		}
		return func(int) (engine.Target, error) {
			return engine.NewTPMTarget(tpm), nil
		}, tpm.Close, nil
	case config.TargetSocket:
		tpm, err := socket.Open(cfg.SocketPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening TPM emulator socket: %w", err)
		}
		return func(int) (engine.Target, error) {
			return engine.NewTPMTarget(tpm), nil
		}, tpm.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown target %q", config.ErrInvalid, cfg.Target)
}

// openSinks opens every configured record output. The aggregator is not
// among them; RunSharded counts records itself.
func openSinks(ctx context.Context, cfg config.Config) (sinks report.Multi, metrics *report.Metrics, err error) {
	defer func() {
		if err != nil {
			sinks.Close()
		}
	}()
	if cfg.RecordsPath != "" {
		f, err := os.Create(cfg.RecordsPath)
		if err != nil {
			return sinks, nil, fmt.Errorf("creating record log: %w", err)
		}
		w, err := report.NewCSVWriter(f)
		if err != nil {
			f.Close()
			return sinks, nil, err
		}
		sinks = append(sinks, w)
	}
	if cfg.CorpusDir != "" {
		c, err := report.NewCorpus(cfg.CorpusDir)
		if err != nil {
			return sinks, nil, err
		}
		sinks = append(sinks, c)
	}
	if cfg.MetricsPath != "" {
		metrics = report.NewMetrics()
		sinks = append(sinks, metrics)
	}
	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, report.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic))
	}
	if len(sinks) == 0 {
		glog.Warning("no record outputs configured")
	}
	return sinks, metrics, nil
}
