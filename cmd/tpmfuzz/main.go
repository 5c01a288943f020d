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

// Binary tpmfuzz mutates session commands, feeds them to a command parser or
// a TPM, and reports how often they were accepted, rejected or crashed the
// target.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/golang/glog"
	"github.com/google/go-tpm-fuzz/config"
	"github.com/google/go-tpm-fuzz/report"
)

// CLI defines the tpmfuzz command-line interface.
type CLI struct {
	Config    kong.ConfigFlag `help:"JSON file providing flag defaults." type:"path"`
	Verbosity int             `short:"v" help:"glog verbosity; 2 logs every command." default:"0"`

	Run     RunCmd     `cmd:"" help:"Run a fuzzing session."`
	Analyze AnalyzeCmd `cmd:"" help:"Analyze a stored summary."`
}

// RunCmd holds the flags of "tpmfuzz run".
type RunCmd struct {
	Iterations       int      `short:"n" help:"Number of fuzzing iterations." default:"${iterations}"`
	BufferCapacity   int      `help:"Command buffer capacity in bytes." default:"${capacity}"`
	MaxMutations     int      `help:"Upper bound of byte corruptions per command." default:"${mutations}"`
	AnomalyThreshold float64  `help:"Exception rate above which, and success rate below one minus which, a run is flagged." default:"${threshold}"`
	Seed             int64    `help:"Random seed; 0 picks one from the clock."`
	Workers          int      `short:"w" help:"Parallel workers, each with its own buffer." default:"1"`
	Target           string   `help:"What to fuzz." enum:"parser,simulator,device,socket" default:"parser"`
	Device           string   `help:"TPM device for the device target." default:"${device}"`
	Socket           string   `help:"Emulator Unix socket for the socket target."`
	Records          string   `help:"CSV record log; empty disables it." default:"${records}"`
	Summary          string   `help:"JSON summary; empty disables it." default:"${summary}"`
	Alert            string   `help:"Alert file written when anomalies are found; empty disables it." default:"${alert}"`
	Corpus           string   `help:"Directory receiving the inputs of Exception iterations."`
	Metrics          string   `help:"Prometheus textfile to write outcome counters to."`
	KafkaBrokers     []string `help:"Kafka brokers to stream records to." sep:","`
	KafkaTopic       string   `help:"Kafka topic for streamed records." default:"${topic}"`
	NoAnalysis       bool     `help:"Skip the analysis report after the run."`
}

// config maps the flags onto a run configuration.
func (r *RunCmd) config() config.Config {
	return config.Config{
		Iterations:       r.Iterations,
		BufferCapacity:   r.BufferCapacity,
		MaxMutations:     r.MaxMutations,
		AnomalyThreshold: r.AnomalyThreshold,
		Seed:             r.Seed,
		Workers:          r.Workers,
		Target:           r.Target,
		DevicePath:       r.Device,
		SocketPath:       r.Socket,
		RecordsPath:      r.Records,
		SummaryPath:      r.Summary,
		AlertPath:        r.Alert,
		CorpusDir:        r.Corpus,
		MetricsPath:      r.Metrics,
		KafkaBrokers:     r.KafkaBrokers,
		KafkaTopic:       r.KafkaTopic,
	}
}

// Run executes "tpmfuzz run".
func (r *RunCmd) Run(stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runFuzz(ctx, r.config(), stdout, !r.NoAnalysis)
}

// AnalyzeCmd holds the flags of "tpmfuzz analyze".
type AnalyzeCmd struct {
	Summary string `arg:"" optional:"" help:"Summary written by a run." default:"${summary}" type:"path"`
	NoChart bool   `help:"Skip the distribution chart."`
}

// Run executes "tpmfuzz analyze".
func (a *AnalyzeCmd) Run(stdout io.Writer) error {
	s, err := report.ReadSummary(a.Summary)
	if err != nil {
		return err
	}
	if err := report.Analyze(stdout, s); err != nil {
		return err
	}
	if !a.NoChart {
		report.Chart(stdout, s)
	}
	return nil
}

// setupLogging points glog at stderr with the requested verbosity.
func setupLogging(verbosity int) error {
	if err := flag.CommandLine.Parse(nil); err != nil {
		return err
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		return err
	}
	return flag.Set("v", strconv.Itoa(verbosity))
}

// options configures the tpmfuzz parser; flag defaults come from the
// config package.
func options(stdout io.Writer) []kong.Option {
	return []kong.Option{
		kong.Name("tpmfuzz"),
		kong.Description("Fuzz a TPM session command parser with mutated commands."),
		kong.Configuration(kong.JSON, "./tpmfuzz.json", "~/.config/tpmfuzz.json"),
		kong.Vars{
			"iterations": strconv.Itoa(config.DefaultIterations),
			"capacity":   strconv.Itoa(config.DefaultBufferCapacity),
			"mutations":  strconv.Itoa(config.DefaultMaxMutations),
			"threshold":  strconv.FormatFloat(config.DefaultAnomalyThreshold, 'g', -1, 64),
			"device":     config.DefaultDevicePath,
			"records":    config.DefaultRecordsPath,
			"summary":    config.DefaultSummaryPath,
			"alert":      config.DefaultAlertPath,
			"topic":      config.DefaultKafkaTopic,
		},
		kong.BindTo(stdout, (*io.Writer)(nil)),
		kong.UsageOnError(),
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, options(os.Stdout)...)
	if err := setupLogging(cli.Verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "tpmfuzz: configuring logging: %v\n", err)
		os.Exit(1)
	}
	defer glog.Flush()

	err := ctx.Run()
	glog.Flush()
	ctx.FatalIfErrorf(err)
}
