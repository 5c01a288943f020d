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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-tpm-fuzz/aggregate"
	"github.com/google/go-tpm-fuzz/config"
	"github.com/google/go-tpm-fuzz/outcome"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

var ts = time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)

func sampleRecords() []outcome.Record {
	return []outcome.Record{
		{Iteration: 0, Timestamp: ts, Class: outcome.Success},
		{Iteration: 1, Timestamp: ts, Class: outcome.HandledError, Detail: "command buffer overflow: declared size 999999 exceeds capacity 4096"},
		{Iteration: 2, Timestamp: ts, Class: outcome.Exception, Detail: "panic: boom, \"quoted\"", Input: []byte{0x80, 0x01, 0xff}, Site: "engine.f x.go:1"},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range sampleRecords() {
		if err := w.Emit(r); err != nil {
			t.Fatalf("Emit() = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Iteration,Timestamp,Result,Error\n0,2024-05-06T07:08:09.123456789Z,Success,\n") {
		t.Errorf("CSV output starts with %q", buf.String())
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() = %v", err)
	}
	// The log does not carry inputs or crash sites.
	want := sampleRecords()
	for i := range want {
		want[i].Input, want[i].Site = nil, ""
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"",
		"a,b,c,d\n",
		"Iteration,Timestamp,Result,Error\nx,2024-05-06T07:08:09Z,Success,\n",
		"Iteration,Timestamp,Result,Error\n1,yesterday,Success,\n",
		"Iteration,Timestamp,Result,Error\n1,2024-05-06T07:08:09Z,Crash,\n",
	} {
		if _, err := ReadCSV(strings.NewReader(in)); err == nil {
			t.Errorf("ReadCSV(%q) succeeded", in)
		}
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	s, err := aggregate.Summarize(aggregate.Counts{Success: 7, HandledError: 2, Exception: 1})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), config.DefaultSummaryPath)
	if err := WriteSummary(path, s); err != nil {
		t.Fatalf("WriteSummary() = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"total_tests", "results", "success_rate", "error_rate", "handled_error_rate"} {
		if !bytes.Contains(raw, []byte("\""+key+"\"")) {
			t.Errorf("summary JSON lacks %q:\n%s", key, raw)
		}
	}
	got, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary() = %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("ReadSummary() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSummaryInconsistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	if err := os.WriteFile(path, []byte(`{"total_tests": 5, "results": {"Success": 1}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSummary(path); err == nil {
		t.Error("ReadSummary() accepted results that do not add up")
	}
}

func TestWriteAlert(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultAlertPath)
	if err := WriteAlert(path, []aggregate.Anomaly{aggregate.HighExceptionRate, aggregate.LowSuccessRate}); err != nil {
		t.Fatalf("WriteAlert() = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Critically high exception rate detected.\nUnusually low success rate detected.\n"
	if string(got) != want {
		t.Errorf("alert file = %q, want %q", got, want)
	}

	if err := WriteAlert(path, nil); err != nil {
		t.Fatalf("WriteAlert(nil) = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale alert file survived a healthy run: %v", err)
	}
	if err := WriteAlert(path, nil); err != nil {
		t.Errorf("WriteAlert(nil) without a file = %v", err)
	}
}

func TestPrintAlert(t *testing.T) {
	var buf bytes.Buffer
	PrintAlert(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("PrintAlert(nil) wrote %q", buf.String())
	}
	PrintAlert(&buf, []aggregate.Anomaly{aggregate.LowSuccessRate})
	if !strings.Contains(buf.String(), "[ALERT]") || !strings.Contains(buf.String(), "  - Unusually low success rate detected.") {
		t.Errorf("PrintAlert() = %q", buf.String())
	}
}

func TestCorpus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "corpus")
	c, err := NewCorpus(dir)
	if err != nil {
		t.Fatal(err)
	}
	recs := sampleRecords()
	for _, r := range append(recs, recs[2]) {
		if err := c.Emit(r); err != nil {
			t.Fatalf("Emit() = %v", err)
		}
	}
	entries, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("corpus holds %d entries, want 1: %v", len(entries), entries)
	}
	got, err := ReadCorpusEntry(entries[0])
	if err != nil {
		t.Fatalf("ReadCorpusEntry() = %v", err)
	}
	if diff := cmp.Diff(recs[2], got); diff != "" {
		t.Errorf("ReadCorpusEntry() mismatch (-want +got):\n%s", diff)
	}
}

type fakeWriter struct {
	written [][]kafka.Message
	closed  bool
	err     error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, append([]kafka.Message(nil), msgs...))
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSinkBatches(t *testing.T) {
	fw := &fakeWriter{}
	k := newKafkaSink(context.Background(), fw, 2)
	for _, r := range sampleRecords() {
		if err := k.Emit(r); err != nil {
			t.Fatalf("Emit() = %v", err)
		}
	}
	if len(fw.written) != 1 || len(fw.written[0]) != 2 {
		t.Fatalf("after 3 records with batch 2: %d writes", len(fw.written))
	}
	if err := k.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if len(fw.written) != 2 || len(fw.written[1]) != 1 || !fw.closed {
		t.Fatalf("Close() did not flush the tail: %d writes, closed %v", len(fw.written), fw.closed)
	}

	msg := fw.written[1][0]
	if string(msg.Key) != "2" {
		t.Errorf("message key = %q, want \"2\"", msg.Key)
	}
	var got outcome.Record
	if err := sonic.ConfigStd.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if diff := cmp.Diff(sampleRecords()[2], got); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestKafkaSinkError(t *testing.T) {
	down := errors.New("broker unreachable")
	k := newKafkaSink(context.Background(), &fakeWriter{err: down}, 1)
	if err := k.Emit(sampleRecords()[0]); !errors.Is(err, down) {
		t.Errorf("Emit() = %v, want %v", err, down)
	}
}

func TestKafkaSinkCloseAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fw := &fakeWriter{}
	k := newKafkaSink(ctx, fw, 10)
	if err := k.Emit(sampleRecords()[0]); err != nil {
		t.Fatalf("Emit() = %v", err)
	}
	cancel()
	if err := k.Flush(); !errors.Is(err, context.Canceled) {
		t.Errorf("Flush() after cancel = %v, want %v", err, context.Canceled)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("Close() after cancel = %v", err)
	}
	if len(fw.written) != 1 || len(fw.written[0]) != 1 {
		t.Errorf("Close() after cancel wrote %v, want the buffered record", fw.written)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	for _, r := range sampleRecords() {
		if err := m.Emit(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Emit(outcome.Record{Class: outcome.Success}); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("Success")); got != 2 {
		t.Errorf("Success counter = %v, want 2", got)
	}
	m.SetAnomalies([]aggregate.Anomaly{aggregate.LowSuccessRate})
	if got := testutil.ToFloat64(m.anomalies.WithLabelValues("LowSuccessRate")); got != 1 {
		t.Errorf("LowSuccessRate gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.anomalies.WithLabelValues("HighExceptionRate")); got != 0 {
		t.Errorf("HighExceptionRate gauge = %v, want 0", got)
	}

	path := filepath.Join(t.TempDir(), "tpmfuzz.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`tpmfuzz_outcomes_total{class="Exception"} 1`)) {
		t.Errorf("textfile lacks the exception counter:\n%s", b)
	}
}

type failSink struct{ err error }

func (f failSink) Emit(outcome.Record) error { return f.err }

type closeSink struct {
	failSink
	closed *bool
}

func (c closeSink) Close() error {
	*c.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	var a, b aggregate.Aggregator
	m := Multi{&a, &b}
	for _, r := range sampleRecords() {
		if err := m.Emit(r); err != nil {
			t.Fatal(err)
		}
	}
	if a.Counts() != b.Counts() || a.Counts().Total() != 3 {
		t.Errorf("fan-out counts = %+v and %+v", a.Counts(), b.Counts())
	}

	stop := errors.New("stop")
	if err := (Multi{failSink{stop}, &a}).Emit(outcome.Record{}); !errors.Is(err, stop) {
		t.Errorf("Emit() = %v, want %v", err, stop)
	}

	closed := false
	if err := (Multi{&a, closeSink{closed: &closed}}).Close(); err != nil || !closed {
		t.Errorf("Close() = %v, closed = %v", err, closed)
	}
}

func TestAnalyze(t *testing.T) {
	s, err := aggregate.Summarize(aggregate.Counts{Success: 1, HandledError: 1, Exception: 2})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Analyze(&buf, s); err != nil {
		t.Fatalf("Analyze() = %v", err)
	}
	for _, want := range []string{
		"Total tests: 4",
		"  Success: 1 (25.00%)",
		"  Exception: 2 (50.00%)",
		"  Handled error rate: 25.00%",
		"[!] Warning: High exception rate detected.",
		"[!] Warning: Low success rate may indicate over-rejection.",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Analyze() output lacks %q:\n%s", want, buf.String())
		}
	}
	if err := Analyze(&buf, aggregate.Summary{}); !errors.Is(err, aggregate.ErrEmptyDataset) {
		t.Errorf("Analyze(empty) = %v, want ErrEmptyDataset", err)
	}
}

func TestChart(t *testing.T) {
	s, err := aggregate.Summarize(aggregate.Counts{Success: 10, HandledError: 5})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	Chart(&buf, s)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Chart() drew %d lines, want title plus 3 bars:\n%s", len(lines), buf.String())
	}
	if got := strings.Count(lines[1], "#"); got != chartWidth {
		t.Errorf("Success bar has %d marks, want %d", got, chartWidth)
	}
	if got := strings.Count(lines[2], "#"); got != chartWidth/2 {
		t.Errorf("HandledError bar has %d marks, want %d", got, chartWidth/2)
	}
	if got := strings.Count(lines[3], "#"); got != 0 {
		t.Errorf("Exception bar has %d marks, want 0", got)
	}
}
