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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/go-tpm-fuzz/aggregate"
)

// WriteSummary stores s as indented JSON at path.
func WriteSummary(path string, s aggregate.Summary) error {
	b, err := sonic.ConfigStd.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0644)
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (aggregate.Summary, error) {
	var s aggregate.Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := sonic.ConfigStd.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decoding summary %s: %w", path, err)
	}
	if _, err := s.Counts(); err != nil {
		return s, fmt.Errorf("summary %s: %w", path, err)
	}
	return s, nil
}

// WriteAlert writes one line per anomaly to path. With no anomalies it
// removes any alert left by an earlier run instead.
func WriteAlert(path string, anomalies []aggregate.Anomaly) error {
	if len(anomalies) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	var sb strings.Builder
	for _, a := range anomalies {
		sb.WriteString(a.Message())
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// PrintAlert writes the console form of an alert.
func PrintAlert(w io.Writer, anomalies []aggregate.Anomaly) {
	if len(anomalies) == 0 {
		return
	}
	fmt.Fprintln(w, "\n[ALERT] Critical anomalies detected:")
	for _, a := range anomalies {
		fmt.Fprintf(w, "  - %s\n", a.Message())
	}
}
