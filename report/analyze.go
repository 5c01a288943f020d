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
	"fmt"
	"io"
	"strings"

	"github.com/google/go-tpm-fuzz/aggregate"
	"github.com/google/go-tpm-fuzz/outcome"
)

// Offline analysis warns on its own, looser thresholds.
const (
	analysisExceptionRate = 0.3
	analysisSuccessRate   = 0.4
)

// Analyze prints the offline analysis of a stored summary.
func Analyze(w io.Writer, s aggregate.Summary) error {
	if s.TotalTests == 0 {
		return aggregate.ErrEmptyDataset
	}
	fmt.Fprintln(w, "\n===== Fuzzing Results Analysis =====")
	fmt.Fprintf(w, "Total tests: %d\n", s.TotalTests)

	fmt.Fprintln(w, "\nResult Frequencies:")
	for _, class := range outcome.Classes {
		n := s.Results[class.String()]
		fmt.Fprintf(w, "  %v: %d (%.2f%%)\n", class, n, 100*float64(n)/float64(s.TotalTests))
	}

	fmt.Fprintln(w, "\nQuality Metrics:")
	fmt.Fprintf(w, "  Success rate: %.2f%%\n", 100*s.SuccessRate)
	fmt.Fprintf(w, "  Handled error rate: %.2f%%\n", 100*s.HandledErrorRate)
	fmt.Fprintf(w, "  Exception rate: %.2f%%\n", 100*s.ErrorRate)

	if s.ErrorRate > analysisExceptionRate {
		fmt.Fprintln(w, "\n[!] Warning: High exception rate detected.")
	}
	if s.SuccessRate < analysisSuccessRate {
		fmt.Fprintln(w, "\n[!] Warning: Low success rate may indicate over-rejection.")
	}
	return nil
}

const chartWidth = 50

// Chart draws the class distribution of s as a horizontal bar chart.
func Chart(w io.Writer, s aggregate.Summary) {
	fmt.Fprintln(w, "\nFuzzing Result Distribution")
	peak := 0
	for _, n := range s.Results {
		if n > peak {
			peak = n
		}
	}
	for _, class := range outcome.Classes {
		n := s.Results[class.String()]
		bar := 0
		if peak > 0 {
			bar = n * chartWidth / peak
		}
		fmt.Fprintf(w, "  %-12s |%-*s %d\n", class, chartWidth, strings.Repeat("#", bar), n)
	}
}
