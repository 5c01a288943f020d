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

package aggregate

import "fmt"

// DefaultThreshold is the anomaly threshold used when none is configured.
const DefaultThreshold = 0.3

// Anomaly is a finding about a run's rates. Findings are informational; they
// never stop a run.
type Anomaly int

const (
	// HighExceptionRate flags an exception rate above the threshold.
	HighExceptionRate Anomaly = iota + 1
	// LowSuccessRate flags a success rate below 1 - threshold.
	LowSuccessRate
)

func (a Anomaly) String() string {
	switch a {
	case HighExceptionRate:
		return "HighExceptionRate"
	case LowSuccessRate:
		return "LowSuccessRate"
	}
	return fmt.Sprintf("Anomaly(%d)", int(a))
}

// Message is the human-readable alert line for a.
func (a Anomaly) Message() string {
	switch a {
	case HighExceptionRate:
		return "Critically high exception rate detected."
	case LowSuccessRate:
		return "Unusually low success rate detected."
	}
	return a.String()
}

// IsCritical returns the anomalies s exhibits under threshold, in a fixed
// order and without duplicates. A nil result means the run looks healthy.
func IsCritical(s Summary, threshold float64) []Anomaly {
	var found []Anomaly
	if s.ErrorRate > threshold {
		found = append(found, HighExceptionRate)
	}
	if s.SuccessRate < 1-threshold {
		found = append(found, LowSuccessRate)
	}
	return found
}
