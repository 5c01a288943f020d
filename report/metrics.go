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
	"github.com/google/go-tpm-fuzz/aggregate"
	"github.com/google/go-tpm-fuzz/outcome"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts records per class for the node exporter textfile
// collector.
type Metrics struct {
	reg       *prometheus.Registry
	outcomes  *prometheus.CounterVec
	anomalies *prometheus.GaugeVec
}

// NewMetrics returns Metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tpmfuzz_outcomes_total",
			Help: "Fuzzing iterations by outcome class.",
		}, []string{"class"}),
		anomalies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tpmfuzz_anomaly",
			Help: "1 if the run exhibits the anomaly, 0 otherwise.",
		}, []string{"kind"}),
	}
	m.reg.MustRegister(m.outcomes, m.anomalies)
	for _, c := range outcome.Classes {
		m.outcomes.WithLabelValues(c.String())
	}
	for _, a := range []aggregate.Anomaly{aggregate.HighExceptionRate, aggregate.LowSuccessRate} {
		m.anomalies.WithLabelValues(a.String()).Set(0)
	}
	return m
}

// Emit implements Sink.
func (m *Metrics) Emit(r outcome.Record) error {
	m.outcomes.WithLabelValues(r.Class.String()).Inc()
	return nil
}

// SetAnomalies raises the gauge of every anomaly found.
func (m *Metrics) SetAnomalies(found []aggregate.Anomaly) {
	for _, a := range found {
		m.anomalies.WithLabelValues(a.String()).Set(1)
	}
}

// Registry exposes the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteTextfile writes the metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
