// Copyright 2019 The go-ultiledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mint

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ultmint"

// Metrics of the orchestrator.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Steps       *prometheus.HistogramVec
	Submissions *prometheus.CounterVec
	Retries     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
// unless reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Orchestration runs by flow and final state.",
		}, []string{"flow", "state"}),
		Steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of orchestration steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "status"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Ledger submissions by result code.",
		}, []string{"code"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_retries_total",
			Help:      "Submissions retried after a sequence conflict.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Steps, m.Submissions, m.Retries)
	}
	return m
}
