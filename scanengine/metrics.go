/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scanengine

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the counters a long-running scan exposes over /metrics,
// one shared registry across every worker goroutine.
type Metrics struct {
	TargetsFinished  prometheus.Counter
	RateKoDReceived  prometheus.Counter
	DenyRstrReceived prometheus.Counter
	MonlistSupported prometheus.Counter
	VariablesOK      prometheus.Counter
}

// NewMetrics builds and registers the scan counters against registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TargetsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntpfp_targets_finished_total",
			Help: "Targets that reached the done phase.",
		}),
		RateKoDReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntpfp_rate_kod_total",
			Help: "Finished targets that received at least one RATE Kiss-o'-Death reply.",
		}),
		DenyRstrReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntpfp_deny_rstr_total",
			Help: "Finished targets whose reported refid is DENY or RSTR.",
		}),
		MonlistSupported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntpfp_monlist_supported_total",
			Help: "Targets that answered the mode 7 monlist probe.",
		}),
		VariablesOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntpfp_variables_ok_total",
			Help: "Targets that answered the mode 6 READVAR probe.",
		}),
	}
	registry.MustRegister(
		m.TargetsFinished,
		m.RateKoDReceived,
		m.DenyRstrReceived,
		m.MonlistSupported,
		m.VariablesOK,
	)
	return m
}

// observe folds one finished target's result into the shared counters.
// A nil Metrics is valid and simply skips counting, so callers that run
// without --metrics-port don't need to special-case it.
func (m *Metrics) observe(r ScanResult) {
	if m == nil {
		return
	}
	m.TargetsFinished.Inc()
	if r.RateKoD {
		m.RateKoDReceived.Inc()
	}
	if r.RefID == "DENY" || r.RefID == "RSTR" {
		m.DenyRstrReceived.Inc()
	}
	if r.Monlist {
		m.MonlistSupported.Inc()
	}
	if r.Variables {
		m.VariablesOK.Inc()
	}
}
