/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeResolved    = "resolved"
	outcomeFailed      = "failed"
	outcomeUnsupported = "unsupported"

	// method label of all DIDs without a handler
	unsupportedMethodLabel = "unsupported"
)

type metrics struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of DID resolutions by method and outcome",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "identity",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of DID resolutions by method",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method"}),
	}

	reg.MustRegister(m.resolutions, m.duration)

	return m
}

// observe is a no-op on a nil receiver, which is the Resolver default.
func (m *metrics) observe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}

	m.resolutions.WithLabelValues(method, outcome).Inc()

	if outcome != outcomeUnsupported {
		m.duration.WithLabelValues(method).Observe(d.Seconds())
	}
}
