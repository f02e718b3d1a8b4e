// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package prometheus provides go-kit metrics backed by the default
// Prometheus registry.
package prometheus

import (
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// OperationLabel is the single label of the operation metrics.
const OperationLabel = "operation"

// MakeMetrics registers an operation counter and an operation latency
// summary (seconds) under namespace and subsystem.
func MakeMetrics(namespace, subsystem string) (*kitprometheus.Counter, *kitprometheus.Summary) {
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "operation_count",
		Help:      "Number of operations handled.",
	}, []string{OperationLabel})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace:  namespace,
		Subsystem:  subsystem,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		Name:       "operation_latency_seconds",
		Help:       "Duration of operations in seconds.",
	}, []string{OperationLabel})

	return counter, latency
}
