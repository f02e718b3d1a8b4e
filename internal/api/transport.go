// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/absmach/jelly"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MakeHandler returns a HTTP handler with health check and metrics.
func MakeHandler(svcName, instanceID string) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/health", otelhttp.NewHandler(jelly.Health(svcName, instanceID), "health").ServeHTTP)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
