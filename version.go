// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package jelly

import (
	"encoding/json"
	"net/http"
)

const (
	// Version represents the last service git tag in git history.
	Version = "0.1.0"

	contentType = "application/health+json"
	statusOK    = "pass"
	description = " service"
)

// HealthInfo contains version endpoint response.
type HealthInfo struct {
	// Status contains service status.
	Status string `json:"status"`

	// Version contains current service version.
	Version string `json:"version"`

	// Description contains service description.
	Description string `json:"description"`

	// InstanceID contains the ID of the current service instance.
	InstanceID string `json:"instance_id"`
}

// Health exposes an HTTP handler for retrieving service health.
func Health(service, instanceID string) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Content-Type", contentType)

		res := HealthInfo{
			Status:      statusOK,
			Version:     Version,
			Description: service + description,
			InstanceID:  instanceID,
		}

		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(res); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
}
