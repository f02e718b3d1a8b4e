// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"

	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/pkg/events"
	"github.com/absmach/jelly/profiles"
)

// Backend holds what the commands operate on.
type Backend struct {
	Service    manager.Service
	Profiles   profiles.Store
	Indexes    func(ctx context.Context) error
	Subscriber events.Subscriber
}

var backend Backend

// SetBackend sets the backend the commands use.
func SetBackend(b Backend) {
	backend = b
}
