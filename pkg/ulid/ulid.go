// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package ulid provides a ULID identity provider. IDs generated by one
// provider sort in generation order.
package ulid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/absmach/jelly"
	"github.com/absmach/jelly/pkg/errors"
	"github.com/oklog/ulid/v2"
)

// ErrGeneratingID indicates error in generating ULID.
var ErrGeneratingID = errors.New("generating id failed")

var _ jelly.IDProvider = (*ulidProvider)(nil)

type ulidProvider struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New instantiates a ULID provider.
func New() jelly.IDProvider {
	return &ulidProvider{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (up *ulidProvider) ID() (string, error) {
	up.mu.Lock()
	defer up.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), up.entropy)
	if err != nil {
		return "", errors.Wrap(ErrGeneratingID, err)
	}

	return id.String(), nil
}
