// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync"

	"github.com/absmach/jelly/manager"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ manager.Notifier = (*Notifier)(nil)

// Notifier records every report it receives.
type Notifier struct {
	mu       sync.Mutex
	dangling []manager.DanglingMap
	errs     map[string][]error
}

// NewNotifier returns an empty recording notifier.
func NewNotifier() *Notifier {
	return &Notifier{errs: map[string][]error{}}
}

func (n *Notifier) ReportDangling(_ context.Context, _ primitive.ObjectID, dangling manager.DanglingMap) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.dangling = append(n.dangling, dangling)

	return nil
}

func (n *Notifier) ReportError(_ context.Context, task string, err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.errs[task] = append(n.errs[task], err)

	return nil
}

// Dangling returns the dangling reports in arrival order.
func (n *Notifier) Dangling() []manager.DanglingMap {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]manager.DanglingMap{}, n.dangling...)
}

// Errors returns the errors reported for task.
func (n *Notifier) Errors(task string) []error {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]error{}, n.errs[task]...)
}
