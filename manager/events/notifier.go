// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"

	"github.com/absmach/jelly"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/pkg/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ manager.Notifier = (*notifier)(nil)

type notifier struct {
	publisher events.Publisher
	idp       jelly.IDProvider
}

// NewNotifier returns a notifier publishing every report as an event with
// a unique id.
func NewNotifier(publisher events.Publisher, idp jelly.IDProvider) manager.Notifier {
	return &notifier{
		publisher: publisher,
		idp:       idp,
	}
}

func (n *notifier) ReportDangling(ctx context.Context, user primitive.ObjectID, dangling manager.DanglingMap) error {
	id, err := n.idp.ID()
	if err != nil {
		return err
	}

	return n.publisher.Publish(ctx, danglingEvent{id: id, user: user, dangling: dangling})
}

func (n *notifier) ReportError(ctx context.Context, task string, err error) error {
	id, ierr := n.idp.ID()
	if ierr != nil {
		return ierr
	}

	return n.publisher.Publish(ctx, taskErrorEvent{id: id, task: task, err: err})
}
