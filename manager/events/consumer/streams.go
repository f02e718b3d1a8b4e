// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package consumer applies the membership events published by the platform
// adapters to the profile manager.
package consumer

import (
	"context"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/pkg/errors"
	svcerr "github.com/absmach/jelly/pkg/errors/service"
	"github.com/absmach/jelly/pkg/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StreamID is the stream the platform adapters publish membership events to.
const StreamID = "jelly.members"

const (
	memberPrefix = "member."
	memberJoin   = memberPrefix + "join"
	memberLeave  = memberPrefix + "leave"
	memberVote   = memberPrefix + "vote"
)

var errUnknownPlatform = errors.New("unknown platform")

type eventHandler struct {
	svc manager.Service
}

// NewEventHandler returns new event store handler.
func NewEventHandler(svc manager.Service) events.EventHandler {
	return &eventHandler{
		svc: svc,
	}
}

func (es *eventHandler) Handle(ctx context.Context, event events.Event) error {
	msg, err := event.Encode()
	if err != nil {
		return err
	}

	switch msg[events.OperationKey] {
	case memberJoin:
		je, err := decodeJoin(msg)
		if err != nil {
			return err
		}
		return es.handleJoin(ctx, je)
	case memberLeave:
		le, err := decodeLeave(msg)
		if err != nil {
			return err
		}
		es.svc.MarkUnavailableAsync(ctx, le.channel, le.user)
	case memberVote:
		ve, err := decodeVote(msg)
		if err != nil {
			return err
		}
		res := es.svc.RecordPromotion(ctx, ve.channel, ve.supporter, ve.target, ve.profile)
		if res.Outcome == outcomes.WriteExceptionOccurred {
			return res.Err
		}
	}

	return nil
}

func (es *eventHandler) handleJoin(ctx context.Context, je joinEvent) error {
	var name *string
	if je.name != "" {
		name = &je.name
	}
	res := es.svc.EnsureChannel(ctx, je.platform, je.token, name)
	if !res.Outcome.IsSuccess() {
		return errors.Wrap(svcerr.ErrCreateEntity, res.Err)
	}

	perms, err := es.svc.GetUserPermissions(ctx, res.Channel.ID, je.user)
	if err != nil {
		return err
	}
	if len(perms) == 0 {
		es.svc.RegisterNewDefaultAsync(ctx, res.Channel.ID, je.user)
	}

	return nil
}

type joinEvent struct {
	platform channels.Platform
	token    string
	name     string
	user     primitive.ObjectID
}

type leaveEvent struct {
	channel primitive.ObjectID
	user    primitive.ObjectID
}

type voteEvent struct {
	channel   primitive.ObjectID
	supporter primitive.ObjectID
	target    primitive.ObjectID
	profile   primitive.ObjectID
}

func decodeJoin(event map[string]interface{}) (joinEvent, error) {
	platform, ok := channels.ParsePlatform(events.Read(event, "platform", ""))
	if !ok {
		return joinEvent{}, errors.Wrap(svcerr.ErrMalformedEntity, errUnknownPlatform)
	}
	token := events.Read(event, "token", "")
	if token == "" {
		return joinEvent{}, svcerr.ErrMalformedEntity
	}
	user, err := readOID(event, "user")
	if err != nil {
		return joinEvent{}, err
	}

	return joinEvent{
		platform: platform,
		token:    token,
		name:     events.Read(event, "channel_name", ""),
		user:     user,
	}, nil
}

func decodeLeave(event map[string]interface{}) (leaveEvent, error) {
	oids, err := readOIDs(event, "channel", "user")
	if err != nil {
		return leaveEvent{}, err
	}

	return leaveEvent{channel: oids[0], user: oids[1]}, nil
}

func decodeVote(event map[string]interface{}) (voteEvent, error) {
	oids, err := readOIDs(event, "channel", "supporter", "target", "profile")
	if err != nil {
		return voteEvent{}, err
	}

	return voteEvent{channel: oids[0], supporter: oids[1], target: oids[2], profile: oids[3]}, nil
}

func readOIDs(event map[string]interface{}, keys ...string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(keys))
	for _, k := range keys {
		oid, err := readOID(event, k)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}

	return oids, nil
}

func readOID(event map[string]interface{}, key string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(events.Read(event, key, ""))
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(svcerr.ErrMalformedEntity, err)
	}

	return oid, nil
}
