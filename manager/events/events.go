// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"github.com/absmach/jelly/manager"
	"github.com/absmach/jelly/pkg/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	profilePrefix   = "profile."
	profileRegister = profilePrefix + "register"
	profileUpdate   = profilePrefix + "update"
	profileAttach   = profilePrefix + "attach"
	profileDetach   = profilePrefix + "detach"
	profileDelete   = profilePrefix + "delete"

	channelEnsure  = "channel.ensure"
	memberStar     = "member.star"
	promotionVote  = "promotion.vote"
	danglingReport = "dangling.report"
	taskError      = "task.error"
)

var (
	_ events.Event = (*registerProfileEvent)(nil)
	_ events.Event = (*updateProfileEvent)(nil)
	_ events.Event = (*membershipEvent)(nil)
	_ events.Event = (*deleteProfileEvent)(nil)
	_ events.Event = (*ensureChannelEvent)(nil)
	_ events.Event = (*starEvent)(nil)
	_ events.Event = (*promotionEvent)(nil)
	_ events.Event = (*danglingEvent)(nil)
	_ events.Event = (*taskErrorEvent)(nil)
)

type registerProfileEvent struct {
	user    primitive.ObjectID
	channel primitive.ObjectID
	profile primitive.ObjectID
	name    string
	level   string
	attach  string
}

func (rpe registerProfileEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		events.OperationKey: profileRegister,
		"user":              rpe.user.Hex(),
		"channel":           rpe.channel.Hex(),
		"profile":           rpe.profile.Hex(),
		"name":              rpe.name,
		"level":             rpe.level,
		"attach":            rpe.attach,
	}, nil
}

type updateProfileEvent struct {
	channel  primitive.ObjectID
	executor primitive.ObjectID
	profile  primitive.ObjectID
	fields   []string
}

func (upe updateProfileEvent) Encode() (map[string]interface{}, error) {
	val := map[string]interface{}{
		events.OperationKey: profileUpdate,
		"channel":           upe.channel.Hex(),
		"executor":          upe.executor.Hex(),
		"profile":           upe.profile.Hex(),
	}
	if len(upe.fields) > 0 {
		val["fields"] = upe.fields
	}

	return val, nil
}

type membershipEvent struct {
	operation string
	channel   primitive.ObjectID
	executor  primitive.ObjectID
	profile   *primitive.ObjectID
	name      string
	target    *primitive.ObjectID
}

func (me membershipEvent) Encode() (map[string]interface{}, error) {
	val := map[string]interface{}{
		events.OperationKey: me.operation,
		"channel":           me.channel.Hex(),
		"executor":          me.executor.Hex(),
	}
	if me.profile != nil {
		val["profile"] = me.profile.Hex()
	}
	if me.name != "" {
		val["name"] = me.name
	}
	if me.target != nil {
		val["target"] = me.target.Hex()
	}

	return val, nil
}

type deleteProfileEvent struct {
	channel  primitive.ObjectID
	executor primitive.ObjectID
	profile  primitive.ObjectID
}

func (dpe deleteProfileEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		events.OperationKey: profileDelete,
		"channel":           dpe.channel.Hex(),
		"executor":          dpe.executor.Hex(),
		"profile":           dpe.profile.Hex(),
	}, nil
}

type ensureChannelEvent struct {
	channel  primitive.ObjectID
	platform string
	profile  *primitive.ObjectID
}

func (ece ensureChannelEvent) Encode() (map[string]interface{}, error) {
	val := map[string]interface{}{
		events.OperationKey: channelEnsure,
		"channel":           ece.channel.Hex(),
		"platform":          ece.platform,
	}
	if ece.profile != nil {
		val["default_profile"] = ece.profile.Hex()
	}

	return val, nil
}

type starEvent struct {
	channel primitive.ObjectID
	user    primitive.ObjectID
	starred bool
}

func (se starEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		events.OperationKey: memberStar,
		"channel":           se.channel.Hex(),
		"user":              se.user.Hex(),
		"starred":           se.starred,
	}, nil
}

type promotionEvent struct {
	channel   primitive.ObjectID
	supporter primitive.ObjectID
	target    primitive.ObjectID
	profile   primitive.ObjectID
}

func (pe promotionEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		events.OperationKey: promotionVote,
		"channel":           pe.channel.Hex(),
		"supporter":         pe.supporter.Hex(),
		"target":            pe.target.Hex(),
		"profile":           pe.profile.Hex(),
	}, nil
}

type danglingEvent struct {
	id       string
	user     primitive.ObjectID
	dangling manager.DanglingMap
}

func (de danglingEvent) Encode() (map[string]interface{}, error) {
	conns := make(map[string]interface{}, len(de.dangling))
	for id, d := range de.dangling {
		entry := map[string]interface{}{}
		if d.Channel != nil {
			entry["channel"] = d.Channel.Hex()
		}
		if len(d.Profiles) > 0 {
			profs := make([]string, 0, len(d.Profiles))
			for _, p := range d.Profiles {
				profs = append(profs, p.Hex())
			}
			entry["profiles"] = profs
		}
		conns[id.Hex()] = entry
	}

	return map[string]interface{}{
		events.OperationKey: danglingReport,
		"id":                de.id,
		"user":              de.user.Hex(),
		"connections":       conns,
	}, nil
}

type taskErrorEvent struct {
	id   string
	task string
	err  error
}

func (tee taskErrorEvent) Encode() (map[string]interface{}, error) {
	return map[string]interface{}{
		events.OperationKey: taskError,
		"id":                tee.id,
		"task":              tee.task,
		"error":             tee.err.Error(),
	}, nil
}
