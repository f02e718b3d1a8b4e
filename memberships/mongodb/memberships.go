// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"

	"github.com/absmach/jelly/memberships"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// available matches connections of current members.
var available = bson.E{Key: "p.0", Value: bson.D{{Key: "$exists", Value: true}}}

type connectionRepository struct {
	db *mongo.Database
}

var _ memberships.Repository = (*connectionRepository)(nil)

// NewRepository instantiates a MongoDB implementation of connection repository.
func NewRepository(db *mongo.Database) memberships.Repository {
	return &connectionRepository{
		db: db,
	}
}

func (cr *connectionRepository) Attach(ctx context.Context, channel, user primitive.ObjectID, profiles []primitive.ObjectID) error {
	coll := cr.db.Collection(connectionsCollection)

	filter := bson.D{{Key: "c", Value: channel}, {Key: "u", Value: user}}
	update := bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "p", Value: bson.D{{Key: "$each", Value: profiles}}}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "s", Value: false}}},
	}
	if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return nil
}

func (cr *connectionRepository) Retrieve(ctx context.Context, channel, user primitive.ObjectID) (memberships.Connection, error) {
	coll := cr.db.Collection(connectionsCollection)

	var c memberships.Connection
	filter := bson.D{{Key: "c", Value: channel}, {Key: "u", Value: user}}
	if err := coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return memberships.Connection{}, repoerr.ErrNotFound
		}
		return memberships.Connection{}, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return c, nil
}

func (cr *connectionRepository) RetrieveByUser(ctx context.Context, user primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	filter := bson.D{{Key: "u", Value: user}}
	if availableOnly {
		filter = append(filter, available)
	}

	return cr.find(ctx, filter, bson.D{{Key: "s", Value: -1}, {Key: "_id", Value: -1}})
}

func (cr *connectionRepository) RetrieveByChannels(ctx context.Context, channels []primitive.ObjectID, availableOnly bool) ([]memberships.Connection, error) {
	filter := bson.D{{Key: "c", Value: bson.D{{Key: "$in", Value: channels}}}}
	if availableOnly {
		filter = append(filter, available)
	}

	return cr.find(ctx, filter, bson.D{{Key: "_id", Value: -1}})
}

func (cr *connectionRepository) RetrieveAvailable(ctx context.Context) ([]memberships.Connection, error) {
	return cr.find(ctx, bson.D{available}, bson.D{{Key: "_id", Value: -1}})
}

func (cr *connectionRepository) ChannelMap(ctx context.Context, users []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "u", Value: bson.D{{Key: "$in", Value: users}}}, available}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$u"},
			{Key: "ids", Value: bson.D{{Key: "$addToSet", Value: "$c"}}},
		}}},
	}

	return cr.group(ctx, pipeline)
}

func (cr *connectionRepository) ProfileMembers(ctx context.Context, profiles []primitive.ObjectID) (map[primitive.ObjectID]memberships.IDSet, error) {
	in := bson.D{{Key: "p", Value: bson.D{{Key: "$in", Value: profiles}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: in}},
		{{Key: "$unwind", Value: "$p"}},
		{{Key: "$match", Value: in}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$p"},
			{Key: "ids", Value: bson.D{{Key: "$addToSet", Value: "$u"}}},
		}}},
	}

	return cr.group(ctx, pipeline)
}

func (cr *connectionRepository) Count(ctx context.Context, channel primitive.ObjectID, user *primitive.ObjectID, availableOnly bool) (int64, error) {
	coll := cr.db.Collection(connectionsCollection)

	filter := bson.D{{Key: "c", Value: channel}}
	if user != nil {
		filter = append(filter, bson.E{Key: "u", Value: *user})
	}
	if availableOnly {
		filter = append(filter, available)
	}
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return n, nil
}

func (cr *connectionRepository) ClearProfiles(ctx context.Context, channel, user primitive.ObjectID) (int64, int64, error) {
	coll := cr.db.Collection(connectionsCollection)

	filter := bson.D{{Key: "c", Value: channel}, {Key: "u", Value: user}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "p", Value: []primitive.ObjectID{}}}}}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.MatchedCount, res.ModifiedCount, nil
}

func (cr *connectionRepository) PullProfile(ctx context.Context, profile primitive.ObjectID, user *primitive.ObjectID) (int64, int64, error) {
	coll := cr.db.Collection(connectionsCollection)

	filter := bson.D{{Key: "p", Value: profile}}
	if user != nil {
		filter = append(filter, bson.E{Key: "u", Value: *user})
	}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "p", Value: profile}}}}
	res, err := coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.MatchedCount, res.ModifiedCount, nil
}

func (cr *connectionRepository) UpdateStar(ctx context.Context, channel, user primitive.ObjectID, starred bool) (int64, error) {
	coll := cr.db.Collection(connectionsCollection)

	filter := bson.D{{Key: "c", Value: channel}, {Key: "u", Value: user}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "s", Value: starred}}}}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.ModifiedCount, nil
}

func (cr *connectionRepository) find(ctx context.Context, filter, sort bson.D) ([]memberships.Connection, error) {
	coll := cr.db.Collection(connectionsCollection)

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}
	defer cursor.Close(ctx)

	conns := []memberships.Connection{}
	if err := cursor.All(ctx, &conns); err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return conns, nil
}

type idGroup struct {
	ID  primitive.ObjectID   `bson:"_id"`
	IDs []primitive.ObjectID `bson:"ids"`
}

func (cr *connectionRepository) group(ctx context.Context, pipeline mongo.Pipeline) (map[primitive.ObjectID]memberships.IDSet, error) {
	coll := cr.db.Collection(connectionsCollection)

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}
	defer cursor.Close(ctx)

	var groups []idGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	ret := make(map[primitive.ObjectID]memberships.IDSet, len(groups))
	for _, g := range groups {
		ret[g.ID] = memberships.NewIDSet(g.IDs...)
	}

	return ret, nil
}
