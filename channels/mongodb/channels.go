// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"
	"regexp"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type channelRepository struct {
	db *mongo.Database
}

var _ channels.Repository = (*channelRepository)(nil)

// NewRepository instantiates a MongoDB implementation of channel repository.
func NewRepository(db *mongo.Database) channels.Repository {
	return &channelRepository{
		db: db,
	}
}

func (cr *channelRepository) Save(ctx context.Context, ch channels.Channel) (channels.Channel, error) {
	coll := cr.db.Collection(channelsCollection)

	if ch.ID.IsZero() {
		ch.ID = primitive.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, ch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return channels.Channel{}, errors.Wrap(repoerr.ErrConflict, err)
		}
		return channels.Channel{}, errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return ch, nil
}

func (cr *channelRepository) RetrieveByID(ctx context.Context, id primitive.ObjectID) (channels.Channel, error) {
	return cr.retrieve(ctx, bson.D{{Key: "_id", Value: id}})
}

func (cr *channelRepository) RetrieveByToken(ctx context.Context, platform channels.Platform, token string) (channels.Channel, error) {
	return cr.retrieve(ctx, bson.D{{Key: "p", Value: platform}, {Key: "t", Value: token}})
}

func (cr *channelRepository) RetrieveAll(ctx context.Context, ids []primitive.ObjectID, accessibleOnly bool) ([]channels.Channel, error) {
	coll := cr.db.Collection(channelsCollection)

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if accessibleOnly {
		filter = append(filter, bson.E{Key: "acc", Value: true})
	}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return decodeChannels(ctx, cur)
}

func (cr *channelRepository) RetrieveByKeyword(ctx context.Context, keyword string, hidePrivate bool) ([]channels.Channel, error) {
	coll := cr.db.Collection(channelsCollection)

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "t", Value: pattern}},
		bson.D{{Key: "c.d-name", Value: pattern}},
	}}}
	if hidePrivate {
		filter = append(filter, bson.E{Key: "c.prv", Value: false})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return decodeChannels(ctx, cur)
}

func (cr *channelRepository) UpdateAccessibility(ctx context.Context, platform channels.Platform, token string, accessible bool) (int64, int64, error) {
	coll := cr.db.Collection(channelsCollection)

	filter := bson.D{{Key: "p", Value: platform}, {Key: "t", Value: token}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "acc", Value: accessible}}}}
	res, err := coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.MatchedCount, res.ModifiedCount, nil
}

func (cr *channelRepository) UpdateNickname(ctx context.Context, id, user primitive.ObjectID, name string) (channels.Channel, error) {
	coll := cr.db.Collection(channelsCollection)

	key := "n." + user.Hex()
	update := bson.D{{Key: "$set", Value: bson.D{{Key: key, Value: name}}}}
	if name == "" {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: key, Value: ""}}}}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ch channels.Channel
	if err := coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return channels.Channel{}, repoerr.ErrNotFound
		}
		return channels.Channel{}, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return ch, nil
}

func (cr *channelRepository) UpdateConfig(ctx context.Context, id primitive.ObjectID, key string, value any) (int64, int64, error) {
	coll := cr.db.Collection(channelsCollection)

	field := "c." + key
	update := bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}}
	if value == nil {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: field, Value: ""}}}}
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return 0, 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.MatchedCount, res.ModifiedCount, nil
}

func (cr *channelRepository) Count(ctx context.Context, accessibleOnly bool) (int64, error) {
	coll := cr.db.Collection(channelsCollection)

	filter := bson.D{}
	if accessibleOnly {
		filter = append(filter, bson.E{Key: "acc", Value: true})
	}
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return n, nil
}

func (cr *channelRepository) retrieve(ctx context.Context, filter bson.D) (channels.Channel, error) {
	coll := cr.db.Collection(channelsCollection)

	var ch channels.Channel
	if err := coll.FindOne(ctx, filter).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return channels.Channel{}, repoerr.ErrNotFound
		}
		return channels.Channel{}, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return ch, nil
}

func decodeChannels(ctx context.Context, cur *mongo.Cursor) ([]channels.Channel, error) {
	defer cur.Close(ctx)

	results := []channels.Channel{}
	for cur.Next(ctx) {
		var ch channels.Channel
		if err := cur.Decode(&ch); err != nil {
			return nil, errors.Wrap(repoerr.ErrViewEntity, err)
		}
		results = append(results, ch)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return results, nil
}
