// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"
	"regexp"

	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/absmach/jelly/profiles"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type profileRepository struct {
	db *mongo.Database
}

var _ profiles.Repository = (*profileRepository)(nil)

// NewRepository instantiates a MongoDB implementation of profile repository.
func NewRepository(db *mongo.Database) profiles.Repository {
	return &profileRepository{
		db: db,
	}
}

func (pr *profileRepository) Save(ctx context.Context, p profiles.Profile) (profiles.Profile, error) {
	coll := pr.db.Collection(profilesCollection)

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return profiles.Profile{}, errors.Wrap(repoerr.ErrConflict, err)
		}
		return profiles.Profile{}, errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return p, nil
}

func (pr *profileRepository) RetrieveByID(ctx context.Context, id primitive.ObjectID) (profiles.Profile, error) {
	return pr.retrieve(ctx, bson.D{{Key: "_id", Value: id}})
}

func (pr *profileRepository) RetrieveByName(ctx context.Context, channel primitive.ObjectID, name string) (profiles.Profile, error) {
	return pr.retrieve(ctx, bson.D{{Key: "c", Value: channel}, {Key: "n", Value: name}})
}

func (pr *profileRepository) RetrieveAll(ctx context.Context, ids []primitive.ObjectID) ([]profiles.Profile, error) {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return pr.find(ctx, filter, nil)
}

func (pr *profileRepository) RetrieveByChannel(ctx context.Context, channel primitive.ObjectID, nameSubstring string) ([]profiles.Profile, error) {
	filter := bson.D{{Key: "c", Value: channel}}
	if nameSubstring != "" {
		filter = append(filter, bson.E{Key: "n", Value: primitive.Regex{Pattern: regexp.QuoteMeta(nameSubstring), Options: "i"}})
	}
	return pr.find(ctx, filter, bson.D{{Key: "n", Value: 1}})
}

func (pr *profileRepository) RetrieveAttachable(ctx context.Context, channel primitive.ObjectID, forbidden []permissions.Code, highest permissions.Level) ([]profiles.Profile, error) {
	filter := bson.D{
		{Key: "c", Value: channel},
		{Key: "pls", Value: bson.D{{Key: "$lte", Value: highest}}},
	}
	for _, c := range forbidden {
		filter = append(filter, bson.E{Key: "p." + c.Key(), Value: bson.D{{Key: "$ne", Value: true}}})
	}
	return pr.find(ctx, filter, bson.D{{Key: "n", Value: 1}})
}

func (pr *profileRepository) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	coll := pr.db.Collection(profilesCollection)

	set := bson.D{}
	for key, value := range fields {
		set = append(set, bson.E{Key: key, Value: value})
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, 0, errors.Wrap(repoerr.ErrConflict, err)
		}
		return 0, 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.MatchedCount, res.ModifiedCount, nil
}

func (pr *profileRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	coll := pr.db.Collection(profilesCollection)

	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrap(repoerr.ErrRemoveEntity, err)
	}
	if res.DeletedCount < 1 {
		return repoerr.ErrNotFound
	}

	return nil
}

func (pr *profileRepository) FillPermission(ctx context.Context, code permissions.Code, level permissions.Level, value bool) (int64, error) {
	coll := pr.db.Collection(profilesCollection)

	key := "p." + code.Key()
	filter := bson.D{
		{Key: "pls", Value: level},
		{Key: key, Value: bson.D{{Key: "$exists", Value: false}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: key, Value: value}}}}
	res, err := coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(repoerr.ErrUpdateEntity, err)
	}

	return res.ModifiedCount, nil
}

func (pr *profileRepository) retrieve(ctx context.Context, filter bson.D) (profiles.Profile, error) {
	coll := pr.db.Collection(profilesCollection)

	var p profiles.Profile
	if err := coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return profiles.Profile{}, repoerr.ErrNotFound
		}
		return profiles.Profile{}, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return p, nil
}

func (pr *profileRepository) find(ctx context.Context, filter, sort bson.D) ([]profiles.Profile, error) {
	coll := pr.db.Collection(profilesCollection)

	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}
	defer cur.Close(ctx)

	results := []profiles.Profile{}
	for cur.Next(ctx) {
		var p profiles.Profile
		if err := cur.Decode(&p); err != nil {
			return nil, errors.Wrap(repoerr.ErrViewEntity, err)
		}
		results = append(results, p)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return results, nil
}
