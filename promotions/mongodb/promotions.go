// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"

	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/absmach/jelly/promotions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type promotionRepository struct {
	db *mongo.Database
}

var _ promotions.Repository = (*promotionRepository)(nil)

// NewRepository instantiates a MongoDB implementation of promotion repository.
func NewRepository(db *mongo.Database) promotions.Repository {
	return &promotionRepository{
		db: db,
	}
}

func (pr *promotionRepository) Save(ctx context.Context, r promotions.Record) (promotions.Record, error) {
	coll := pr.db.Collection(promotionsCollection)

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return promotions.Record{}, errors.Wrap(repoerr.ErrConflict, err)
		}
		return promotions.Record{}, errors.Wrap(repoerr.ErrCreateEntity, err)
	}

	return r, nil
}

func (pr *promotionRepository) RetrieveByTarget(ctx context.Context, target primitive.ObjectID, profile *primitive.ObjectID) ([]promotions.Record, error) {
	filter := bson.D{{Key: "t", Value: target}}
	if profile != nil {
		filter = append(filter, bson.E{Key: "p", Value: *profile})
	}

	return pr.find(ctx, filter)
}

func (pr *promotionRepository) RetrieveByProfile(ctx context.Context, profile primitive.ObjectID) ([]promotions.Record, error) {
	return pr.find(ctx, bson.D{{Key: "p", Value: profile}})
}

func (pr *promotionRepository) Remove(ctx context.Context, target, profile *primitive.ObjectID) (int64, error) {
	coll := pr.db.Collection(promotionsCollection)

	filter := bson.D{}
	if target != nil {
		filter = append(filter, bson.E{Key: "t", Value: *target})
	}
	if profile != nil {
		filter = append(filter, bson.E{Key: "p", Value: *profile})
	}
	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(repoerr.ErrRemoveEntity, err)
	}

	return res.DeletedCount, nil
}

func (pr *promotionRepository) find(ctx context.Context, filter bson.D) ([]promotions.Record, error) {
	coll := pr.db.Collection(promotionsCollection)

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}
	defer cursor.Close(ctx)

	recs := []promotions.Record{}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(repoerr.ErrViewEntity, err)
	}

	return recs, nil
}
