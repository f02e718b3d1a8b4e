// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const promotionsCollection = "promo"

// EnsureIndexes creates the promotion collection indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(promotionsCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "s", Value: 1}, {Key: "t", Value: 1}, {Key: "p", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}
