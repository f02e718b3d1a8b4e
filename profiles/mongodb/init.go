// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const profilesCollection = "profile"

// EnsureIndexes creates the profile collection indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(profilesCollection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "c", Value: 1}, {Key: "n", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "c", Value: 1}, {Key: "pls", Value: 1}},
		},
	})

	return err
}
