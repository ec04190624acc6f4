package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roles-server/models"
)

// Archive keeps a copy of the last successful ingestion.
type Archive interface {
	ReplaceAll(ctx context.Context, places []models.Place) error
	Count(ctx context.Context) (int64, error)
}

// MongoArchive stores the snapshot in one collection, replaced wholesale
// on every ingestion.
type MongoArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoArchive(ctx context.Context, uri, database string) (*MongoArchive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return &MongoArchive{
		client:     client,
		collection: client.Database(database).Collection("places"),
	}, nil
}

// ReplaceAll swaps the stored snapshot inside a transaction when the
// deployment supports one, so readers never see a half-written set.
func (a *MongoArchive) ReplaceAll(ctx context.Context, places []models.Place) error {
	docs := make([]any, 0, len(places))
	for _, p := range places {
		docs = append(docs, p)
	}

	replace := func(ctx context.Context) error {
		if _, err := a.collection.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		opts := options.InsertMany().SetOrdered(false)
		if _, err := a.collection.InsertMany(ctx, docs, opts); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	}

	session, err := a.client.StartSession()
	if err != nil {
		return replace(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, replace(sc)
	})
	if err != nil {
		// Standalone servers reject transactions.
		return replace(ctx)
	}
	return nil
}

func (a *MongoArchive) Count(ctx context.Context) (int64, error) {
	return a.collection.CountDocuments(ctx, bson.M{})
}

func (a *MongoArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
