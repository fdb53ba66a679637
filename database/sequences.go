package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequences hands out integer ids per collection from a counters collection
type Sequences struct {
	collection *mongo.Collection
}

type sequenceDoc struct {
	Name  string `bson:"_id"`
	Value int    `bson:"value"`
}

func NewSequences(db *MongoDB) *Sequences {
	return &Sequences{collection: db.GetCollection("counters")}
}

// Next returns the next id for name
func (s *Sequences) Next(ctx context.Context, name string) (int, error) {
	return s.NextBlock(ctx, name, 1)
}

// NextBlock reserves n consecutive ids for name and returns the first
func (s *Sequences) NextBlock(ctx context.Context, name string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid sequence block size %d", n)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc sequenceDoc
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": n}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve %d ids for %s: %w", n, name, err)
	}

	return doc.Value - n + 1, nil
}
