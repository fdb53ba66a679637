package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common timeout durations for database operations
const (
	// ShortTimeout for single document reads and writes
	ShortTimeout = 5 * time.Second

	// MediumTimeout for queries that return many documents
	MediumTimeout = 10 * time.Second

	// LongTimeout for bulk writes such as a reconciliation pass or seeding
	LongTimeout = 30 * time.Second
)

// WithShortTimeout derives a context with ShortTimeout from parent
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}

// WithMediumTimeout derives a context with MediumTimeout from parent
func WithMediumTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, MediumTimeout)
}

// WithLongTimeout derives a context with LongTimeout from parent
func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, LongTimeout)
}

// decodeAll drains a cursor into a slice of T pointers
func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	out := []*T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
