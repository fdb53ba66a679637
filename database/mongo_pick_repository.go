package database

import (
	"context"
	"fmt"

	"pickem-go/logging"
	"pickem-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPickRepository implements PickRepository for MongoDB
type MongoPickRepository struct {
	collection *mongo.Collection
	sequences  *Sequences
	logger     *logging.Logger
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	collection := db.GetCollection("picks")
	logger := logging.WithPrefix("mongo_pick_repo")

	ctx, cancel := WithShortTimeout(context.Background())
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			// one pick per user per game
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "game_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "game_id", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warnf("Could not create pick indexes: %v", err)
	}

	return &MongoPickRepository{
		collection: collection,
		sequences:  NewSequences(db),
		logger:     logger,
	}
}

// CreatePick inserts a pick and assigns its id. A second pick for the same
// user and game fails with ErrDuplicate.
func (r *MongoPickRepository) CreatePick(ctx context.Context, pick *models.Pick) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	id, err := r.sequences.Next(ctx, "picks")
	if err != nil {
		return err
	}
	pick.ID = id

	_, err = r.collection.InsertOne(ctx, pick)
	return wrapWriteError(err, "failed to create pick for user %d game %d", pick.UserID, pick.GameID)
}

func (r *MongoPickRepository) GetPickByUserAndGame(ctx context.Context, userID, gameID int) (*models.Pick, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var pick models.Pick
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "game_id": gameID}).Decode(&pick)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pick: %w", err)
	}
	return &pick, nil
}

func (r *MongoPickRepository) GetPicksByUser(ctx context.Context, userID int) ([]*models.Pick, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoPickRepository) GetAllPicks(ctx context.Context) ([]*models.Pick, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoPickRepository) find(ctx context.Context, filter bson.M) ([]*models.Pick, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find picks: %w", err)
	}
	picks, err := decodeAll[models.Pick](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}

func (r *MongoPickRepository) DeletePicksByUser(ctx context.Context, userID int) (int64, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete picks for user %d: %w", userID, err)
	}
	return res.DeletedCount, nil
}
