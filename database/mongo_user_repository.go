package database

import (
	"context"
	"fmt"
	"time"

	"pickem-go/logging"
	"pickem-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	db         *MongoDB
	collection *mongo.Collection
	picks      *mongo.Collection
	sequences  *Sequences
	logger     *logging.Logger
}

func NewMongoUserRepository(db *MongoDB) *MongoUserRepository {
	collection := db.GetCollection("users")
	logger := logging.WithPrefix("mongo_user_repo")

	ctx, cancel := WithShortTimeout(context.Background())
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Errorf("Failed to create username index: %v", err)
	}

	return &MongoUserRepository{
		db:         db,
		collection: collection,
		picks:      db.GetCollection("picks"),
		sequences:  NewSequences(db),
		logger:     logger,
	}
}

func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// CreateUser assigns the user an id and stores it. Taken usernames fail with ErrDuplicate.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	id, err := r.sequences.Next(ctx, "users")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = r.collection.InsertOne(ctx, user)
	return wrapWriteError(err, "failed to create user %s", user.Username)
}

func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	user.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"username":   user.Username,
		"password":   user.Password,
		"image_url":  user.ImageURL,
		"is_admin":   user.IsAdmin,
		"updated_at": user.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return wrapWriteError(err, "failed to update user %d", user.ID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %d not found", user.ID)
	}
	return nil
}

// DeleteUser removes the user and every pick they made
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id int) error {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.picks.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
			return fmt.Errorf("failed to delete picks for user %d: %w", id, err)
		}
		if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, err)
		}
		return nil
	})
}

func (r *MongoUserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	users, err := decodeAll[models.User](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
