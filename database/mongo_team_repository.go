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

type MongoTeamRepository struct {
	collection *mongo.Collection
	sequences  *Sequences
	logger     *logging.Logger
}

func NewMongoTeamRepository(db *MongoDB) *MongoTeamRepository {
	collection := db.GetCollection("teams")
	logger := logging.WithPrefix("mongo_team_repo")

	ctx, cancel := WithShortTimeout(context.Background())
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "api_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Errorf("Failed to create index on teams collection: %v", err)
	}

	return &MongoTeamRepository{
		collection: collection,
		sequences:  NewSequences(db),
		logger:     logger,
	}
}

func (r *MongoTeamRepository) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var team models.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team %d: %w", id, err)
	}
	return &team, nil
}

func (r *MongoTeamRepository) GetTeamsByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	if len(ids) == 0 {
		return []*models.Team{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoTeamRepository) GetTeamsByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Team, error) {
	if len(apiIDs) == 0 {
		return []*models.Team{}, nil
	}
	return r.find(ctx, bson.M{"api_id": bson.M{"$in": apiIDs}})
}

func (r *MongoTeamRepository) find(ctx context.Context, filter bson.M) ([]*models.Team, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find teams: %w", err)
	}
	teams, err := decodeAll[models.Team](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// UpsertTeams stores teams by api id. Teams that already exist keep their
// stored fields; every element of teams ends up holding the stored record.
func (r *MongoTeamRepository) UpsertTeams(ctx context.Context, teams []*models.Team) error {
	if len(teams) == 0 {
		return nil
	}

	apiIDs := make([]int, 0, len(teams))
	for _, t := range teams {
		apiIDs = append(apiIDs, t.APIID)
	}

	existing, err := r.GetTeamsByAPIIDs(ctx, apiIDs)
	if err != nil {
		return err
	}
	stored := make(map[int]*models.Team, len(existing))
	for _, t := range existing {
		stored[t.APIID] = t
	}

	var missing []*models.Team
	seen := make(map[int]bool)
	for _, t := range teams {
		if _, ok := stored[t.APIID]; ok || seen[t.APIID] {
			continue
		}
		seen[t.APIID] = true
		missing = append(missing, t)
	}

	if len(missing) > 0 {
		ctx, cancel := WithLongTimeout(ctx)
		defer cancel()

		first, err := r.sequences.NextBlock(ctx, "teams", len(missing))
		if err != nil {
			return err
		}

		ops := make([]mongo.WriteModel, 0, len(missing))
		for i, t := range missing {
			t.ID = first + i
			ops = append(ops, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"api_id": t.APIID}).
				SetUpdate(bson.M{"$setOnInsert": t}).
				SetUpsert(true))
		}

		res, err := r.collection.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return fmt.Errorf("failed to upsert teams: %w", err)
		}
		r.logger.Infof("Upserted teams: %d new", res.UpsertedCount)

		// Re-read so concurrent inserts resolve to the stored ids
		existing, err = r.GetTeamsByAPIIDs(ctx, apiIDs)
		if err != nil {
			return err
		}
		for _, t := range existing {
			stored[t.APIID] = t
		}
	}

	for _, t := range teams {
		if s, ok := stored[t.APIID]; ok {
			*t = *s
		}
	}
	return nil
}
