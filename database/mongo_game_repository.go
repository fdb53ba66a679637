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

type MongoGameRepository struct {
	db        *MongoDB
	games     *mongo.Collection
	picks     *mongo.Collection
	sequences *Sequences
	logger    *logging.Logger
}

func NewMongoGameRepository(db *MongoDB) *MongoGameRepository {
	games := db.GetCollection("games")
	logger := logging.WithPrefix("mongo_game_repo")

	ctx, cancel := WithShortTimeout(context.Background())
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "api_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "start_time", Value: 1}},
		},
	}

	if _, err := games.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Errorf("Failed to create indexes on games collection: %v", err)
	}

	return &MongoGameRepository{
		db:        db,
		games:     games,
		picks:     db.GetCollection("picks"),
		sequences: NewSequences(db),
		logger:    logger,
	}
}

func (r *MongoGameRepository) CountGames(ctx context.Context) (int64, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	count, err := r.games.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return count, nil
}

func (r *MongoGameRepository) GetGameByID(ctx context.Context, id int) (*models.Game, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var game models.Game
	err := r.games.FindOne(ctx, bson.M{"_id": id}).Decode(&game)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find game %d: %w", id, err)
	}
	return &game, nil
}

func (r *MongoGameRepository) GetGamesByIDs(ctx context.Context, ids []int) ([]*models.Game, error) {
	if len(ids) == 0 {
		return []*models.Game{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, "games by id")
}

func (r *MongoGameRepository) GetGamesByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Game, error) {
	if len(apiIDs) == 0 {
		return []*models.Game{}, nil
	}
	return r.find(ctx, bson.M{"api_id": bson.M{"$in": apiIDs}}, "games by api id")
}

// GetGamesBetween returns games starting in [start, end) ordered by start time
func (r *MongoGameRepository) GetGamesBetween(ctx context.Context, start, end time.Time) ([]*models.Game, error) {
	filter := bson.M{"start_time": bson.M{"$gte": start, "$lt": end}}
	return r.find(ctx, filter, "games in window")
}

func (r *MongoGameRepository) find(ctx context.Context, filter bson.M, what string) ([]*models.Game, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "api_id", Value: 1}})
	cursor, err := r.games.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}

	games, err := decodeAll[models.Game](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return games, nil
}

// ApplyGameChanges writes one reconciliation pass. Deleted games take their
// picks with them. Inserted games get fresh ids assigned in place.
func (r *MongoGameRepository) ApplyGameChanges(ctx context.Context, changes *models.GameChangeSet) (*models.GameChangeResult, error) {
	result := &models.GameChangeResult{}
	if changes == nil || changes.IsEmpty() {
		return result, nil
	}

	ctx, cancel := WithLongTimeout(ctx)
	defer cancel()

	if n := len(changes.Inserts); n > 0 {
		first, err := r.sequences.NextBlock(ctx, "games", n)
		if err != nil {
			return nil, err
		}
		for i, game := range changes.Inserts {
			game.ID = first + i
		}
	}

	now := time.Now().UTC()
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		*result = models.GameChangeResult{}

		if ids := changes.DeleteIDs(); len(ids) > 0 {
			picks, err := r.picks.DeleteMany(ctx, bson.M{"game_id": bson.M{"$in": ids}})
			if err != nil {
				return fmt.Errorf("failed to delete picks for removed games: %w", err)
			}
			games, err := r.games.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
			if err != nil {
				return fmt.Errorf("failed to delete removed games: %w", err)
			}
			result.DeletedPicks = picks.DeletedCount
			result.Deleted = games.DeletedCount
		}

		ops := make([]mongo.WriteModel, 0, len(changes.Updates)+len(changes.Inserts))
		for _, game := range changes.Updates {
			game.UpdatedAt = now
			ops = append(ops, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": game.ID}).
				SetUpdate(bson.M{"$set": gameStateFields(game)}))
		}
		for _, game := range changes.Inserts {
			game.UpdatedAt = now
			ops = append(ops, mongo.NewInsertOneModel().SetDocument(game))
		}
		if len(ops) == 0 {
			return nil
		}

		res, err := r.games.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
		if res != nil {
			result.Updated = res.MatchedCount
			result.Inserted = res.InsertedCount
		}
		if err != nil {
			return fmt.Errorf("failed to write game changes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("Applied game changes: inserted=%d updated=%d deleted=%d deleted_picks=%d",
		result.Inserted, result.Updated, result.Deleted, result.DeletedPicks)
	return result, nil
}

// gameStateFields are the columns a reconciliation pass may change
func gameStateFields(g *models.Game) bson.M {
	return bson.M{
		"start_time":   g.StartTime,
		"status":       g.Status,
		"home_team_id": g.HomeTeamID,
		"away_team_id": g.AwayTeamID,
		"home_score":   g.HomeScore,
		"away_score":   g.AwayScore,
		"home_hits":    g.HomeHits,
		"away_hits":    g.AwayHits,
		"home_errors":  g.HomeErrors,
		"away_errors":  g.AwayErrors,
		"subseason_id": g.SubSeasonID,
		"updated_at":   g.UpdatedAt,
	}
}
