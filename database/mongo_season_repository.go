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

// MongoSeasonRepository stores the sport > league > season > subseason hierarchy
type MongoSeasonRepository struct {
	sports     *mongo.Collection
	leagues    *mongo.Collection
	seasons    *mongo.Collection
	subseasons *mongo.Collection
	sequences  *Sequences
	logger     *logging.Logger
}

func NewMongoSeasonRepository(db *MongoDB) *MongoSeasonRepository {
	r := &MongoSeasonRepository{
		sports:     db.GetCollection("sports"),
		leagues:    db.GetCollection("leagues"),
		seasons:    db.GetCollection("seasons"),
		subseasons: db.GetCollection("subseasons"),
		sequences:  NewSequences(db),
		logger:     logging.WithPrefix("mongo_season_repo"),
	}

	ctx, cancel := WithShortTimeout(context.Background())
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection]bson.D{
		r.sports:     {{Key: "name", Value: 1}},
		r.leagues:    {{Key: "api_id", Value: 1}},
		r.seasons:    {{Key: "league_id", Value: 1}, {Key: "year", Value: 1}},
		r.subseasons: {{Key: "season_id", Value: 1}, {Key: "name", Value: 1}},
	}
	for coll, keys := range indexes {
		if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: unique}); err != nil {
			r.logger.Errorf("Failed to create index on %s: %v", coll.Name(), err)
		}
	}

	return r
}

// ensure inserts doc under filter unless a document already matches, then
// decodes the stored document into out
func (r *MongoSeasonRepository) ensure(ctx context.Context, coll *mongo.Collection, filter bson.M, build func(id int) interface{}, out interface{}) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	err := coll.FindOne(ctx, filter).Decode(out)
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("failed to look up %s: %w", coll.Name(), err)
	}

	id, err := r.sequences.Next(ctx, coll.Name())
	if err != nil {
		return err
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = coll.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": build(id)}, opts).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", coll.Name(), err)
	}
	r.logger.Debugf("Ensured %s %v", coll.Name(), filter)
	return nil
}

func (r *MongoSeasonRepository) EnsureSport(ctx context.Context, sport *models.Sport) error {
	return r.ensure(ctx, r.sports, bson.M{"name": sport.Name}, func(id int) interface{} {
		s := *sport
		s.ID = id
		return s
	}, sport)
}

func (r *MongoSeasonRepository) EnsureLeague(ctx context.Context, league *models.League) error {
	return r.ensure(ctx, r.leagues, bson.M{"api_id": league.APIID}, func(id int) interface{} {
		l := *league
		l.ID = id
		return l
	}, league)
}

func (r *MongoSeasonRepository) EnsureSeason(ctx context.Context, season *models.Season) error {
	filter := bson.M{"league_id": season.LeagueID, "year": season.Year}
	return r.ensure(ctx, r.seasons, filter, func(id int) interface{} {
		s := *season
		s.ID = id
		return s
	}, season)
}

func (r *MongoSeasonRepository) EnsureSubSeason(ctx context.Context, subseason *models.SubSeason) error {
	filter := bson.M{"season_id": subseason.SeasonID, "name": subseason.Name}
	return r.ensure(ctx, r.subseasons, filter, func(id int) interface{} {
		s := *subseason
		s.ID = id
		return s
	}, subseason)
}

func (r *MongoSeasonRepository) GetLeagueByAPIID(ctx context.Context, apiID int) (*models.League, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var league models.League
	err := r.leagues.FindOne(ctx, bson.M{"api_id": apiID}).Decode(&league)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find league %d: %w", apiID, err)
	}
	return &league, nil
}

func (r *MongoSeasonRepository) GetSeasonByID(ctx context.Context, id int) (*models.Season, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var season models.Season
	err := r.seasons.FindOne(ctx, bson.M{"_id": id}).Decode(&season)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find season %d: %w", id, err)
	}
	return &season, nil
}

// GetSubSeasonsByLeague returns every subseason of every season of the league ordered by start
func (r *MongoSeasonRepository) GetSubSeasonsByLeague(ctx context.Context, leagueID int) ([]*models.SubSeason, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.seasons.Find(ctx, bson.M{"league_id": leagueID})
	if err != nil {
		return nil, fmt.Errorf("failed to find seasons for league %d: %w", leagueID, err)
	}
	seasons, err := decodeAll[models.Season](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seasons: %w", err)
	}
	if len(seasons) == 0 {
		return []*models.SubSeason{}, nil
	}

	seasonIDs := make([]int, 0, len(seasons))
	for _, s := range seasons {
		seasonIDs = append(seasonIDs, s.ID)
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err = r.subseasons.Find(ctx, bson.M{"season_id": bson.M{"$in": seasonIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find subseasons for league %d: %w", leagueID, err)
	}
	subseasons, err := decodeAll[models.SubSeason](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subseasons: %w", err)
	}
	return subseasons, nil
}
