package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"pickem-go/logging"
	"pickem-go/models"

	"golang.org/x/sync/errgroup"
)

type SeedConfig struct {
	LeagueAPIID    int
	SeasonYear     int
	SubSeasonStart time.Time
	SubSeasonEnd   time.Time
	Location       *time.Location
}

// Seeder bootstraps an empty store with the season hierarchy, every team and
// the full season schedule
type Seeder struct {
	mu      sync.Mutex
	source  ScoreSource
	games   GameRepository
	teams   TeamRepository
	seasons SeasonRepository
	merger  *gameMerger
	config  SeedConfig
	logger  *logging.Logger
}

func NewSeeder(source ScoreSource, games GameRepository, teams TeamRepository, seasons SeasonRepository, config SeedConfig) *Seeder {
	if config.Location == nil {
		config.Location = time.UTC
	}
	logger := logging.WithPrefix("Seeder")
	return &Seeder{
		source:  source,
		games:   games,
		teams:   teams,
		seasons: seasons,
		merger:  &gameMerger{games: games, teams: teams, logger: logger},
		config:  config,
		logger:  logger,
	}
}

// SeedResult is the store's write counts plus the ids of every game written
type SeedResult struct {
	*models.GameChangeResult
	ChangedGames []int
}

// Seed loads the season. Both API fetches must succeed before anything is
// written, so a failed seed leaves the store as it was and can be retried.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.config.SeasonYear
	s.logger.Infof("Loading teams and games for league %d season %d", s.config.LeagueAPIID, year)

	var apiTeams []APITeam
	var apiGames []APIGame

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.source.GetTeams(gctx, s.config.LeagueAPIID, year)
		apiTeams = teams
		return err
	})
	g.Go(func() error {
		games, err := s.source.GetGames(gctx, GameQuery{
			League:   s.config.LeagueAPIID,
			Season:   year,
			Timezone: s.config.Location.String(),
		})
		apiGames = games
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Errorf("Seed fetch failed, nothing written: %v", err)
		return nil, err
	}

	league, subseason, err := s.ensureRoots(ctx)
	if err != nil {
		return nil, err
	}

	teams := make([]*models.Team, 0, len(apiTeams))
	for _, t := range apiTeams {
		teams = append(teams, newTeam(t.ID, t.Name, t.Logo, league.ID))
	}
	if err := s.teams.UpsertTeams(ctx, teams); err != nil {
		return nil, fmt.Errorf("failed to save teams: %w", err)
	}
	s.logger.Infof("Saved %d teams", len(teams))

	plan, err := s.merger.plan(ctx, apiGames, league.ID, subseason.ID, nil)
	if err != nil {
		return nil, err
	}
	result, err := s.games.ApplyGameChanges(ctx, plan.changes)
	if err != nil {
		return nil, fmt.Errorf("failed to save games: %w", err)
	}

	s.logger.Infof("Seeded %d games (%d updated)", result.Inserted, result.Updated)
	return &SeedResult{GameChangeResult: result, ChangedGames: changedGameIDs(plan.changes)}, nil
}

// ensureRoots upserts Baseball > MLB > season > Regular Season by natural key
func (s *Seeder) ensureRoots(ctx context.Context) (*models.League, *models.SubSeason, error) {
	sport := &models.Sport{Name: "Baseball"}
	if err := s.seasons.EnsureSport(ctx, sport); err != nil {
		return nil, nil, fmt.Errorf("failed to save sport: %w", err)
	}

	league := &models.League{
		APIID:        s.config.LeagueAPIID,
		Name:         "Major League Baseball",
		Abbreviation: "MLB",
		SportID:      sport.ID,
	}
	if err := s.seasons.EnsureLeague(ctx, league); err != nil {
		return nil, nil, fmt.Errorf("failed to save league: %w", err)
	}

	season := &models.Season{
		Name:     strconv.Itoa(s.config.SeasonYear),
		Year:     s.config.SeasonYear,
		LeagueID: league.ID,
	}
	if err := s.seasons.EnsureSeason(ctx, season); err != nil {
		return nil, nil, fmt.Errorf("failed to save season: %w", err)
	}

	subseason := &models.SubSeason{
		Name:     "Regular Season",
		Type:     models.SubSeasonRegular,
		Start:    s.config.SubSeasonStart,
		End:      s.config.SubSeasonEnd,
		SeasonID: season.ID,
	}
	if err := s.seasons.EnsureSubSeason(ctx, subseason); err != nil {
		return nil, nil, fmt.Errorf("failed to save subseason: %w", err)
	}

	return league, subseason, nil
}
