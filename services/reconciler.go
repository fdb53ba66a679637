package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pickem-go/logging"
	"pickem-go/models"

	"github.com/itbasis/go-clock"
)

type ReconcilerConfig struct {
	LeagueAPIID int
	Location    *time.Location
}

// Reconciler keeps the Game Store in line with the external score source one
// day at a time. It is the only writer of games; runs are serialized.
type Reconciler struct {
	mu sync.Mutex

	source    ScoreSource
	games     GameRepository
	seasons   SeasonRepository
	seeder    *Seeder
	merger    *gameMerger
	clock     clock.Clock
	config    ReconcilerConfig
	notifiers []GamesUpdatedNotifier
	logger    *logging.Logger
}

func NewReconciler(source ScoreSource, games GameRepository, teams TeamRepository, seasons SeasonRepository, seeder *Seeder, clk clock.Clock, config ReconcilerConfig) *Reconciler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	logger := logging.WithPrefix("Reconciler")
	return &Reconciler{
		source:  source,
		games:   games,
		seasons: seasons,
		seeder:  seeder,
		merger:  &gameMerger{games: games, teams: teams, logger: logger},
		clock:   clk,
		config:  config,
		logger:  logger,
	}
}

// AddNotifier registers a subscriber for passes that changed games
func (r *Reconciler) AddNotifier(n GamesUpdatedNotifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// Reconcile merges the API's games for day into the Game Store. Nothing is
// written when the fetch fails or the API reports no games for the day.
// Unknown teams are saved before the games, so a failed game write can leave
// them behind; teams are immutable and keyed by api id, so a retry reuses them.
func (r *Reconciler) Reconcile(ctx context.Context, day time.Time, league *models.League, subseason *models.SubSeason) (*models.ReconcileReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start, end := models.DayWindow(day, r.config.Location)
	report := &models.ReconcileReport{
		Day:          models.FormatDay(start),
		LeagueID:     league.ID,
		SubSeasonID:  subseason.ID,
		ChangedGames: []int{},
	}

	season, err := r.seasons.GetSeasonByID(ctx, subseason.SeasonID)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, fmt.Errorf("season %d for subseason %d: %w", subseason.SeasonID, subseason.ID, ErrNotFound)
	}

	apiGames, err := r.source.GetGames(ctx, GameQuery{
		Date:     start,
		League:   league.APIID,
		Season:   season.Year,
		Timezone: r.config.Location.String(),
	})
	if err != nil {
		return nil, err
	}
	report.Fetched = len(apiGames)

	if len(apiGames) == 0 {
		r.logger.Infof("No games reported for %s, leaving the day unchanged", report.Day)
		report.FinishedAt = r.clock.Now()
		return report, nil
	}

	plan, err := r.merger.plan(ctx, apiGames, league.ID, subseason.ID, &dayWindow{start: start, end: end})
	if err != nil {
		return nil, err
	}
	report.TeamsCreated = plan.teamsCreated

	result, err := r.games.ApplyGameChanges(ctx, plan.changes)
	if err != nil {
		return nil, fmt.Errorf("failed to apply game changes for %s: %w", report.Day, err)
	}

	report.Inserted = result.Inserted
	report.Updated = result.Updated
	report.Deleted = result.Deleted
	report.DeletedPicks = result.DeletedPicks
	report.ChangedGames = changedGameIDs(plan.changes)
	report.FinishedAt = r.clock.Now()

	r.logger.Infof("Reconciled %s", report)
	if report.HasChanges() {
		r.notify(ctx, report)
	}
	return report, nil
}

// Update runs one scheduled check for day: a seed when the store is empty,
// otherwise a reconcile against the subseason covering day
func (r *Reconciler) Update(ctx context.Context, day time.Time) (*models.ReconcileReport, error) {
	count, err := r.games.CountGames(ctx)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		r.logger.Info("Game store is empty, seeding")
		r.mu.Lock()
		result, err := r.seeder.Seed(ctx)
		r.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("seeding: %w", err)
		}
		report := &models.ReconcileReport{
			Day:          models.FormatDay(models.StartOfDay(day, r.config.Location)),
			Inserted:     result.Inserted,
			Updated:      result.Updated,
			ChangedGames: result.ChangedGames,
			FinishedAt:   r.clock.Now(),
		}
		if report.HasChanges() {
			r.notify(ctx, report)
		}
		return report, nil
	}

	league, subseason, err := r.resolveSubSeason(ctx, day)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, day, league, subseason)
}

// CheckForUpdates is the scheduler entry point. Failures are logged and
// swallowed; the store keeps serving what it has until the next pass.
func (r *Reconciler) CheckForUpdates(ctx context.Context, day time.Time) {
	if _, err := r.Update(ctx, day); err != nil {
		r.logger.Errorf("Update for %s abandoned: %v", models.FormatDay(day.In(r.config.Location)), err)
	}
}

// resolveSubSeason finds the configured league and the subseason whose dates
// contain day, falling back to the most recent one
func (r *Reconciler) resolveSubSeason(ctx context.Context, day time.Time) (*models.League, *models.SubSeason, error) {
	league, err := r.seasons.GetLeagueByAPIID(ctx, r.config.LeagueAPIID)
	if err != nil {
		return nil, nil, err
	}
	if league == nil {
		return nil, nil, fmt.Errorf("league api_id=%d: %w", r.config.LeagueAPIID, ErrNotFound)
	}

	subseasons, err := r.seasons.GetSubSeasonsByLeague(ctx, league.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(subseasons) == 0 {
		return nil, nil, fmt.Errorf("subseason for league %d: %w", league.ID, ErrNotFound)
	}

	midnight := models.StartOfDay(day, r.config.Location)
	latest := subseasons[0]
	for _, sub := range subseasons {
		if sub.Contains(midnight) {
			return league, sub, nil
		}
		if sub.Start.After(latest.Start) {
			latest = sub
		}
	}
	return league, latest, nil
}

func (r *Reconciler) notify(ctx context.Context, report *models.ReconcileReport) {
	for _, n := range r.notifiers {
		if err := n.NotifyGamesUpdated(ctx, report); err != nil {
			r.logger.Warnf("Notifier failed for %s: %v", report.Day, err)
		}
	}
}

func changedGameIDs(c *models.GameChangeSet) []int {
	ids := make([]int, 0, len(c.Deletes)+len(c.Updates)+len(c.Inserts))
	for _, set := range [][]*models.Game{c.Deletes, c.Updates, c.Inserts} {
		for _, g := range set {
			ids = append(ids, g.ID)
		}
	}
	return ids
}
