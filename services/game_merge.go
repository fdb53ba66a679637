package services

import (
	"context"
	"fmt"
	"time"

	"pickem-go/logging"
	"pickem-go/models"
)

// ScoreSource is the external provider of schedules and scores
type ScoreSource interface {
	GetGames(ctx context.Context, q GameQuery) ([]APIGame, error)
	GetTeams(ctx context.Context, league, season int) ([]APITeam, error)
}

// dayWindow is [start, end) in absolute time
type dayWindow struct {
	start time.Time
	end   time.Time
}

// gameMerger turns an API game list into the change set that brings the
// Game Store in line with it
type gameMerger struct {
	games  GameRepository
	teams  TeamRepository
	logger *logging.Logger
}

type mergePlan struct {
	changes      *models.GameChangeSet
	teamsCreated int
}

// plan computes the writes for apiGames. With a window, stored games in the
// window that the API no longer reports are scheduled for deletion.
func (m *gameMerger) plan(ctx context.Context, apiGames []APIGame, leagueID, subseasonID int, window *dayWindow) (*mergePlan, error) {
	apiGames = uniqueAPIGames(apiGames)

	// Parse everything up front so a bad record aborts before any write
	starts := make(map[int]time.Time, len(apiGames))
	for i := range apiGames {
		start, err := apiGames[i].StartTime()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		starts[apiGames[i].ID] = start
	}

	teamIDs, created, err := m.resolveTeams(ctx, apiGames, leagueID)
	if err != nil {
		return nil, err
	}

	apiIDs := make([]int, 0, len(apiGames))
	reported := make(map[int]bool, len(apiGames))
	for _, g := range apiGames {
		apiIDs = append(apiIDs, g.ID)
		reported[g.ID] = true
	}

	stored, err := m.games.GetGamesByAPIIDs(ctx, apiIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored games: %w", err)
	}
	byAPIID := make(map[int]*models.Game, len(stored))
	for _, g := range stored {
		byAPIID[g.APIID] = g
	}

	changes := &models.GameChangeSet{}

	if window != nil {
		local, err := m.games.GetGamesBetween(ctx, window.start, window.end)
		if err != nil {
			return nil, fmt.Errorf("failed to load games for day: %w", err)
		}
		for _, g := range local {
			if !reported[g.APIID] {
				changes.Deletes = append(changes.Deletes, g)
			}
		}
	}

	for i := range apiGames {
		api := &apiGames[i]
		desired := &models.Game{
			APIID:       api.ID,
			StartTime:   starts[api.ID].UTC(),
			Status:      models.GameStatus(api.Status.Short),
			HomeTeamID:  teamIDs[api.Teams.Home.ID],
			AwayTeamID:  teamIDs[api.Teams.Away.ID],
			HomeScore:   api.Scores.Home.Total,
			AwayScore:   api.Scores.Away.Total,
			HomeHits:    api.Scores.Home.Hits,
			AwayHits:    api.Scores.Away.Hits,
			HomeErrors:  api.Scores.Home.Errors,
			AwayErrors:  api.Scores.Away.Errors,
			SubSeasonID: subseasonID,
		}
		if !desired.Status.IsKnown() {
			m.logger.Warnf("Game api_id=%d has unknown status %q", api.ID, api.Status.Short)
		}

		existing, ok := byAPIID[api.ID]
		if !ok {
			changes.Inserts = append(changes.Inserts, desired)
			continue
		}

		// Games keep the subseason they were first filed under
		desired.ID = existing.ID
		desired.SubSeasonID = existing.SubSeasonID
		desired.UpdatedAt = existing.UpdatedAt
		if !existing.SameState(desired) {
			changes.Updates = append(changes.Updates, desired)
		}
	}

	return &mergePlan{changes: changes, teamsCreated: created}, nil
}

// resolveTeams maps API team ids to internal ids, creating teams the store
// has never seen from the game payload
func (m *gameMerger) resolveTeams(ctx context.Context, apiGames []APIGame, leagueID int) (map[int]int, int, error) {
	refs := make(map[int]APITeamRef)
	for _, g := range apiGames {
		refs[g.Teams.Home.ID] = g.Teams.Home
		refs[g.Teams.Away.ID] = g.Teams.Away
	}

	apiIDs := make([]int, 0, len(refs))
	for id := range refs {
		apiIDs = append(apiIDs, id)
	}

	known, err := m.teams.GetTeamsByAPIIDs(ctx, apiIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load teams: %w", err)
	}

	ids := make(map[int]int, len(refs))
	for _, t := range known {
		ids[t.APIID] = t.ID
	}

	var missing []*models.Team
	for apiID, ref := range refs {
		if _, ok := ids[apiID]; !ok {
			missing = append(missing, newTeam(apiID, ref.Name, ref.Logo, leagueID))
		}
	}
	if len(missing) > 0 {
		if err := m.teams.UpsertTeams(ctx, missing); err != nil {
			return nil, 0, fmt.Errorf("failed to create teams: %w", err)
		}
		for _, t := range missing {
			ids[t.APIID] = t.ID
			m.logger.Infof("Created team %s (api_id=%d) from game data", t.FullName(), t.APIID)
		}
	}

	return ids, len(missing), nil
}

// uniqueAPIGames keeps the first record for each external id
func uniqueAPIGames(games []APIGame) []APIGame {
	seen := make(map[int]bool, len(games))
	out := make([]APIGame, 0, len(games))
	for _, g := range games {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	return out
}
