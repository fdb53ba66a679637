package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pickem-go/models"

	"github.com/itbasis/go-clock"
)

// GameViewService builds the JSON read views: scoreboard, leaderboards,
// pick sheet and a user's picks
type GameViewService struct {
	games   GameRepository
	teams   TeamRepository
	picks   PickRepository
	scoring *ScoringService
	clock   clock.Clock
	loc     *time.Location
}

func NewGameViewService(games GameRepository, teams TeamRepository, picks PickRepository, scoring *ScoringService, clk clock.Clock, loc *time.Location) *GameViewService {
	if loc == nil {
		loc = time.UTC
	}
	return &GameViewService{
		games:   games,
		teams:   teams,
		picks:   picks,
		scoring: scoring,
		clock:   clk,
		loc:     loc,
	}
}

// Location is the zone calendar days are interpreted in
func (s *GameViewService) Location() *time.Location {
	return s.loc
}

// Today returns midnight of the current day
func (s *GameViewService) Today() time.Time {
	return models.StartOfDay(s.clock.Now(), s.loc)
}

// Scoreboard returns the day's games with the user's picks. A nil user sees
// no picks and null points.
func (s *GameViewService) Scoreboard(ctx context.Context, day time.Time, user *models.User) (*models.Scoreboard, error) {
	start, end := models.DayWindow(day, s.loc)

	games, err := s.games.GetGamesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading games for %s: %w", models.FormatDay(start), err)
	}
	views, err := s.gameViews(ctx, games)
	if err != nil {
		return nil, err
	}

	picksByGame := map[int]*models.Pick{}
	if user != nil {
		picks, err := s.picks.GetPicksByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("loading picks for user %d: %w", user.ID, err)
		}
		for _, p := range picks {
			picksByGame[p.GameID] = p
		}
	}

	board := &models.Scoreboard{
		Games:      make([]models.ScoreboardGame, 0, len(games)),
		DayDisplay: models.FormatDayDisplay(start),
		Day:        models.FormatDay(start),
		NextDay:    models.FormatDay(start.AddDate(0, 0, 1)),
		PrevDay:    models.FormatDay(start.AddDate(0, 0, -1)),
	}
	for i, g := range games {
		entry := models.ScoreboardGame{GameView: views[i]}
		if p, ok := picksByGame[g.ID]; ok {
			pv := models.NewPickView(p, g)
			entry.Pick = &pv
		}
		board.Games = append(board.Games, entry)
	}

	if user != nil {
		points, err := s.scoring.PointsFor(ctx, user.ID, OnDay(start))
		if err != nil {
			return nil, err
		}
		board.UserPoints = &points
	}
	return board, nil
}

// Leaderboard returns every user's points for day
func (s *GameViewService) Leaderboard(ctx context.Context, day time.Time) (*models.Leaderboard, error) {
	start := models.StartOfDay(day, s.loc)
	users, err := s.scoring.Leaderboard(ctx, OnDay(start))
	if err != nil {
		return nil, err
	}
	return &models.Leaderboard{
		Users:      users,
		DayDisplay: models.FormatDayDisplay(start),
		Day:        models.FormatDay(start),
		NextDay:    models.FormatDay(start.AddDate(0, 0, 1)),
		PrevDay:    models.FormatDay(start.AddDate(0, 0, -1)),
	}, nil
}

// SeasonLeaders returns every user's points over all days
func (s *GameViewService) SeasonLeaders(ctx context.Context) (*models.SeasonLeaders, error) {
	users, err := s.scoring.Leaderboard(ctx, AllDays())
	if err != nil {
		return nil, err
	}
	return &models.SeasonLeaders{Users: users}, nil
}

// PicksheetGames lists today's games that have not started and all of
// tomorrow's games, leaving out games the user already picked
func (s *GameViewService) PicksheetGames(ctx context.Context, user *models.User) (*models.Picksheet, error) {
	now := s.clock.Now()
	today := models.StartOfDay(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)

	picked := map[int]bool{}
	if user != nil {
		picks, err := s.picks.GetPicksByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("loading picks for user %d: %w", user.ID, err)
		}
		for _, p := range picks {
			picked[p.GameID] = true
		}
	}

	todayGames, err := s.games.GetGamesBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, err
	}
	tomorrowGames, err := s.games.GetGamesBetween(ctx, tomorrow, tomorrow.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	keepToday := func(g *models.Game) bool {
		return !picked[g.ID] && g.Status == models.GameStatusNotStarted && !g.HasStarted(now)
	}
	keepTomorrow := func(g *models.Game) bool {
		return !picked[g.ID]
	}

	sheet := &models.Picksheet{GamesToPick: make([]models.PicksheetDay, 0, 2)}
	for _, d := range []struct {
		day   time.Time
		games []*models.Game
		keep  func(*models.Game) bool
	}{
		{today, todayGames, keepToday},
		{tomorrow, tomorrowGames, keepTomorrow},
	} {
		var games []*models.Game
		for _, g := range d.games {
			if d.keep(g) {
				games = append(games, g)
			}
		}
		views, err := s.gameViews(ctx, games)
		if err != nil {
			return nil, err
		}
		sheet.GamesToPick = append(sheet.GamesToPick, models.PicksheetDay{
			Date:  models.FormatPicksheetDate(d.day),
			Games: views,
		})
	}
	return sheet, nil
}

// MyPicks groups the user's picks by game day with the points earned each day
func (s *GameViewService) MyPicks(ctx context.Context, user *models.User) (*models.MyPicks, error) {
	picks, err := s.picks.GetPicksByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading picks for user %d: %w", user.ID, err)
	}

	ids := make([]int, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.GameID)
	}
	games, err := s.games.GetGamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading picked games: %w", err)
	}
	views, err := s.gameViews(ctx, games)
	if err != nil {
		return nil, err
	}
	gameByID := make(map[int]*models.Game, len(games))
	viewByID := make(map[int]models.GameView, len(games))
	for i, g := range games {
		gameByID[g.ID] = g
		viewByID[g.ID] = views[i]
	}

	now := s.clock.Now()
	result := &models.MyPicks{
		Dates: map[string]models.MyPicksDay{},
		Picks: map[string][]models.MyPick{},
	}
	unstarted := 0

	for _, p := range picks {
		game := gameByID[p.GameID]
		if game == nil {
			continue
		}
		gameDay := game.Day(s.loc)
		key := models.FormatDay(gameDay)

		day := result.Dates[key]
		day.DateHeading = models.FormatDateHeading(gameDay)
		if p.IsCorrect(game) {
			day.Points++
		}
		result.Dates[key] = day

		result.Picks[key] = append(result.Picks[key], models.MyPick{
			PickView: models.NewPickView(p, game),
			Game:     viewByID[game.ID],
		})

		if game.StartTime.After(now) {
			unstarted++
		}
	}

	for key := range result.Picks {
		dayPicks := result.Picks[key]
		sort.SliceStable(dayPicks, func(i, j int) bool {
			return gameByID[dayPicks[i].GameID].StartTime.Before(gameByID[dayPicks[j].GameID].StartTime)
		})
	}

	today := models.StartOfDay(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	if _, ok := result.Dates[models.FormatDay(tomorrow)]; !ok {
		result.NeedMakePicksButton = true
	} else {
		available, err := s.games.GetGamesBetween(ctx, now, today.AddDate(0, 0, 2))
		if err != nil {
			return nil, err
		}
		result.NeedMakePicksButton = unstarted < len(available)
	}

	return result, nil
}

// gameViews renders games in order, loading their teams in one query
func (s *GameViewService) gameViews(ctx context.Context, games []*models.Game) ([]models.GameView, error) {
	views := make([]models.GameView, 0, len(games))
	if len(games) == 0 {
		return views, nil
	}

	ids := make([]int, 0, len(games)*2)
	for _, g := range games {
		ids = append(ids, g.HomeTeamID, g.AwayTeamID)
	}
	teams, err := s.teams.GetTeamsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	for _, g := range games {
		views = append(views, models.NewGameView(g, byID[g.HomeTeamID], byID[g.AwayTeamID], s.loc))
	}
	return views, nil
}
