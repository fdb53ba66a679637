package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pickem-go/models"
)

// DayFilter selects which game days count toward points
type DayFilter struct {
	day string // empty matches every day
}

// AllDays counts every day; used for season totals
func AllDays() DayFilter {
	return DayFilter{}
}

// OnDay counts only games on day
func OnDay(day time.Time) DayFilter {
	return DayFilter{day: models.FormatDay(day)}
}

// Matches reports whether a game day "2006-01-02" passes the filter
func (f DayFilter) Matches(day string) bool {
	return f.day == "" || f.day == day
}

// ScoringService derives points and standings from games and picks. It never writes.
type ScoringService struct {
	picks PickRepository
	games GameRepository
	users UserRepository
	loc   *time.Location
}

func NewScoringService(picks PickRepository, games GameRepository, users UserRepository, loc *time.Location) *ScoringService {
	if loc == nil {
		loc = time.UTC
	}
	return &ScoringService{picks: picks, games: games, users: users, loc: loc}
}

// PointsFor counts the user's correct picks on days matching filter
func (s *ScoringService) PointsFor(ctx context.Context, userID int, filter DayFilter) (int, error) {
	picks, err := s.picks.GetPicksByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading picks for user %d: %w", userID, err)
	}
	games, err := s.gamesFor(ctx, picks)
	if err != nil {
		return 0, err
	}
	return s.countCorrect(picks, games, filter), nil
}

// Leaderboard lists every user by points descending, then username ascending
func (s *ScoringService) Leaderboard(ctx context.Context, filter DayFilter) ([]models.LeaderboardEntry, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	picks, err := s.picks.GetAllPicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading picks: %w", err)
	}
	games, err := s.gamesFor(ctx, picks)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int][]*models.Pick)
	for _, p := range picks {
		byUser[p.UserID] = append(byUser[p.UserID], p)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			Name:   u.Username,
			Points: s.countCorrect(byUser[u.ID], games, filter),
		})
	}
	SortLeaderboard(entries)
	return entries, nil
}

// SortLeaderboard orders by points descending, ties broken by name ascending
func SortLeaderboard(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
}

func (s *ScoringService) countCorrect(picks []*models.Pick, games map[int]*models.Game, filter DayFilter) int {
	points := 0
	for _, p := range picks {
		game := games[p.GameID]
		if game == nil || !p.IsCorrect(game) {
			continue
		}
		if filter.Matches(models.FormatDay(game.Day(s.loc))) {
			points++
		}
	}
	return points
}

func (s *ScoringService) gamesFor(ctx context.Context, picks []*models.Pick) (map[int]*models.Game, error) {
	ids := make([]int, 0, len(picks))
	seen := make(map[int]bool, len(picks))
	for _, p := range picks {
		if !seen[p.GameID] {
			seen[p.GameID] = true
			ids = append(ids, p.GameID)
		}
	}

	games, err := s.games.GetGamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading picked games: %w", err)
	}
	byID := make(map[int]*models.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}
	return byID, nil
}
