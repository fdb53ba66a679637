package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pickem-go/models"
)

// MemoryStore keeps every collection in process. It backs tests and runs
// where no MongoDB is configured. All change sets apply under one lock so
// readers never see a half applied reconciliation pass.
type MemoryStore struct {
	mu sync.RWMutex

	sports     map[int]*models.Sport
	leagues    map[int]*models.League
	seasons    map[int]*models.Season
	subseasons map[int]*models.SubSeason
	teams      map[int]*models.Team
	games      map[int]*models.Game
	picks      map[int]*models.Pick
	users      map[int]*models.User

	sequences map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sports:     make(map[int]*models.Sport),
		leagues:    make(map[int]*models.League),
		seasons:    make(map[int]*models.Season),
		subseasons: make(map[int]*models.SubSeason),
		teams:      make(map[int]*models.Team),
		games:      make(map[int]*models.Game),
		picks:      make(map[int]*models.Pick),
		users:      make(map[int]*models.User),
		sequences:  make(map[string]int),
	}
}

func (s *MemoryStore) nextID(name string) int {
	s.sequences[name]++
	return s.sequences[name]
}

// Games

func (s *MemoryStore) CountGames(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.games)), nil
}

func (s *MemoryStore) GetGameByID(ctx context.Context, id int) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[id]; ok {
		c := *g
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetGamesByIDs(ctx context.Context, ids []int) ([]*models.Game, error) {
	want := intSet(ids)
	return s.filterGames(func(g *models.Game) bool { return want[g.ID] }), nil
}

func (s *MemoryStore) GetGamesByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Game, error) {
	want := intSet(apiIDs)
	return s.filterGames(func(g *models.Game) bool { return want[g.APIID] }), nil
}

func (s *MemoryStore) GetGamesBetween(ctx context.Context, start, end time.Time) ([]*models.Game, error) {
	return s.filterGames(func(g *models.Game) bool {
		return !g.StartTime.Before(start) && g.StartTime.Before(end)
	}), nil
}

func (s *MemoryStore) filterGames(keep func(*models.Game) bool) []*models.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Game{}
	for _, g := range s.games {
		if keep(g) {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].APIID < out[j].APIID
	})
	return out
}

func (s *MemoryStore) ApplyGameChanges(ctx context.Context, changes *models.GameChangeSet) (*models.GameChangeResult, error) {
	result := &models.GameChangeResult{}
	if changes == nil || changes.IsEmpty() {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before writing anything
	apiIDs := make(map[int]int, len(s.games))
	for _, g := range s.games {
		apiIDs[g.APIID] = g.ID
	}
	for _, g := range changes.Updates {
		if _, ok := s.games[g.ID]; !ok {
			return nil, fmt.Errorf("failed to update game %d: not found", g.ID)
		}
	}
	for _, g := range changes.Inserts {
		if _, ok := apiIDs[g.APIID]; ok {
			return nil, fmt.Errorf("failed to insert game api_id %d: %w", g.APIID, ErrDuplicate)
		}
	}

	now := time.Now().UTC()
	deleted := intSet(changes.DeleteIDs())
	for id := range deleted {
		if _, ok := s.games[id]; ok {
			delete(s.games, id)
			result.Deleted++
		}
	}
	for id, p := range s.picks {
		if deleted[p.GameID] {
			delete(s.picks, id)
			result.DeletedPicks++
		}
	}

	for _, g := range changes.Updates {
		g.UpdatedAt = now
		c := *g
		s.games[g.ID] = &c
		result.Updated++
	}
	for _, g := range changes.Inserts {
		g.ID = s.nextID("games")
		g.UpdatedAt = now
		c := *g
		s.games[g.ID] = &c
		result.Inserted++
	}
	return result, nil
}

// Teams

func (s *MemoryStore) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.teams[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetTeamsByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	want := intSet(ids)
	return s.filterTeams(func(t *models.Team) bool { return want[t.ID] }), nil
}

func (s *MemoryStore) GetTeamsByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Team, error) {
	want := intSet(apiIDs)
	return s.filterTeams(func(t *models.Team) bool { return want[t.APIID] }), nil
}

func (s *MemoryStore) filterTeams(keep func(*models.Team) bool) []*models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Team{}
	for _, t := range s.teams {
		if keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) UpsertTeams(ctx context.Context, teams []*models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAPI := make(map[int]*models.Team, len(s.teams))
	for _, t := range s.teams {
		byAPI[t.APIID] = t
	}
	for _, t := range teams {
		if stored, ok := byAPI[t.APIID]; ok {
			*t = *stored
			continue
		}
		t.ID = s.nextID("teams")
		c := *t
		s.teams[t.ID] = &c
		byAPI[t.APIID] = &c
	}
	return nil
}

// Picks

func (s *MemoryStore) CreatePick(ctx context.Context, pick *models.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.picks {
		if p.UserID == pick.UserID && p.GameID == pick.GameID {
			return fmt.Errorf("failed to create pick for user %d game %d: %w", pick.UserID, pick.GameID, ErrDuplicate)
		}
	}
	pick.ID = s.nextID("picks")
	c := *pick
	s.picks[pick.ID] = &c
	return nil
}

func (s *MemoryStore) GetPickByUserAndGame(ctx context.Context, userID, gameID int) (*models.Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.picks {
		if p.UserID == userID && p.GameID == gameID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetPicksByUser(ctx context.Context, userID int) ([]*models.Pick, error) {
	return s.filterPicks(func(p *models.Pick) bool { return p.UserID == userID }), nil
}

func (s *MemoryStore) GetAllPicks(ctx context.Context) ([]*models.Pick, error) {
	return s.filterPicks(func(*models.Pick) bool { return true }), nil
}

func (s *MemoryStore) filterPicks(keep func(*models.Pick) bool) []*models.Pick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Pick{}
	for _, p := range s.picks {
		if keep(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) DeletePicksByUser(ctx context.Context, userID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletePicksByUser(userID), nil
}

func (s *MemoryStore) deletePicksByUser(userID int) int64 {
	var n int64
	for id, p := range s.picks {
		if p.UserID == userID {
			delete(s.picks, id)
			n++
		}
	}
	return n
}

// Users

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user %s: %w", user.Username, ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	user.ID = s.nextID("users")
	user.CreatedAt = now
	user.UpdatedAt = now
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("user %d not found", user.ID)
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return fmt.Errorf("failed to update user %d: %w", user.ID, ErrDuplicate)
		}
	}
	user.UpdatedAt = time.Now().UTC()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletePicksByUser(id)
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Season hierarchy

func (s *MemoryStore) EnsureSport(ctx context.Context, sport *models.Sport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sports {
		if strings.EqualFold(existing.Name, sport.Name) {
			*sport = *existing
			return nil
		}
	}
	sport.ID = s.nextID("sports")
	c := *sport
	s.sports[sport.ID] = &c
	return nil
}

func (s *MemoryStore) EnsureLeague(ctx context.Context, league *models.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.leagues {
		if existing.APIID == league.APIID {
			*league = *existing
			return nil
		}
	}
	league.ID = s.nextID("leagues")
	c := *league
	s.leagues[league.ID] = &c
	return nil
}

func (s *MemoryStore) EnsureSeason(ctx context.Context, season *models.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.seasons {
		if existing.LeagueID == season.LeagueID && existing.Year == season.Year {
			*season = *existing
			return nil
		}
	}
	season.ID = s.nextID("seasons")
	c := *season
	s.seasons[season.ID] = &c
	return nil
}

func (s *MemoryStore) EnsureSubSeason(ctx context.Context, subseason *models.SubSeason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subseasons {
		if existing.SeasonID == subseason.SeasonID && existing.Name == subseason.Name {
			*subseason = *existing
			return nil
		}
	}
	subseason.ID = s.nextID("subseasons")
	c := *subseason
	s.subseasons[subseason.ID] = &c
	return nil
}

func (s *MemoryStore) GetLeagueByAPIID(ctx context.Context, apiID int) (*models.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leagues {
		if l.APIID == apiID {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetSeasonByID(ctx context.Context, id int) (*models.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if season, ok := s.seasons[id]; ok {
		c := *season
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetSubSeasonsByLeague(ctx context.Context, leagueID int) ([]*models.SubSeason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seasonIDs := make(map[int]bool)
	for _, season := range s.seasons {
		if season.LeagueID == leagueID {
			seasonIDs[season.ID] = true
		}
	}

	out := []*models.SubSeason{}
	for _, sub := range s.subseasons {
		if seasonIDs[sub.SeasonID] {
			c := *sub
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func intSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
