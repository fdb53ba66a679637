package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pickem-go/database"
	"pickem-go/models"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/require"
)

// pacific is a fixed zone so day arithmetic in tests never depends on tzdata
var pacific = time.FixedZone("PDT", -7*60*60)

func at(day string, hour, minute int) time.Time {
	d, err := time.ParseInLocation(models.DayLayout, day, pacific)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// fakeSource serves canned api-sports records
type fakeSource struct {
	mu       sync.Mutex
	teams    []APITeam
	season   []APIGame
	byDay    map[string][]APIGame
	gamesErr error
	teamsErr error
	queries  []GameQuery
}

func newFakeSource() *fakeSource {
	return &fakeSource{byDay: map[string][]APIGame{}}
}

func (f *fakeSource) GetGames(ctx context.Context, q GameQuery) ([]APIGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.gamesErr != nil {
		return nil, f.gamesErr
	}
	if q.Date.IsZero() {
		return append([]APIGame(nil), f.season...), nil
	}
	return append([]APIGame(nil), f.byDay[models.FormatDay(q.Date)]...), nil
}

func (f *fakeSource) GetTeams(ctx context.Context, league, season int) ([]APITeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.teamsErr != nil {
		return nil, f.teamsErr
	}
	return append([]APITeam(nil), f.teams...), nil
}

func (f *fakeSource) setDay(day string, games ...APIGame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDay[day] = games
}

func apiTeam(id int, name string) APITeam {
	return APITeam{ID: id, Name: name, Logo: "https://media.example/teams/" + name + ".png"}
}

func apiGame(id int, start time.Time, status string, home, away APITeam) APIGame {
	g := APIGame{ID: id, Date: start.Format(time.RFC3339)}
	g.Status = APIGameStatus{Short: status, Long: models.GameStatus(status).DisplayName()}
	g.Teams.Home = APITeamRef{ID: home.ID, Name: home.Name, Logo: home.Logo}
	g.Teams.Away = APITeamRef{ID: away.ID, Name: away.Name, Logo: away.Logo}
	return g
}

func withScore(g APIGame, home, away int) APIGame {
	g.Scores.Home = APILineScore{Total: models.IntPtr(home), Hits: models.IntPtr(home + 4), Errors: models.IntPtr(0)}
	g.Scores.Away = APILineScore{Total: models.IntPtr(away), Hits: models.IntPtr(away + 3), Errors: models.IntPtr(1)}
	return g
}

var (
	rangers  = apiTeam(25, "Texas Rangers")
	mariners = apiTeam(31, "Seattle Mariners")
	redSox   = apiTeam(4, "Boston Red Sox")
	giants   = apiTeam(30, "San Francisco Giants")
)

const testLeagueAPIID = 1

type harness struct {
	store      *database.MemoryStore
	source     *fakeSource
	clock      *clock.Mock
	seeder     *Seeder
	reconciler *Reconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := database.NewMemoryStore()
	source := newFakeSource()
	source.teams = []APITeam{rangers, mariners, redSox, giants}

	clk := clock.NewMock()
	clk.Set(at("2024-04-18", 9, 0))

	seeder := NewSeeder(source, store, store, store, SeedConfig{
		LeagueAPIID:    testLeagueAPIID,
		SeasonYear:     2024,
		SubSeasonStart: at("2024-03-28", 0, 0),
		SubSeasonEnd:   at("2024-10-01", 0, 0),
		Location:       pacific,
	})
	reconciler := NewReconciler(source, store, store, store, seeder, clk, ReconcilerConfig{
		LeagueAPIID: testLeagueAPIID,
		Location:    pacific,
	})
	return &harness{store: store, source: source, clock: clk, seeder: seeder, reconciler: reconciler}
}

func (h *harness) seed(t *testing.T, games ...APIGame) {
	t.Helper()
	h.source.season = games
	_, err := h.seeder.Seed(context.Background())
	require.NoError(t, err)
}

func (h *harness) gameByAPIID(t *testing.T, apiID int) *models.Game {
	t.Helper()
	games, err := h.store.GetGamesByAPIIDs(context.Background(), []int{apiID})
	require.NoError(t, err)
	if len(games) == 0 {
		return nil
	}
	return games[0]
}

func (h *harness) teamByAPIID(t *testing.T, apiID int) *models.Team {
	t.Helper()
	teams, err := h.store.GetTeamsByAPIIDs(context.Background(), []int{apiID})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	return teams[0]
}

func (h *harness) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name}
	require.NoError(t, h.store.CreateUser(context.Background(), u))
	return u
}

func (h *harness) pick(t *testing.T, user *models.User, game *models.Game, teamAPIID int) {
	t.Helper()
	team := h.teamByAPIID(t, teamAPIID)
	require.NoError(t, h.store.CreatePick(context.Background(), &models.Pick{
		UserID: user.ID, GameID: game.ID, TeamID: team.ID,
	}))
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []*models.ReconcileReport
}

func (n *recordingNotifier) NotifyGamesUpdated(ctx context.Context, report *models.ReconcileReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}
