package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"pickem-go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGames(t *testing.T, s *MemoryStore, games ...*models.Game) {
	t.Helper()
	_, err := s.ApplyGameChanges(context.Background(), &models.GameChangeSet{Inserts: games})
	require.NoError(t, err)
}

func TestMemoryStore_ApplyGameChangesAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	start := time.Date(2024, 4, 18, 17, 0, 0, 0, time.UTC)
	a := &models.Game{APIID: 100, StartTime: start.Add(time.Hour), Status: models.GameStatusNotStarted}
	b := &models.Game{APIID: 101, StartTime: start, Status: models.GameStatusNotStarted}
	seedGames(t, s, a, b)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	count, err := s.CountGames(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	games, err := s.GetGamesBetween(ctx, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, 101, games[0].APIID, "ordered by start time")
}

func TestMemoryStore_DeleteCascadesPicks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	kept := &models.Game{APIID: 1, HomeTeamID: 1, AwayTeamID: 2}
	dropped := &models.Game{APIID: 2, HomeTeamID: 1, AwayTeamID: 2}
	seedGames(t, s, kept, dropped)

	require.NoError(t, s.CreatePick(ctx, &models.Pick{UserID: 1, GameID: kept.ID, TeamID: 1}))
	require.NoError(t, s.CreatePick(ctx, &models.Pick{UserID: 1, GameID: dropped.ID, TeamID: 2}))
	require.NoError(t, s.CreatePick(ctx, &models.Pick{UserID: 2, GameID: dropped.ID, TeamID: 1}))

	result, err := s.ApplyGameChanges(ctx, &models.GameChangeSet{Deletes: []*models.Game{dropped}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Deleted)
	assert.EqualValues(t, 2, result.DeletedPicks)

	picks, err := s.GetAllPicks(ctx)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, kept.ID, picks[0].GameID)
}

func TestMemoryStore_ApplyGameChangesIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	existing := &models.Game{APIID: 1, Status: models.GameStatusNotStarted}
	seedGames(t, s, existing)

	update := *existing
	update.Status = models.GameStatusFinal

	_, err := s.ApplyGameChanges(ctx, &models.GameChangeSet{
		Updates: []*models.Game{&update},
		Inserts: []*models.Game{{APIID: 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))

	stored, err := s.GetGameByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusNotStarted, stored.Status, "update must not land when the batch fails")
}

func TestMemoryStore_CreatePickDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreatePick(ctx, &models.Pick{UserID: 1, GameID: 5, TeamID: 1}))
	err := s.CreatePick(ctx, &models.Pick{UserID: 1, GameID: 5, TeamID: 2})
	assert.ErrorIs(t, err, ErrDuplicate)

	pick, err := s.GetPickByUserAndGame(ctx, 1, 5)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, 1, pick.TeamID)
}

func TestMemoryStore_UpsertTeamsKeepsStored(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := []*models.Team{{APIID: 35, Name: "Rangers"}, {APIID: 12, Name: "Tigers"}}
	require.NoError(t, s.UpsertTeams(ctx, first))
	assert.Equal(t, 1, first[0].ID)
	assert.Equal(t, 2, first[1].ID)

	again := []*models.Team{{APIID: 35, Name: "Renamed"}, {APIID: 40, Name: "Mariners"}}
	require.NoError(t, s.UpsertTeams(ctx, again))
	assert.Equal(t, 1, again[0].ID)
	assert.Equal(t, "Rangers", again[0].Name)
	assert.Equal(t, 3, again[1].ID)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mario := &models.User{Username: "mario"}
	require.NoError(t, s.CreateUser(ctx, mario))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "mario"}), ErrDuplicate)

	require.NoError(t, s.CreatePick(ctx, &models.Pick{UserID: mario.ID, GameID: 1, TeamID: 1}))
	require.NoError(t, s.DeleteUser(ctx, mario.ID))

	user, err := s.GetUserByUsername(ctx, "mario")
	require.NoError(t, err)
	assert.Nil(t, user)

	picks, err := s.GetPicksByUser(ctx, mario.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestMemoryStore_SeasonHierarchyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 2; i++ {
		sport := &models.Sport{Name: "Baseball"}
		require.NoError(t, s.EnsureSport(ctx, sport))
		league := &models.League{APIID: 1, Name: "Major League Baseball", Abbreviation: "MLB", SportID: sport.ID}
		require.NoError(t, s.EnsureLeague(ctx, league))
		season := &models.Season{Name: "2024", Year: 2024, LeagueID: league.ID}
		require.NoError(t, s.EnsureSeason(ctx, season))
		sub := &models.SubSeason{Name: "Regular Season", Type: models.SubSeasonRegular, SeasonID: season.ID}
		require.NoError(t, s.EnsureSubSeason(ctx, sub))

		assert.Equal(t, 1, sport.ID)
		assert.Equal(t, 1, league.ID)
		assert.Equal(t, 1, season.ID)
		assert.Equal(t, 1, sub.ID)
	}

	league, err := s.GetLeagueByAPIID(ctx, 1)
	require.NoError(t, err)
	subs, err := s.GetSubSeasonsByLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}
