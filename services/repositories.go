package services

import (
	"context"
	"errors"
	"time"

	"pickem-go/models"
)

var (
	// ErrFetchFailed covers every way the external score source can fail
	ErrFetchFailed = errors.New("fetch failed")
	// ErrNotFound is returned by direct lookups of missing records
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

// GameRepository is the Game Store. Only the Reconciler and Seeder write to it.
type GameRepository interface {
	CountGames(ctx context.Context) (int64, error)
	GetGameByID(ctx context.Context, id int) (*models.Game, error)
	GetGamesByIDs(ctx context.Context, ids []int) ([]*models.Game, error)
	GetGamesByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Game, error)
	GetGamesBetween(ctx context.Context, start, end time.Time) ([]*models.Game, error)
	ApplyGameChanges(ctx context.Context, changes *models.GameChangeSet) (*models.GameChangeResult, error)
}

type TeamRepository interface {
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
	GetTeamsByIDs(ctx context.Context, ids []int) ([]*models.Team, error)
	GetTeamsByAPIIDs(ctx context.Context, apiIDs []int) ([]*models.Team, error)
	UpsertTeams(ctx context.Context, teams []*models.Team) error
}

// PickRepository is the Pick Store. Only the PickService creates picks.
type PickRepository interface {
	CreatePick(ctx context.Context, pick *models.Pick) error
	GetPickByUserAndGame(ctx context.Context, userID, gameID int) (*models.Pick, error)
	GetPicksByUser(ctx context.Context, userID int) ([]*models.Pick, error)
	GetAllPicks(ctx context.Context) ([]*models.Pick, error)
	DeletePicksByUser(ctx context.Context, userID int) (int64, error)
}

// UserRepository interface for user data operations
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type SeasonRepository interface {
	EnsureSport(ctx context.Context, sport *models.Sport) error
	EnsureLeague(ctx context.Context, league *models.League) error
	EnsureSeason(ctx context.Context, season *models.Season) error
	EnsureSubSeason(ctx context.Context, subseason *models.SubSeason) error
	GetLeagueByAPIID(ctx context.Context, apiID int) (*models.League, error)
	GetSeasonByID(ctx context.Context, id int) (*models.Season, error)
	GetSubSeasonsByLeague(ctx context.Context, leagueID int) ([]*models.SubSeason, error)
}

// GamesUpdatedNotifier is told about every reconciliation pass that changed games
type GamesUpdatedNotifier interface {
	NotifyGamesUpdated(ctx context.Context, report *models.ReconcileReport) error
}
