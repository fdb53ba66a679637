package interfaces

import (
	"context"
	"time"

	"pickem-go/models"
	"pickem-go/services"
)

// GameViewServiceInterface defines the read views served by the game handlers
// This replaces the concrete *services.GameViewService dependency
type GameViewServiceInterface interface {
	Location() *time.Location
	Today() time.Time
	Scoreboard(ctx context.Context, day time.Time, user *models.User) (*models.Scoreboard, error)
	Leaderboard(ctx context.Context, day time.Time) (*models.Leaderboard, error)
	SeasonLeaders(ctx context.Context) (*models.SeasonLeaders, error)
	PicksheetGames(ctx context.Context, user *models.User) (*models.Picksheet, error)
	MyPicks(ctx context.Context, user *models.User) (*models.MyPicks, error)
}

// PickServiceInterface defines the pick operations used by handlers
type PickServiceInterface interface {
	SubmitPicks(ctx context.Context, userID int, candidates []models.PickCandidate) (*services.PickSubmission, error)
	StagePendingPicks(ctx context.Context, token string, candidates []models.PickCandidate) (models.PendingPicks, error)
	ClaimPendingPicks(ctx context.Context, userID int, token string) (*services.PickSubmission, error)
}

// AuthServiceInterface defines authentication operations used by handlers
// This replaces the concrete *services.AuthService dependency
type AuthServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetUserFromToken(ctx context.Context, token string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int) error
}

// UpdaterInterface is the admin trigger for a reconcile of today
type UpdaterInterface interface {
	ForceUpdate(ctx context.Context) (*models.ReconcileReport, error)
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a plain function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
