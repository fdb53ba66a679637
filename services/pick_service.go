package services

import (
	"context"
	"errors"
	"fmt"

	"pickem-go/cache"
	"pickem-go/database"
	"pickem-go/logging"
	"pickem-go/models"

	"github.com/itbasis/go-clock"
)

// PickRejectReason says why a candidate was dropped. Reasons are for logs and
// tests only; users just see the pick missing.
type PickRejectReason string

const (
	RejectAlreadyPicked PickRejectReason = "already picked"
	RejectGameNotFound  PickRejectReason = "game not found"
	RejectTeamNotFound  PickRejectReason = "team not found"
	RejectTeamNotInGame PickRejectReason = "team not in game"
	RejectGameStarted   PickRejectReason = "game started"
)

type RejectedPick struct {
	Candidate models.PickCandidate
	Reason    PickRejectReason
}

// PickSubmission is the outcome of one batch
type PickSubmission struct {
	Saved    []*models.Pick
	Rejected []RejectedPick
}

// PickService validates and stores picks. It is the only writer of picks.
type PickService struct {
	picks   PickRepository
	games   GameRepository
	teams   TeamRepository
	pending cache.PendingPickStore
	clock   clock.Clock
	logger  *logging.Logger
}

func NewPickService(picks PickRepository, games GameRepository, teams TeamRepository, pending cache.PendingPickStore, clk clock.Clock) *PickService {
	return &PickService{
		picks:   picks,
		games:   games,
		teams:   teams,
		pending: pending,
		clock:   clk,
		logger:  logging.WithPrefix("PickService"),
	}
}

// SubmitPicks evaluates every candidate on its own. Invalid candidates are
// dropped; valid ones are saved even when others in the batch fail. The
// returned error joins any storage failures.
func (s *PickService) SubmitPicks(ctx context.Context, userID int, candidates []models.PickCandidate) (*PickSubmission, error) {
	result := &PickSubmission{Saved: []*models.Pick{}, Rejected: []RejectedPick{}}
	var errs []error

	for _, c := range candidates {
		pick, reason, err := s.submit(ctx, userID, c)
		switch {
		case err != nil:
			errs = append(errs, err)
		case reason != "":
			result.Rejected = append(result.Rejected, RejectedPick{Candidate: c, Reason: reason})
			s.logger.Debugf("Dropped pick user=%d game=%d team=%d: %s", userID, c.GameID, c.TeamID, reason)
		default:
			result.Saved = append(result.Saved, pick)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Errorf("Saving picks for user %d: %v", userID, err)
	}
	if len(result.Saved) > 0 {
		s.logger.Infof("User %d saved %d picks (%d dropped)", userID, len(result.Saved), len(result.Rejected))
	}
	return result, err
}

func (s *PickService) submit(ctx context.Context, userID int, c models.PickCandidate) (*models.Pick, PickRejectReason, error) {
	existing, err := s.picks.GetPickByUserAndGame(ctx, userID, c.GameID)
	if err != nil {
		return nil, "", fmt.Errorf("checking pick for game %d: %w", c.GameID, err)
	}
	if existing != nil {
		return nil, RejectAlreadyPicked, nil
	}

	game, err := s.games.GetGameByID(ctx, c.GameID)
	if err != nil {
		return nil, "", fmt.Errorf("loading game %d: %w", c.GameID, err)
	}
	if game == nil {
		return nil, RejectGameNotFound, nil
	}

	team, err := s.teams.GetTeamByID(ctx, c.TeamID)
	if err != nil {
		return nil, "", fmt.Errorf("loading team %d: %w", c.TeamID, err)
	}
	if team == nil {
		return nil, RejectTeamNotFound, nil
	}

	if !game.HasTeam(team.ID) {
		return nil, RejectTeamNotInGame, nil
	}

	now := s.clock.Now()
	if game.HasStarted(now) {
		return nil, RejectGameStarted, nil
	}

	pick := &models.Pick{
		UserID:     userID,
		GameID:     game.ID,
		TeamID:     team.ID,
		CreateTime: now.UTC(),
	}
	if err := s.picks.CreatePick(ctx, pick); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// a concurrent submission got there first
			return nil, RejectAlreadyPicked, nil
		}
		return nil, "", err
	}
	return pick, "", nil
}

// StagePendingPicks holds picks made before sign-in under token
func (s *PickService) StagePendingPicks(ctx context.Context, token string, candidates []models.PickCandidate) (models.PendingPicks, error) {
	return s.pending.Stage(ctx, token, models.NewPendingPicks(candidates...))
}

// ClaimPendingPicks takes whatever is staged under token and submits it for
// the now known user
func (s *PickService) ClaimPendingPicks(ctx context.Context, userID int, token string) (*PickSubmission, error) {
	if token == "" {
		return &PickSubmission{Saved: []*models.Pick{}, Rejected: []RejectedPick{}}, nil
	}

	staged, err := s.pending.Take(ctx, token)
	if err != nil {
		return nil, err
	}
	if staged.IsEmpty() {
		return &PickSubmission{Saved: []*models.Pick{}, Rejected: []RejectedPick{}}, nil
	}

	s.logger.Infof("Claiming %d pending picks for user %d", staged.Len(), userID)
	return s.SubmitPicks(ctx, userID, staged.Candidates())
}

// GetUserPicks returns every pick the user has made
func (s *PickService) GetUserPicks(ctx context.Context, userID int) ([]*models.Pick, error) {
	return s.picks.GetPicksByUser(ctx, userID)
}
