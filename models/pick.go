package models

import (
	"fmt"
	"time"
)

// Pick is a user's choice of winner for one game
type Pick struct {
	ID         int       `json:"id" bson:"_id"`
	UserID     int       `json:"userID" bson:"user_id"`
	GameID     int       `json:"gameID" bson:"game_id"`
	TeamID     int       `json:"teamID" bson:"team_id"`
	CreateTime time.Time `json:"createTime" bson:"create_time"`
}

// IsCorrect is true iff the game is final and the picked team scored strictly more
func (p *Pick) IsCorrect(game *Game) bool {
	if game == nil || game.ID != p.GameID {
		return false
	}
	winner, ok := game.WinningTeamID()
	return ok && winner == p.TeamID
}

func (p *Pick) String() string {
	return fmt.Sprintf("Pick #%d: user %d picked team %d for game %d", p.ID, p.UserID, p.TeamID, p.GameID)
}

// PickCandidate is a proposed (game, team) pair that has not been validated yet.
// Bad ids are dropped one at a time by the pick service, never rejected here.
type PickCandidate struct {
	GameID int `json:"game"`
	TeamID int `json:"team"`
}

// PicksheetSubmission is the body of a pick sheet POST
type PicksheetSubmission struct {
	Picks []PickCandidate `json:"picks" validate:"required,min=1,max=100"`
}
