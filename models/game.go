package models

import (
	"fmt"
	"time"
)

// GameStatus is the short status code reported by the scores API
type GameStatus string

const (
	GameStatusNotStarted GameStatus = "NS"
	GameStatusInning1    GameStatus = "IN1"
	GameStatusInning2    GameStatus = "IN2"
	GameStatusInning3    GameStatus = "IN3"
	GameStatusInning4    GameStatus = "IN4"
	GameStatusInning5    GameStatus = "IN5"
	GameStatusInning6    GameStatus = "IN6"
	GameStatusInning7    GameStatus = "IN7"
	GameStatusInning8    GameStatus = "IN8"
	GameStatusInning9    GameStatus = "IN9"
	GameStatusDelayed    GameStatus = "INTR"
	GameStatusPostponed  GameStatus = "POST"
	GameStatusAbandoned  GameStatus = "ABD"
	GameStatusCanceled   GameStatus = "CANC"
	GameStatusFinal      GameStatus = "FT"
)

var gameStatusNames = map[GameStatus]string{
	GameStatusNotStarted: "Not Started",
	GameStatusInning1:    "1st",
	GameStatusInning2:    "2nd",
	GameStatusInning3:    "3rd",
	GameStatusInning4:    "4th",
	GameStatusInning5:    "5th",
	GameStatusInning6:    "6th",
	GameStatusInning7:    "7th",
	GameStatusInning8:    "8th",
	GameStatusInning9:    "9th",
	GameStatusDelayed:    "Delay",
	GameStatusPostponed:  "Postponed",
	GameStatusAbandoned:  "Abandoned",
	GameStatusCanceled:   "Canceled",
	GameStatusFinal:      "Final",
}

// DisplayName returns the human readable status; unknown codes are shown as-is
func (s GameStatus) DisplayName() string {
	if name, ok := gameStatusNames[s]; ok {
		return name
	}
	return string(s)
}

// IsKnown reports whether the code is one the app understands
func (s GameStatus) IsKnown() bool {
	_, ok := gameStatusNames[s]
	return ok
}

// Game is a scheduled game users can pick a winner for
type Game struct {
	ID          int        `json:"id" bson:"_id"`
	APIID       int        `json:"apiID" bson:"api_id"`
	StartTime   time.Time  `json:"startTime" bson:"start_time"`
	Status      GameStatus `json:"status" bson:"status"`
	HomeTeamID  int        `json:"homeTeamID" bson:"home_team_id"`
	AwayTeamID  int        `json:"awayTeamID" bson:"away_team_id"`
	HomeScore   *int       `json:"homeScore" bson:"home_score"`
	AwayScore   *int       `json:"awayScore" bson:"away_score"`
	HomeHits    *int       `json:"homeHits" bson:"home_hits"`
	AwayHits    *int       `json:"awayHits" bson:"away_hits"`
	HomeErrors  *int       `json:"homeErrors" bson:"home_errors"`
	AwayErrors  *int       `json:"awayErrors" bson:"away_errors"`
	SubSeasonID int        `json:"subseasonID" bson:"subseason_id"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`
}

// CanHaveScore is true once a game is in progress, finished or abandoned
func (g *Game) CanHaveScore() bool {
	switch g.Status {
	case GameStatusNotStarted, GameStatusPostponed, GameStatusCanceled:
		return false
	}
	return true
}

// IsOver returns true if the game has been played to completion
func (g *Game) IsOver() bool {
	return g.Status == GameStatusFinal
}

// HasStarted reports whether first pitch is at or before now
func (g *Game) HasStarted(now time.Time) bool {
	return !g.StartTime.After(now)
}

// HasTeam reports whether the team plays in this game
func (g *Game) HasTeam(teamID int) bool {
	return teamID == g.HomeTeamID || teamID == g.AwayTeamID
}

// WinningTeamID returns the id of the team with the strictly higher score in a final game.
// A tie, a missing score or an unfinished game has no winner.
func (g *Game) WinningTeamID() (int, bool) {
	if !g.IsOver() || g.HomeScore == nil || g.AwayScore == nil {
		return 0, false
	}
	switch {
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID, true
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID, true
	}
	return 0, false
}

// DisplayStat applies the scoreboard policy for a nullable stat
func (g *Game) DisplayStat(stat *int) StatValue {
	if stat != nil {
		return StatValue{Value: *stat}
	}
	if g.CanHaveScore() {
		return StatValue{Value: 0}
	}
	return StatValue{Placeholder: true}
}

// Day returns midnight of the game's calendar day in loc
func (g *Game) Day(loc *time.Location) time.Time {
	return StartOfDay(g.StartTime, loc)
}

// FormatStartTime renders the start time like "7:05 PM" in loc
func (g *Game) FormatStartTime(loc *time.Location) string {
	return g.StartTime.In(loc).Format("3:04 PM")
}

// SameState reports whether every reconciled field matches other
func (g *Game) SameState(other *Game) bool {
	return g.APIID == other.APIID &&
		g.StartTime.Equal(other.StartTime) &&
		g.Status == other.Status &&
		g.HomeTeamID == other.HomeTeamID &&
		g.AwayTeamID == other.AwayTeamID &&
		intPtrEqual(g.HomeScore, other.HomeScore) &&
		intPtrEqual(g.AwayScore, other.AwayScore) &&
		intPtrEqual(g.HomeHits, other.HomeHits) &&
		intPtrEqual(g.AwayHits, other.AwayHits) &&
		intPtrEqual(g.HomeErrors, other.HomeErrors) &&
		intPtrEqual(g.AwayErrors, other.AwayErrors)
}

func (g *Game) String() string {
	return fmt.Sprintf("Game #%d (api %d): team %d @ team %d, %s %s",
		g.ID, g.APIID, g.AwayTeamID, g.HomeTeamID, g.StartTime.Format(time.RFC3339), g.Status)
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GameChangeSet is the set of writes one reconciliation pass applies
type GameChangeSet struct {
	Deletes []*Game
	Updates []*Game
	Inserts []*Game
}

// IsEmpty reports whether the pass has nothing to write
func (c *GameChangeSet) IsEmpty() bool {
	return len(c.Deletes) == 0 && len(c.Updates) == 0 && len(c.Inserts) == 0
}

// DeleteIDs returns the internal ids of the games to delete
func (c *GameChangeSet) DeleteIDs() []int {
	ids := make([]int, 0, len(c.Deletes))
	for _, g := range c.Deletes {
		ids = append(ids, g.ID)
	}
	return ids
}

// GameChangeResult counts what a change set actually wrote
type GameChangeResult struct {
	Inserted     int64
	Updated      int64
	Deleted      int64
	DeletedPicks int64
}
