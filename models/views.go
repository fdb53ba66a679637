package models

import (
	"encoding/json"
	"time"
)

// StatValue is a scoreboard stat: a number, or the "-" placeholder for games
// that cannot have a score yet
type StatValue struct {
	Value       int
	Placeholder bool
}

func (s StatValue) MarshalJSON() ([]byte, error) {
	if s.Placeholder {
		return []byte(`"-"`), nil
	}
	return json.Marshal(s.Value)
}

func (s *StatValue) UnmarshalJSON(data []byte) error {
	if string(data) == `"-"` {
		*s = StatValue{Placeholder: true}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = StatValue{Value: v}
	return nil
}

// String renders the stat as shown on the scoreboard
func (s StatValue) String() string {
	if s.Placeholder {
		return "-"
	}
	b, _ := json.Marshal(s.Value)
	return string(b)
}

// TeamView is the JSON shape of a team
type TeamView struct {
	ID           int    `json:"id"`
	APIID        int    `json:"apiID"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	Abbreviation string `json:"abbreviation"`
	LogoURL      string `json:"logoURL"`
	LeagueID     int    `json:"leagueID"`
}

// NewTeamView converts a team; a nil team yields an empty view
func NewTeamView(t *Team) TeamView {
	if t == nil {
		return TeamView{}
	}
	return TeamView{
		ID:           t.ID,
		APIID:        t.APIID,
		Name:         t.Name,
		Location:     t.Location,
		Abbreviation: t.Abbreviation,
		LogoURL:      t.LogoURL,
		LeagueID:     t.LeagueID,
	}
}

// SideView is a team plus its line score in one game
type SideView struct {
	TeamView
	Score  StatValue `json:"score"`
	Hits   StatValue `json:"hits"`
	Errors StatValue `json:"errors"`
}

// GameView is the JSON shape of a game
type GameView struct {
	ID          int      `json:"id"`
	APIID       int      `json:"apiID"`
	StartTime   string   `json:"startTime"`
	Status      string   `json:"status"`
	SubSeasonID int      `json:"subseasonID"`
	WinTeamID   *int     `json:"winTeamID"`
	AwayTeam    SideView `json:"awayTeam"`
	HomeTeam    SideView `json:"homeTeam"`
}

// NewGameView renders a game with its teams; start time is shown in loc
func NewGameView(g *Game, home, away *Team, loc *time.Location) GameView {
	view := GameView{
		ID:          g.ID,
		APIID:       g.APIID,
		StartTime:   g.StartTime.In(loc).Format(time.RFC3339),
		Status:      g.Status.DisplayName(),
		SubSeasonID: g.SubSeasonID,
		AwayTeam: SideView{
			TeamView: NewTeamView(away),
			Score:    g.DisplayStat(g.AwayScore),
			Hits:     g.DisplayStat(g.AwayHits),
			Errors:   g.DisplayStat(g.AwayErrors),
		},
		HomeTeam: SideView{
			TeamView: NewTeamView(home),
			Score:    g.DisplayStat(g.HomeScore),
			Hits:     g.DisplayStat(g.HomeHits),
			Errors:   g.DisplayStat(g.HomeErrors),
		},
	}
	if winner, ok := g.WinningTeamID(); ok {
		view.WinTeamID = IntPtr(winner)
	}
	return view
}

// PickView is the JSON shape of a pick
type PickView struct {
	ID      int  `json:"id"`
	UserID  int  `json:"userID"`
	GameID  int  `json:"gameID"`
	TeamID  int  `json:"teamID"`
	Correct bool `json:"correct"`
}

// NewPickView renders a pick; game may be nil when it is unknown
func NewPickView(p *Pick, game *Game) PickView {
	return PickView{
		ID:      p.ID,
		UserID:  p.UserID,
		GameID:  p.GameID,
		TeamID:  p.TeamID,
		Correct: p.IsCorrect(game),
	}
}

// LeaderboardEntry is one user's standing
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// ScoreboardGame is a game on the scoreboard with the viewer's pick, if any
type ScoreboardGame struct {
	GameView
	Pick *PickView `json:"pick"`
}

// Scoreboard is the scoreboard page for one day
type Scoreboard struct {
	Games      []ScoreboardGame `json:"games"`
	DayDisplay string           `json:"dayDisplay"`
	Day        string           `json:"day"`
	NextDay    string           `json:"nextDay"`
	PrevDay    string           `json:"prevDay"`
	UserPoints *int             `json:"userPoints"`
}

// Leaderboard is the standings page for one day
type Leaderboard struct {
	Users      []LeaderboardEntry `json:"users"`
	DayDisplay string             `json:"dayDisplay"`
	Day        string             `json:"day"`
	NextDay    string             `json:"nextDay"`
	PrevDay    string             `json:"prevDay"`
}

// SeasonLeaders is the season long standings
type SeasonLeaders struct {
	Users []LeaderboardEntry `json:"users"`
}

// PicksheetDay is one heading of the pick sheet
type PicksheetDay struct {
	Date  string     `json:"date"`
	Games []GameView `json:"games"`
}

// Picksheet lists the games a user can still pick
type Picksheet struct {
	GamesToPick []PicksheetDay `json:"gamesToPick"`
}

// MyPicksDay is the heading and score for one day of a user's picks
type MyPicksDay struct {
	DateHeading string `json:"dateHeading"`
	Points      int    `json:"points"`
}

// MyPick is a pick shown with its game
type MyPick struct {
	PickView
	Game GameView `json:"game"`
}

// MyPicks is a user's picks grouped by day
type MyPicks struct {
	Dates               map[string]MyPicksDay `json:"dates"`
	Picks               map[string][]MyPick   `json:"picks"`
	NeedMakePicksButton bool                  `json:"needMakePicksButton"`
}
