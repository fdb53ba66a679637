package models

import (
	"fmt"
	"time"
)

// Sport is the top of the schedule hierarchy (Baseball)
type Sport struct {
	ID   int    `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// League is an organization running a group of teams (MLB)
type League struct {
	ID           int    `json:"id" bson:"_id"`
	APIID        int    `json:"apiID" bson:"api_id"`
	Name         string `json:"name" bson:"name"`
	Abbreviation string `json:"abbreviation" bson:"abbreviation"`
	SportID      int    `json:"sportID" bson:"sport_id"`
}

// Season is one year of a league
type Season struct {
	ID       int    `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Year     int    `json:"year" bson:"year"`
	LeagueID int    `json:"leagueID" bson:"league_id"`
}

// SubSeasonType identifies a portion of a season
type SubSeasonType int

const (
	SubSeasonPreseason SubSeasonType = iota
	SubSeasonRegular
	SubSeasonPostseason
	SubSeasonAllStar
	SubSeasonExhibition
)

func (t SubSeasonType) String() string {
	switch t {
	case SubSeasonPreseason:
		return "preseason"
	case SubSeasonRegular:
		return "regular"
	case SubSeasonPostseason:
		return "postseason"
	case SubSeasonAllStar:
		return "allstar"
	case SubSeasonExhibition:
		return "exhibition"
	}
	return fmt.Sprintf("subseason(%d)", int(t))
}

// SubSeason is a portion of a season (regular season, postseason, ...)
type SubSeason struct {
	ID       int           `json:"id" bson:"_id"`
	Name     string        `json:"name" bson:"name"`
	Type     SubSeasonType `json:"type" bson:"type"`
	Start    time.Time     `json:"start" bson:"start"`
	End      time.Time     `json:"end" bson:"end"`
	SeasonID int           `json:"seasonID" bson:"season_id"`
}

// Contains reports whether day falls between Start and End inclusive
func (s *SubSeason) Contains(day time.Time) bool {
	return !day.Before(s.Start) && !day.After(s.End)
}
