package models

import "strings"

// Team is a club that plays in a league
type Team struct {
	ID           int    `json:"id" bson:"_id"`
	APIID        int    `json:"apiID" bson:"api_id"`
	Name         string `json:"name" bson:"name"`
	Location     string `json:"location" bson:"location"`
	Abbreviation string `json:"abbreviation" bson:"abbreviation"`
	LogoURL      string `json:"logoURL" bson:"logo_url"`
	LeagueID     int    `json:"leagueID" bson:"league_id"`
}

// FullName returns the location and name, e.g. "Seattle Mariners"
func (t *Team) FullName() string {
	return strings.TrimSpace(t.Location + " " + t.Name)
}
