package services

import (
	"strings"

	"pickem-go/models"
)

var mlbAbbreviations = map[string]string{
	"Arizona Diamondbacks":  "ARI",
	"Atlanta Braves":        "ATL",
	"Baltimore Orioles":     "BAL",
	"Boston Red Sox":        "BOS",
	"Chicago Cubs":          "CHC",
	"Chicago White Sox":     "CWS",
	"Cincinnati Reds":       "CIN",
	"Cleveland Guardians":   "CLE",
	"Colorado Rockies":      "COL",
	"Detroit Tigers":        "DET",
	"Houston Astros":        "HOU",
	"Kansas City Royals":    "KC",
	"Los Angeles Angels":    "LAA",
	"Los Angeles Dodgers":   "LAD",
	"Miami Marlins":         "MIA",
	"Milwaukee Brewers":     "MIL",
	"Minnesota Twins":       "MIN",
	"New York Mets":         "NYM",
	"New York Yankees":      "NYY",
	"Oakland Athletics":     "OAK",
	"Athletics":             "ATH",
	"Philadelphia Phillies": "PHI",
	"Pittsburgh Pirates":    "PIT",
	"San Diego Padres":      "SD",
	"San Francisco Giants":  "SF",
	"Seattle Mariners":      "SEA",
	"St.Louis Cardinals":    "STL",
	"St. Louis Cardinals":   "STL",
	"Tampa Bay Rays":        "TB",
	"Texas Rangers":         "TEX",
	"Toronto Blue Jays":     "TOR",
	"Washington Nationals":  "WSH",
}

var twoWordNicknames = []string{"Red Sox", "White Sox", "Blue Jays"}

// splitTeamName splits "Texas Rangers" into ("Texas", "Rangers")
func splitTeamName(full string) (location, name string) {
	full = strings.TrimSpace(full)
	for _, nick := range twoWordNicknames {
		if strings.HasSuffix(full, " "+nick) {
			return strings.TrimSuffix(full, " "+nick), nick
		}
	}
	i := strings.LastIndex(full, " ")
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}

// newTeam builds a team record from what the API reports about it
func newTeam(apiID int, fullName, logo string, leagueID int) *models.Team {
	location, name := splitTeamName(fullName)
	abbr, ok := mlbAbbreviations[strings.TrimSpace(fullName)]
	if !ok {
		abbr = strings.ToUpper(name)
		if len(abbr) > 3 {
			abbr = abbr[:3]
		}
	}
	return &models.Team{
		APIID:        apiID,
		Name:         name,
		Location:     location,
		Abbreviation: abbr,
		LogoURL:      logo,
		LeagueID:     leagueID,
	}
}
