package models

import (
	"fmt"
	"time"
)

// ReconcileReport summarizes one reconciliation pass for a day
type ReconcileReport struct {
	Day          string    `json:"day"`
	LeagueID     int       `json:"leagueID"`
	SubSeasonID  int       `json:"subseasonID"`
	Fetched      int       `json:"fetched"`
	Inserted     int64     `json:"inserted"`
	Updated      int64     `json:"updated"`
	Deleted      int64     `json:"deleted"`
	DeletedPicks int64     `json:"deletedPicks"`
	TeamsCreated int       `json:"teamsCreated"`
	ChangedGames []int     `json:"changedGames"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// HasChanges reports whether the pass wrote anything
func (r *ReconcileReport) HasChanges() bool {
	return r.Inserted > 0 || r.Updated > 0 || r.Deleted > 0
}

func (r *ReconcileReport) String() string {
	return fmt.Sprintf("day=%s fetched=%d inserted=%d updated=%d deleted=%d deleted_picks=%d teams_created=%d",
		r.Day, r.Fetched, r.Inserted, r.Updated, r.Deleted, r.DeletedPicks, r.TeamsCreated)
}
