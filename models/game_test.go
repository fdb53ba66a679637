package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func finalGame(away, home int) *Game {
	return &Game{
		ID:         171,
		APIID:      90171,
		StartTime:  time.Date(2024, 4, 1, 19, 5, 0, 0, time.UTC),
		Status:     GameStatusFinal,
		AwayTeamID: 28,
		HomeTeamID: 25,
		AwayScore:  IntPtr(away),
		HomeScore:  IntPtr(home),
	}
}

func TestGameStatus_DisplayName(t *testing.T) {
	tests := map[string]struct {
		status GameStatus
		want   string
	}{
		"not started": {status: GameStatusNotStarted, want: "Not Started"},
		"inning":      {status: GameStatusInning3, want: "3rd"},
		"delay":       {status: GameStatusDelayed, want: "Delay"},
		"final":       {status: GameStatusFinal, want: "Final"},
		"unknown":     {status: GameStatus("AOT"), want: "AOT"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.status.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() wanted: '%s', got: '%s'", tc.want, got)
			}
		})
	}
}

func TestGame_CanHaveScore(t *testing.T) {
	tests := map[GameStatus]bool{
		GameStatusNotStarted: false,
		GameStatusPostponed:  false,
		GameStatusCanceled:   false,
		GameStatusInning1:    true,
		GameStatusInning9:    true,
		GameStatusDelayed:    true,
		GameStatusAbandoned:  true,
		GameStatusFinal:      true,
	}

	for status, want := range tests {
		g := &Game{Status: status}
		if got := g.CanHaveScore(); got != want {
			t.Errorf("CanHaveScore() for %s wanted: %t, got: %t", status, want, got)
		}
	}
}

func TestGame_WinningTeamID(t *testing.T) {
	tests := map[string]struct {
		game   *Game
		wantID int
		wantOK bool
	}{
		"away wins": {game: finalGame(10, 9), wantID: 28, wantOK: true},
		"home wins": {game: finalGame(2, 5), wantID: 25, wantOK: true},
		"tie":       {game: finalGame(4, 4), wantOK: false},
		"in progress": {
			game: func() *Game {
				g := finalGame(3, 1)
				g.Status = GameStatusInning7
				return g
			}(),
			wantOK: false,
		},
		"final without score": {
			game: &Game{Status: GameStatusFinal, AwayTeamID: 1, HomeTeamID: 2},
			wantOK: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			id, ok := tc.game.WinningTeamID()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestGame_DisplayStat(t *testing.T) {
	notStarted := &Game{Status: GameStatusNotStarted}
	postponed := &Game{Status: GameStatusPostponed}
	live := &Game{Status: GameStatusInning4}
	final := &Game{Status: GameStatusFinal}

	assert.Equal(t, StatValue{Placeholder: true}, notStarted.DisplayStat(nil))
	assert.Equal(t, StatValue{Placeholder: true}, postponed.DisplayStat(nil))
	assert.Equal(t, StatValue{Value: 0}, live.DisplayStat(nil))
	assert.Equal(t, StatValue{Value: 0}, final.DisplayStat(nil))
	assert.Equal(t, StatValue{Value: 7}, notStarted.DisplayStat(IntPtr(7)))
	assert.Equal(t, StatValue{Value: 3}, final.DisplayStat(IntPtr(3)))
}

func TestGame_HasStarted(t *testing.T) {
	start := time.Date(2024, 4, 1, 19, 5, 0, 0, time.UTC)
	g := &Game{StartTime: start}

	assert.False(t, g.HasStarted(start.Add(-time.Second)))
	assert.True(t, g.HasStarted(start), "a game starting exactly now has started")
	assert.True(t, g.HasStarted(start.Add(time.Minute)))
}

func TestGame_SameState(t *testing.T) {
	a := finalGame(10, 9)
	b := finalGame(10, 9)
	b.StartTime = a.StartTime.In(time.FixedZone("PDT", -7*3600))
	assert.True(t, a.SameState(b), "same instant in another zone is unchanged")

	b.HomeHits = IntPtr(8)
	assert.False(t, a.SameState(b))

	c := finalGame(10, 9)
	c.AwayScore = nil
	assert.False(t, a.SameState(c))
}

func TestGameChangeSet(t *testing.T) {
	var empty GameChangeSet
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, empty.DeleteIDs())

	changes := GameChangeSet{Deletes: []*Game{{ID: 4}, {ID: 9}}}
	assert.False(t, changes.IsEmpty())
	assert.Equal(t, []int{4, 9}, changes.DeleteIDs())
}
