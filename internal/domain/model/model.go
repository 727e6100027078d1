// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Discipline identifies which rating track an entry belongs to. Batting and
// bowling are rated independently; a single delivery touches exactly one
// discipline per participant.
type Discipline string

const (
	Batting Discipline = "batting"
	Bowling Discipline = "bowling"
)

// Disciplines lists the rating tracks in a stable order.
func Disciplines() []Discipline {
	return []Discipline{Batting, Bowling}
}

// BallEvent represents one delivery as recorded in a ball-by-ball log.
// Events are consumed strictly in file order and never reordered.
type BallEvent struct {
	Striker    string // batter facing the delivery
	Bowler     string
	RunsOffBat int
	Wides      int    // wide count, >0 means the delivery was a wide
	NoBalls    int    // no-ball count, >0 means the delivery was a no-ball
	WicketType string // dismissal type, empty when no wicket fell
}

// MatchContext carries one match's metadata and its ordered deliveries.
type MatchContext struct {
	ID     string // stable identifier derived from the source file
	Venue  string
	Date   time.Time
	Season string
	Balls  []BallEvent
}

// Players returns the distinct strikers and bowlers appearing in the match,
// sorted for deterministic batch reads.
func (m MatchContext) Players() []string {
	seen := make(map[string]struct{}, len(m.Balls))
	for _, b := range m.Balls {
		seen[b.Striker] = struct{}{}
		seen[b.Bowler] = struct{}{}
	}
	delete(seen, "")
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rated is one (date, rating) point in a player's history.
type Rated struct {
	Date   time.Time
	Rating float64
}

// RatingEntry is a single append to a player's rating history.
type RatingEntry struct {
	Player     string
	Discipline Discipline
	Date       time.Time
	Rating     float64
}
