package models

import (
	"strconv"
	"time"
)

// DateLayout is the storage format for claim dates.
const DateLayout = "2006-01-02"

// DateKey formats a point in time as a claim-date key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Mode is the game mode.
type Mode string

const (
	ModeIndividual Mode = "Individual"
	ModeTeam       Mode = "Team"
)

// ParseMode matches user input against the known modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeIndividual, ModeTeam:
		return Mode(s), true
	}
	return "", false
}

// Duration is the game length.
type Duration string

const (
	DurationOneWeek  Duration = "1 week"
	DurationTwoWeeks Duration = "2 weeks"
	DurationOneMonth Duration = "1 month"
)

// ParseDuration matches user input against the known durations.
func ParseDuration(s string) (Duration, bool) {
	switch Duration(s) {
	case DurationOneWeek, DurationTwoWeeks, DurationOneMonth:
		return Duration(s), true
	}
	return "", false
}

// Days returns the day threshold for the duration. The game ends once the
// day counter exceeds this value.
func (d Duration) Days() int {
	switch d {
	case DurationTwoWeeks:
		return 14
	case DurationOneMonth:
		return 30
	default:
		return 7
	}
}

// Team identifies one of the two rosters in Team mode.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// User represents a participant in the current game.
type User struct {
	ID          int64  `bson:"_id"`          // Telegram ID of the user
	DisplayName string `bson:"display_name"` // Derived from profile fields, not unique
	Points      int    `bson:"points"`       // Total points this game
	Streak      int    `bson:"streak"`       // Consecutive daily claims
	LastClaim   string `bson:"last_claim"`   // Date key of last claim, "" if never
}

// Game represents a single competition. At most one game is active at a time.
type Game struct {
	ID        string    `bson:"_id"`       // Time-based, sorts by creation
	Mode      Mode      `bson:"mode"`      // Individual or Team
	Duration  Duration  `bson:"duration"`  // 1 week / 2 weeks / 1 month
	Penalties bool      `bson:"penalties"` // Recorded only, no behavior attached
	TeamA     []string  `bson:"team_a"`    // Display names, Team mode only
	TeamB     []string  `bson:"team_b"`    // Display names, Team mode only
	Day       int       `bson:"day"`       // Current day, starts at 1
	Active    bool      `bson:"active"`
	StartDate time.Time `bson:"start_date"` // UTC, fixed at creation
}

// NewGameID returns a unique, monotonically comparable game ID.
func NewGameID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10)
}

// Roster returns the named team's roster.
func (g *Game) Roster(t Team) []string {
	if t == TeamB {
		return g.TeamB
	}
	return g.TeamA
}
