package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Team identifies one of the two sides of a match.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// ParseTeam validates a wire-level team string.
func ParseTeam(s string) (Team, error) {
	switch Team(s) {
	case TeamHome, TeamAway:
		return Team(s), nil
	default:
		return "", validationf("invalid team %q", s)
	}
}

// Penalty is a timed player exclusion tracked independently of the main
// clock. Remaining is in seconds and is decremented once per tick; the
// penalty is removed the tick it reaches zero.
type Penalty struct {
	ID           int64  `json:"id"`
	Team         Team   `json:"team"`
	PlayerNumber string `json:"player_number"`
	Remaining    int    `json:"remaining"`
}

// State is the canonical match state. It is owned by the Engine; all reads
// outside the engine go through Snapshot copies.
type State struct {
	HomeName         string
	AwayName         string
	ColorHome        string
	ColorAway        string
	ScoreHome        int
	ScoreAway        int
	ShotsHome        int
	ShotsAway        int
	PeriodIndex      int
	PeriodDuration   int // seconds per period
	IntervalDuration int // seconds per inter-period break
	TimerRemaining   int
	TimerRunning     bool
	InInterval       bool
	TimeoutRemaining int
	SirenEveryMinute bool
	ObsVisible       bool
	Penalties        []Penalty

	// periodEnded latches when the main clock hits zero during play and is
	// what makes interval.start a valid command. Cleared by interval.start,
	// period.next and timer.reset.
	periodEnded bool
}

const (
	defaultHomeName       = "Casa"
	defaultAwayName       = "Ospiti"
	defaultColorHome      = "#ff4444"
	defaultColorAway      = "#44aaff"
	defaultPeriodSeconds  = 20 * 60
	defaultIntervalSecond = 15 * 60

	timeoutSeconds = 30
)

// DefaultState returns a fully-populated match state so that consumers
// never need client-side defaulting.
func DefaultState() State {
	return State{
		HomeName:         defaultHomeName,
		AwayName:         defaultAwayName,
		ColorHome:        defaultColorHome,
		ColorAway:        defaultColorAway,
		PeriodIndex:      1,
		PeriodDuration:   defaultPeriodSeconds,
		IntervalDuration: defaultIntervalSecond,
		TimerRemaining:   defaultPeriodSeconds,
		ObsVisible:       true,
		Penalties:        []Penalty{},
	}
}

// PeriodLabel renders the display label for the current period. Everything
// from the fourth period on is overtime.
func (s *State) PeriodLabel() string {
	if s.PeriodIndex >= 4 {
		return "OT"
	}
	return fmt.Sprintf("%d°", s.PeriodIndex)
}

// Snapshot is the wire form of State, pushed to room "game" on every change
// and returned by GET /game/state. Field names are fixed by the scoreboard,
// control-panel and OBS-overlay frontends.
type Snapshot struct {
	HomeName         string    `json:"homeName"`
	AwayName         string    `json:"awayName"`
	ColorHome        string    `json:"colorHome"`
	ColorAway        string    `json:"colorAway"`
	ScoreHome        int       `json:"scoreHome"`
	ScoreAway        int       `json:"scoreAway"`
	ShotsHome        int       `json:"shotsHome"`
	ShotsAway        int       `json:"shotsAway"`
	Period           string    `json:"period"`
	PeriodIndex      int       `json:"periodIndex"`
	PeriodDuration   int       `json:"periodDuration"`
	IntervalDuration int       `json:"intervalDuration"`
	TimerRemaining   int       `json:"timerRemaining"`
	TimerRunning     bool      `json:"timerRunning"`
	InInterval       bool      `json:"inInterval"`
	TimeoutRemaining int       `json:"timeoutRemaining"`
	SirenOn          bool      `json:"sirenOn"`
	SirenEveryMinute bool      `json:"sirenEveryMinute"`
	ObsVisible       bool      `json:"obsVisible"`
	Penalties        []Penalty `json:"penalties"`
}

func (s *State) snapshot() Snapshot {
	penalties := make([]Penalty, len(s.Penalties))
	copy(penalties, s.Penalties)
	return Snapshot{
		HomeName:         s.HomeName,
		AwayName:         s.AwayName,
		ColorHome:        s.ColorHome,
		ColorAway:        s.ColorAway,
		ScoreHome:        s.ScoreHome,
		ScoreAway:        s.ScoreAway,
		ShotsHome:        s.ShotsHome,
		ShotsAway:        s.ShotsAway,
		Period:           s.PeriodLabel(),
		PeriodIndex:      s.PeriodIndex,
		PeriodDuration:   s.PeriodDuration,
		IntervalDuration: s.IntervalDuration,
		TimerRemaining:   s.TimerRemaining,
		TimerRunning:     s.TimerRunning,
		InInterval:       s.InInterval,
		TimeoutRemaining: s.TimeoutRemaining,
		SirenEveryMinute: s.SirenEveryMinute,
		ObsVisible:       s.ObsVisible,
		Penalties:        penalties,
	}
}

// ParseClock parses a "MM:SS" duration into seconds.
func ParseClock(v string) (int, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, validationf("invalid duration %q, expected MM:SS", v)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 0 {
		return 0, validationf("invalid duration %q, expected MM:SS", v)
	}
	s, err := strconv.Atoi(parts[1])
	if err != nil || s < 0 || s > 59 {
		return 0, validationf("invalid duration %q, expected MM:SS", v)
	}
	return m*60 + s, nil
}
