package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sink receives the result of every accepted command and every tick that
// changed state. Implementations must not block: the engine calls them
// while holding its write lock so that subscribers observe snapshots in
// commit order.
type Sink interface {
	StateChanged(Snapshot)
	SirenPulse(at time.Time)
}

// Engine is the single writer of the canonical match state. Commands and
// ticks are serialized through its mutex; each produces at most one state
// broadcast.
type Engine struct {
	mu         sync.Mutex
	state      State
	penaltySeq int64
	sink       Sink
	clock      clockwork.Clock
}

func NewEngine(sink Sink, clock clockwork.Clock) *Engine {
	return &Engine{
		state: DefaultState(),
		sink:  sink,
		clock: clock,
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.snapshot()
}

// SetupParams configures a new match. Durations are "MM:SS" strings;
// optional fields keep their defaults when empty.
type SetupParams struct {
	HomeName         string
	AwayName         string
	PeriodDuration   string
	IntervalDuration string
	ColorHome        string
	ColorAway        string
	SirenEveryMinute *bool
}

// Setup replaces the entire match state: score, shots, periods and
// penalties all reset, periodIndex returns to 1.
func (e *Engine) Setup(p SetupParams) (Snapshot, error) {
	periodSecs, err := ParseClock(p.PeriodDuration)
	if err != nil {
		return Snapshot{}, err
	}
	intervalSecs := defaultIntervalSecond
	if p.IntervalDuration != "" {
		if intervalSecs, err = ParseClock(p.IntervalDuration); err != nil {
			return Snapshot{}, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := DefaultState()
	s.HomeName = p.HomeName
	s.AwayName = p.AwayName
	s.PeriodDuration = periodSecs
	s.IntervalDuration = intervalSecs
	s.TimerRemaining = periodSecs
	if p.ColorHome != "" {
		s.ColorHome = p.ColorHome
	}
	if p.ColorAway != "" {
		s.ColorAway = p.ColorAway
	}
	if p.SirenEveryMinute != nil {
		s.SirenEveryMinute = *p.SirenEveryMinute
	}
	e.state = s

	log.Info().
		Str("home", s.HomeName).
		Str("away", s.AwayName).
		Int("period_duration", s.PeriodDuration).
		Int("interval_duration", s.IntervalDuration).
		Msg("match set up")

	return e.commit(), nil
}

// ConfigPatch updates display configuration without touching score, period
// or penalties. Nil fields are left unchanged.
type ConfigPatch struct {
	HomeName         *string
	AwayName         *string
	ColorHome        *string
	ColorAway        *string
	PeriodDuration   *string
	IntervalDuration *string
	SirenEveryMinute *bool
}

func (e *Engine) ApplyConfig(p ConfigPatch) (Snapshot, error) {
	var periodSecs, intervalSecs int
	var err error
	if p.PeriodDuration != nil {
		if periodSecs, err = ParseClock(*p.PeriodDuration); err != nil {
			return Snapshot{}, err
		}
	}
	if p.IntervalDuration != nil {
		if intervalSecs, err = ParseClock(*p.IntervalDuration); err != nil {
			return Snapshot{}, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p.HomeName != nil {
		e.state.HomeName = *p.HomeName
	}
	if p.AwayName != nil {
		e.state.AwayName = *p.AwayName
	}
	if p.ColorHome != nil {
		e.state.ColorHome = *p.ColorHome
	}
	if p.ColorAway != nil {
		e.state.ColorAway = *p.ColorAway
	}
	if p.PeriodDuration != nil {
		e.state.PeriodDuration = periodSecs
	}
	if p.IntervalDuration != nil {
		e.state.IntervalDuration = intervalSecs
	}
	if p.SirenEveryMinute != nil {
		e.state.SirenEveryMinute = *p.SirenEveryMinute
	}
	return e.commit(), nil
}

// AdjustScore applies a ±1 score delta, floored at zero.
func (e *Engine) AdjustScore(team string, delta int) (Snapshot, error) {
	t, err := ParseTeam(team)
	if err != nil {
		return Snapshot{}, err
	}
	if delta != 1 && delta != -1 {
		return Snapshot{}, validationf("invalid score delta %d", delta)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t == TeamHome {
		e.state.ScoreHome = max(0, e.state.ScoreHome+delta)
	} else {
		e.state.ScoreAway = max(0, e.state.ScoreAway+delta)
	}
	return e.commit(), nil
}

// AdjustShots applies a ±1 shot-count delta, floored at zero.
func (e *Engine) AdjustShots(team string, delta int) (Snapshot, error) {
	t, err := ParseTeam(team)
	if err != nil {
		return Snapshot{}, err
	}
	if delta != 1 && delta != -1 {
		return Snapshot{}, validationf("invalid shots delta %d", delta)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t == TeamHome {
		e.state.ShotsHome = max(0, e.state.ShotsHome+delta)
	} else {
		e.state.ShotsAway = max(0, e.state.ShotsAway+delta)
	}
	return e.commit(), nil
}

func (e *Engine) StartTimer() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TimerRunning = true
	return e.commit()
}

func (e *Engine) StopTimer() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TimerRunning = false
	return e.commit()
}

// ResetTimer stops the clock and reloads the configured period duration.
func (e *Engine) ResetTimer() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TimerRunning = false
	e.state.InInterval = false
	e.state.periodEnded = false
	e.state.TimerRemaining = e.state.PeriodDuration
	return e.commit()
}

// SetTimer writes the main clock directly; running is optional.
func (e *Engine) SetTimer(seconds int, running *bool) (Snapshot, error) {
	if seconds < 0 {
		return Snapshot{}, validationf("negative seconds %d", seconds)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TimerRemaining = seconds
	if running != nil {
		e.state.TimerRunning = *running
		if *running {
			// Resuming play revokes the pending interval.
			e.state.periodEnded = false
		}
	}
	return e.commit(), nil
}

// NextPeriod advances to the next period with a fresh, stopped clock.
// periodIndex is strictly monotonic; everything past 3 renders as "OT".
func (e *Engine) NextPeriod() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PeriodIndex++
	e.state.TimerRunning = false
	e.state.InInterval = false
	e.state.periodEnded = false
	e.state.TimerRemaining = e.state.PeriodDuration
	log.Info().Int("period_index", e.state.PeriodIndex).Msg("period advanced")
	return e.commit()
}

// StartInterval enters the inter-period break with the clock running. It is
// only valid once the ticker has latched the end of a period.
func (e *Engine) StartInterval() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.periodEnded {
		return Snapshot{}, ErrPeriodNotEnded
	}
	e.state.periodEnded = false
	e.state.InInterval = true
	e.state.TimerRemaining = e.state.IntervalDuration
	e.state.TimerRunning = true
	return e.commit(), nil
}

// StartTimeout arms the 30-second timeout clock. A timeout already in
// progress is left alone.
func (e *Engine) StartTimeout() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.TimeoutRemaining > 0 {
		return e.state.snapshot()
	}
	e.state.TimeoutRemaining = timeoutSeconds
	return e.commit()
}

func (e *Engine) StopTimeout() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TimeoutRemaining = 0
	return e.commit()
}

// Siren fires a transient siren pulse. Nothing is persisted, so clients
// that join later never replay a stale siren; off is a no-op.
func (e *Engine) Siren(on bool) {
	if !on {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink.SirenPulse(e.clock.Now())
}

// SetOBSVisible toggles the public overlay graphic.
func (e *Engine) SetOBSVisible(visible bool) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ObsVisible = visible
	return e.commit()
}

// AddPenalty appends a penalty of 2, 4 or 5 minutes with a fresh id.
func (e *Engine) AddPenalty(team, playerNumber string, minutes int) (Penalty, error) {
	t, err := ParseTeam(team)
	if err != nil {
		return Penalty{}, err
	}
	switch minutes {
	case 2, 4, 5:
	default:
		return Penalty{}, validationf("unsupported penalty minutes %d", minutes)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.penaltySeq++
	p := Penalty{
		ID:           e.penaltySeq,
		Team:         t,
		PlayerNumber: playerNumber,
		Remaining:    minutes * 60,
	}
	e.state.Penalties = append(e.state.Penalties, p)
	e.commit()
	return p, nil
}

// RemovePenalty deletes a penalty by id. An unknown id is a no-op, not an
// error, to keep client retry logic simple.
func (e *Engine) RemovePenalty(id int64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.state.Penalties[:0]
	removed := false
	for _, p := range e.state.Penalties {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	e.state.Penalties = kept
	if !removed {
		return e.state.snapshot()
	}
	return e.commit()
}

// Tick advances all running countdowns by one second. It is a total
// function over the current state and never fails.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	pulse := false
	s := &e.state

	if s.TimerRunning && s.TimerRemaining > 0 {
		s.TimerRemaining--
		changed = true
		if s.TimerRemaining == 0 {
			s.TimerRunning = false
			if !s.InInterval {
				// End of period: latch ready-for-interval and sound the horn.
				s.periodEnded = true
				pulse = true
				log.Info().Int("period_index", s.PeriodIndex).Msg("period ended")
			} else {
				// End of interval: the operator advances via period.next.
				log.Info().Msg("interval ended")
			}
		} else if s.SirenEveryMinute && !s.InInterval && s.TimerRemaining%60 == 0 {
			pulse = true
		}
	}

	if s.TimeoutRemaining > 0 {
		s.TimeoutRemaining--
		changed = true
	}

	if len(s.Penalties) > 0 {
		kept := s.Penalties[:0]
		for _, p := range s.Penalties {
			p.Remaining--
			if p.Remaining > 0 {
				kept = append(kept, p)
			}
		}
		s.Penalties = kept
		changed = true
	}

	if changed {
		e.sink.StateChanged(s.snapshot())
	}
	if pulse {
		e.sink.SirenPulse(e.clock.Now())
	}
}

// commit snapshots the state and notifies the sink. Callers hold e.mu, so
// broadcast order matches commit order.
func (e *Engine) commit() Snapshot {
	snap := e.state.snapshot()
	e.sink.StateChanged(snap)
	return snap
}
