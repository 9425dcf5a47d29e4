package raceclock

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/DarkStar1997/stk-code/common"
)

// Durations are the lead-in and grace lengths, in seconds.
type Durations struct {
	Ready       float64
	Set         float64
	Go          float64 // how long "go" is displayed before plain race phase
	DelayFinish float64 // grace window for stragglers
}

// DurationsFromConfig converts the configured durations into seconds.
func DurationsFromConfig(c common.ClockConfig) Durations {
	return Durations{
		Ready:       common.Seconds(c.Ready),
		Set:         common.Seconds(c.Set),
		Go:          common.Seconds(c.Go),
		DelayFinish: common.Seconds(c.DelayFinish),
	}
}

// DefaultDurations returns the classic one second per lead-in step and a
// three second delay-finish window.
func DefaultDurations() Durations {
	return DurationsFromConfig(common.DefaultConfig().Clock)
}

// Clock manages the race clock (countdown, chrono) together with the
// ready/set/go lead-in at the beginning and the delay at the end of a race.
//
// A Clock is owned by a single goroutine. It is not safe for concurrent use.
type Clock struct {
	phase Phase
	// paused holds the phase saved by Pause. Single slot, not a stack.
	paused *Phase

	mode Mode
	// time is elapsed (chrono) or remaining (countdown) race time in seconds.
	time float64
	// aux counts non-race time: the lead-in and the delay-finish window.
	aux auxTimer

	countdownFired bool

	durations Durations
	listener  Listener
	prestart  SoundCue
	start     SoundCue
	log       *log.Logger
}

// Option configures a Clock at construction.
type Option func(*Clock)

// WithSounds sets the prestart ("ready"/"set") and start ("go") cues.
func WithSounds(prestart, start SoundCue) Option {
	return func(c *Clock) {
		c.prestart = prestart
		c.start = start
	}
}

// WithListener registers l at construction.
func WithListener(l Listener) Option {
	return func(c *Clock) { c.listener = l }
}

// WithLogger makes the clock log its phase changes at debug level.
func WithLogger(l *log.Logger) Option {
	return func(c *Clock) {
		if l != nil {
			c.log = l
		}
	}
}

func New(d Durations, opts ...Option) *Clock {
	c := &Clock{
		durations: d,
		log:       common.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset returns the clock to a fresh race. The listener, sounds and
// durations are kept.
func (c *Clock) Reset() {
	c.phase = PhaseSetup
	c.paused = nil
	c.mode = ModeNone
	c.time = 0
	c.aux.start()
	c.countdownFired = false
}

// SetMode selects the race timer direction and its initial value. It does
// not change the phase. A countdown starting at zero fires
// CountdownReachedZero on the first race-phase tick.
func (c *Clock) SetMode(mode Mode, initialTime float64) {
	c.mode = mode
	c.countdownFired = false
	c.assignTime(initialTime)
	c.log.Debug("clock: mode set", "mode", mode, "time", c.time)
}

// StartCountdown moves the clock out of setup once loading is done and
// starts the ready/set/go lead-in. It reports whether the clock was in setup.
func (c *Clock) StartCountdown() bool {
	if c.paused != nil || c.phase != PhaseSetup {
		return false
	}
	c.enter(PhaseReady)
	c.play(c.prestart)
	return true
}

// UpdateClock advances the clock by dt seconds. Call it once per frame.
// Negative or NaN dt counts as a zero tick.
func (c *Clock) UpdateClock(dt float64) {
	if c.paused != nil {
		return
	}
	if !(dt > 0) {
		dt = 0
	}

	switch c.phase {
	case PhaseReady:
		c.aux.advance(dt)
		if c.aux.timedOut(c.durations.Ready) {
			c.enter(PhaseSet)
			c.play(c.prestart)
		}

	case PhaseSet:
		c.aux.advance(dt)
		if c.aux.timedOut(c.durations.Set) {
			c.enter(PhaseGo)
			c.play(c.start)
			c.notify(Listener.OnGo)
		}

	case PhaseGo:
		c.raceTick(dt)
		c.aux.advance(dt)
		if c.aux.timedOut(c.durations.Go) {
			c.enter(PhaseRace)
		}

	case PhaseRace:
		c.raceTick(dt)

	case PhaseDelayFinish:
		c.raceTick(dt)
		c.aux.advance(dt)
		if c.aux.timedOut(c.durations.DelayFinish) {
			c.enter(PhaseFinish)
			c.notify(Listener.OnTerminate)
		}

	default:
		// setup, finish and limbo: nothing to calculate
	}
}

func (c *Clock) raceTick(dt float64) {
	switch c.mode {
	case ModeChrono:
		c.time += dt
	case ModeCountdown:
		c.time -= dt
		if c.time <= 0 {
			c.time = 0
			if !c.countdownFired {
				c.countdownFired = true
				c.log.Debug("clock: countdown reached zero")
				c.notify(Listener.CountdownReachedZero)
			}
		}
	}
}

// Pause freezes the clock. Phase reads as limbo until Unpause. Pausing an
// already paused clock is a no-op.
func (c *Clock) Pause() {
	if c.paused != nil {
		return
	}
	saved := c.phase
	c.paused = &saved
	c.phase = pausedPhase
	c.log.Debug("clock: paused", "phase", saved)
}

// Unpause restores the phase saved by Pause. No-op when not paused.
func (c *Clock) Unpause() {
	if c.paused == nil {
		return
	}
	c.phase = *c.paused
	c.paused = nil
	c.log.Debug("clock: unpaused", "phase", c.phase)
}

// RaceOver ends the race. With delay the clock enters the delay-finish
// grace window, otherwise it finishes and notifies OnTerminate at once.
// Once past race phase, or while paused, it does nothing.
func (c *Clock) RaceOver(delay bool) {
	if c.paused != nil || c.phase > PhaseRace {
		return
	}
	if delay {
		c.enter(PhaseDelayFinish)
		return
	}
	c.enter(PhaseFinish)
	c.notify(Listener.OnTerminate)
}

// EnterLimbo moves a finished race into limbo once results were shown.
// It reports whether the clock was in finish phase.
func (c *Clock) EnterLimbo() bool {
	if c.paused != nil || c.phase != PhaseFinish {
		return false
	}
	c.enter(PhaseLimbo)
	return true
}

// SetTime overrides the race timer, e.g. for network correction. It never
// changes phase or mode and never fires the countdown event itself.
func (c *Clock) SetTime(t float64) {
	c.assignTime(t)
}

// RegisterEventListener replaces the listener. The clock does not own it;
// nil unregisters.
func (c *Clock) RegisterEventListener(l Listener) {
	c.listener = l
}

func (c *Clock) Phase() Phase            { return c.phase }
func (c *Clock) Mode() Mode              { return c.mode }
func (c *Clock) Time() float64           { return c.time }
func (c *Clock) AuxiliaryTimer() float64 { return c.aux.elapsed }
func (c *Clock) Durations() Durations    { return c.durations }
func (c *Clock) IsPaused() bool          { return c.paused != nil }
func (c *Clock) IsStartPhase() bool      { return c.phase.IsStart() }
func (c *Clock) IsRacePhase() bool       { return c.phase.IsRace() }

// PausedPhase returns the phase saved by Pause.
func (c *Clock) PausedPhase() (Phase, bool) {
	if c.paused == nil {
		return c.phase, false
	}
	return *c.paused, true
}

func (c *Clock) assignTime(t float64) {
	if math.IsNaN(t) {
		t = 0
	}
	if c.mode == ModeCountdown && t < 0 {
		t = 0
	}
	c.time = t
}

func (c *Clock) enter(p Phase) {
	c.log.Debug("clock: phase change",
		"from", c.phase,
		"to", p,
		"time", c.time,
		"aux", c.aux.elapsed,
	)
	c.phase = p
	c.aux.start()
}

func (c *Clock) play(s SoundCue) {
	if s != nil {
		s.Play()
	}
}

func (c *Clock) notify(event func(Listener)) {
	if c.listener != nil {
		event(c.listener)
	}
}
