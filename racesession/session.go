// session.go
// Purpose: Host side of the race clock. Drives one Clock frame by frame from a
// time source, applies control commands between frames, reacts to the clock's
// events once UpdateClock has returned and publishes snapshots for displays.
package racesession

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/DarkStar1997/stk-code/common"
	"github.com/DarkStar1997/stk-code/raceclock"
	"github.com/DarkStar1997/stk-code/racenet"
)

const commandQueueSize = 16

var ErrUnknownCommand = errors.New("unknown command")

type Session struct {
	cfg         common.SessionConfig
	mode        raceclock.Mode
	initialTime float64

	clock  *raceclock.Clock
	events eventRecorder
	now    clockwork.Clock
	log    *log.Logger

	prestart raceclock.SoundCue
	start    raceclock.SoundCue
	follower *racenet.Follower

	raceID   string
	seq      uint64
	last     common.ClockSnapshot
	sentOnce bool

	commands chan Command

	// Host waits count unpaused frame time only, like the clock itself.
	loadWait    float64
	resultsWait float64
	finished    bool
	raceElapsed float64
}

// Option configures a Session at construction.
type Option func(*Session)

// WithTimeSource replaces the real clock, e.g. with a clockwork.FakeClock.
func WithTimeSource(c clockwork.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.now = c
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSounds sets the prestart and start cues handed to the clock.
func WithSounds(prestart, start raceclock.SoundCue) Option {
	return func(s *Session) {
		s.prestart = prestart
		s.start = start
	}
}

// WithRaceID fixes the id of the first race. Later races get fresh ids.
func WithRaceID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.raceID = id
		}
	}
}

// WithListener forwards the clock's events to l after the session recorded
// them. l must not call back into the session.
func WithListener(l raceclock.Listener) Option {
	return func(s *Session) { s.events.next = l }
}

// WithFollower puts the session in following mode: the lead-in, the finish
// and limbo come from the remote clock through CmdSync instead of being
// driven locally.
func WithFollower(f *racenet.Follower) Option {
	return func(s *Session) { s.follower = f }
}

func New(cfg common.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := raceclock.ParseMode(cfg.Session.Mode)
	if err != nil {
		return nil, errors.Wrapf(err, "session mode %q", cfg.Session.Mode)
	}

	s := &Session{
		cfg:         cfg.Session,
		mode:        mode,
		initialTime: common.Seconds(cfg.Session.InitialTime),
		now:         clockwork.NewRealClock(),
		log:         common.DiscardLogger(),
		commands:    make(chan Command, commandQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.raceID == "" {
		s.raceID = uuid.NewString()
	}

	clockOpts := []raceclock.Option{
		raceclock.WithListener(&s.events),
		raceclock.WithLogger(s.log),
	}
	if s.prestart != nil || s.start != nil {
		clockOpts = append(clockOpts, raceclock.WithSounds(s.prestart, s.start))
	}
	s.clock = raceclock.New(raceclock.DurationsFromConfig(cfg.Clock), clockOpts...)
	s.clock.SetMode(s.mode, s.initialTime)
	return s, nil
}

// Send queues cmd for the running session. It blocks while the queue is full.
func (s *Session) Send(ctx context.Context, cmd Command) error {
	if !cmd.Kind.valid() {
		return errors.Wrapf(ErrUnknownCommand, "%s", cmd.Kind)
	}
	select {
	case s.commands <- cmd:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "send %s", cmd.Kind)
	}
}

// Run drives the clock until the race reaches limbo or ctx is done. Snapshots
// are sent to out without blocking whenever the clock state changed; a slow
// reader misses intermediate frames, never the session. out may be nil.
//
// The session owns the clock: Run must not be called concurrently.
func (s *Session) Run(ctx context.Context, out chan<- common.ClockSnapshot) error {
	ticker := s.now.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	s.begin()
	last := s.now.Now()
	s.publish(out)

	s.log.Info("session: started",
		"race", s.raceID,
		"mode", s.clock.Mode(),
		"following", s.following(),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session: stopped", "race", s.raceID, "phase", s.clock.Phase())
			return nil

		case cmd := <-s.commands:
			s.apply(cmd)
			s.react()
			s.publish(out)

		case <-ticker.Chan():
			now := s.now.Now()
			elapsed := now.Sub(last)
			last = now
			if s.cfg.HitchThreshold > 0 && elapsed > s.cfg.HitchThreshold {
				s.log.Warn("session: frame hitch", "dt", elapsed, "threshold", s.cfg.HitchThreshold)
			}
			s.tick(common.Seconds(elapsed))
			s.publish(out)
		}

		if s.done() {
			s.log.Info("session: race complete",
				"race", s.raceID,
				"time", common.FormatRaceTime(s.clock.Time()),
			)
			return nil
		}
	}
}

func (s *Session) begin() {
	s.loadWait = 0
	s.react()
}

func (s *Session) tick(dt float64) {
	if dt > 0 {
		// A paused clock reads limbo, so none of these advance while paused.
		switch s.clock.Phase() {
		case raceclock.PhaseSetup:
			s.loadWait += dt
		case raceclock.PhaseGo, raceclock.PhaseRace:
			// Elapsed race time regardless of mode, for the simulated finish line.
			s.raceElapsed += dt
		case raceclock.PhaseFinish:
			if s.finished {
				s.resultsWait += dt
			}
		}
	}
	s.clock.UpdateClock(dt)
	s.react()
}

func (s *Session) apply(cmd Command) {
	s.log.Debug("session: command", "cmd", cmd.Kind, "phase", s.clock.Phase())

	switch cmd.Kind {
	case CmdStart:
		if !s.clock.StartCountdown() {
			s.log.Debug("session: start ignored", "phase", s.clock.Phase())
		}
	case CmdSetMode:
		s.mode = cmd.Mode
		s.initialTime = cmd.Time
		s.clock.SetMode(cmd.Mode, cmd.Time)
	case CmdSetTime:
		s.clock.SetTime(cmd.Time)
	case CmdPause:
		s.clock.Pause()
	case CmdUnpause:
		s.clock.Unpause()
	case CmdRaceOver:
		s.clock.RaceOver(cmd.Delay)
	case CmdLimbo:
		s.clock.EnterLimbo()
	case CmdReset:
		s.reset(uuid.NewString())
	case CmdSync:
		s.sync(cmd.Snapshot)
	}
}

// react handles what the clock reported during the last operation. It runs
// outside the clock's callbacks, so calling back into the clock is safe here.
func (s *Session) react() {
	ev := s.events.take()
	if ev.started {
		s.log.Info("session: go", "race", s.raceID)
	}

	if !s.following() {
		if ev.zero {
			s.log.Info("session: countdown reached zero", "race", s.raceID)
			s.clock.RaceOver(s.cfg.FinishDelay)
			ev.terminated = s.events.take().terminated || ev.terminated
		}

		p := s.clock.Phase()
		if s.cfg.RaceLength > 0 && (p == raceclock.PhaseGo || p == raceclock.PhaseRace) &&
			s.raceElapsed >= common.Seconds(s.cfg.RaceLength) {
			s.log.Info("session: finish line crossed", "elapsed", common.FormatRaceTime(s.raceElapsed))
			s.clock.RaceOver(s.cfg.FinishDelay)
			ev.terminated = s.events.take().terminated || ev.terminated
		}
	}

	if ev.terminated {
		s.finished = true
		s.resultsWait = 0
		s.log.Info("session: race terminated",
			"race", s.raceID,
			"time", common.FormatRaceTime(s.clock.Time()),
		)
	}

	if s.following() || s.clock.IsPaused() {
		return
	}

	switch s.clock.Phase() {
	case raceclock.PhaseSetup:
		if s.loadWait >= common.Seconds(s.cfg.LoadTime) {
			s.clock.StartCountdown()
		}
	case raceclock.PhaseFinish:
		if s.finished && s.resultsWait >= common.Seconds(s.cfg.ResultsDuration) {
			s.clock.EnterLimbo()
		}
	}
}

func (s *Session) reset(raceID string) {
	s.clock.Reset()
	s.clock.SetMode(s.mode, s.initialTime)
	s.events.take()

	s.raceID = raceID
	s.clearWaits()
	s.log.Info("session: new race", "race", raceID, "mode", s.mode)
}

func (s *Session) sync(remote common.ClockSnapshot) {
	if s.follower == nil {
		s.log.Warn("session: sync without follower, ignoring", "race", remote.RaceID)
		return
	}
	if !s.follower.Accept(remote) {
		return
	}
	if remote.RaceID != "" && remote.RaceID != s.raceID {
		s.raceID = remote.RaceID
		s.clearWaits()
	}
	if corr := s.follower.Apply(s.clock); corr.TimeSet {
		s.log.Debug("session: time corrected", "drift", corr.Drift)
	}
}

func (s *Session) clearWaits() {
	s.loadWait = 0
	s.resultsWait = 0
	s.finished = false
	s.raceElapsed = 0
}

// publish sends the clock state to out if it changed since the last send.
func (s *Session) publish(out chan<- common.ClockSnapshot) {
	snap := s.clock.Snapshot()
	snap.RaceID = s.raceID
	if s.sentOnce && snap.RaceID == s.last.RaceID && snap.SameState(s.last) {
		return
	}
	s.seq++
	snap.Seq = s.seq
	s.last = snap
	s.sentOnce = true

	if out == nil {
		return
	}
	select {
	case out <- snap:
	default:
	}
}

func (s *Session) done() bool {
	return !s.following() && !s.clock.IsPaused() && s.clock.Phase() == raceclock.PhaseLimbo
}

func (s *Session) following() bool {
	return s.follower != nil
}

// eventRecorder is the clock's listener. It only notes what happened.
type eventRecorder struct {
	zero       bool
	started    bool
	terminated bool

	next raceclock.Listener
}

func (r *eventRecorder) CountdownReachedZero() {
	r.zero = true
	if r.next != nil {
		r.next.CountdownReachedZero()
	}
}

func (r *eventRecorder) OnGo() {
	r.started = true
	if r.next != nil {
		r.next.OnGo()
	}
}

func (r *eventRecorder) OnTerminate() {
	r.terminated = true
	if r.next != nil {
		r.next.OnTerminate()
	}
}

type recorded struct {
	zero, started, terminated bool
}

func (r *eventRecorder) take() recorded {
	ev := recorded{zero: r.zero, started: r.started, terminated: r.terminated}
	r.zero, r.started, r.terminated = false, false, false
	return ev
}
