package raceclock

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_events_test.go -package=$GOPACKAGE

// Listener receives edge-triggered race lifecycle events from a Clock.
//
// Callbacks run synchronously on the goroutine driving the clock, from inside
// UpdateClock or RaceOver. They must not call back into the Clock.
type Listener interface {
	// CountdownReachedZero is called once when a countdown clock hits zero.
	CountdownReachedZero()
	// OnGo is called when the race actually starts.
	OnGo()
	// OnTerminate is called when the race is over and should be terminated.
	OnTerminate()
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	CountdownReachedZeroFunc func()
	OnGoFunc                 func()
	OnTerminateFunc          func()
}

func (l ListenerFuncs) CountdownReachedZero() {
	if l.CountdownReachedZeroFunc != nil {
		l.CountdownReachedZeroFunc()
	}
}

func (l ListenerFuncs) OnGo() {
	if l.OnGoFunc != nil {
		l.OnGoFunc()
	}
}

func (l ListenerFuncs) OnTerminate() {
	if l.OnTerminateFunc != nil {
		l.OnTerminateFunc()
	}
}

// SoundCue is a fire-and-forget sound trigger. The clock never waits for
// or tracks playback.
type SoundCue interface {
	Play()
}

// SoundFunc adapts a function to SoundCue.
type SoundFunc func()

func (f SoundFunc) Play() {
	if f != nil {
		f()
	}
}
