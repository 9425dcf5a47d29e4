// timer.go
// Purpose: Frame-driven auxiliary timer used by the clock for the ready/set/go
// lead-in and the delay-finish grace window. It advances by dt only, never by
// the wall clock, so pausing the host loop cannot leak time into it.
package raceclock

type auxTimer struct {
	elapsed float64
}

func (t *auxTimer) start() {
	t.elapsed = 0
}

func (t *auxTimer) advance(dt float64) {
	t.elapsed += dt
}

func (t *auxTimer) timedOut(limit float64) bool {
	return t.elapsed >= limit
}
