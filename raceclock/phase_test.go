package raceclock

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseOrdinals(t *testing.T) {
	// Ordinals are carried over the wire and drive IsStart/IsRace.
	tests := []struct {
		phase   Phase
		ordinal uint8
		name    string
		start   bool
		race    bool
	}{
		{PhaseSetup, 0, "setup", true, false},
		{PhaseReady, 1, "ready", true, false},
		{PhaseSet, 2, "set", true, false},
		{PhaseGo, 3, "go", false, true},
		{PhaseRace, 4, "race", false, true},
		{PhaseDelayFinish, 5, "delay-finish", false, true},
		{PhaseFinish, 6, "finish", false, true},
		{PhaseLimbo, 7, "limbo", false, false},
	}
	require.Len(t, tests, numPhases)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ordinal, uint8(tt.phase))
			assert.Equal(t, tt.name, tt.phase.String())
			assert.Equal(t, tt.start, tt.phase.IsStart())
			assert.Equal(t, tt.race, tt.phase.IsRace())
		})
	}
}

func TestPhaseStartAndRaceNeverOverlap(t *testing.T) {
	for p := Phase(0); p < numPhases; p++ {
		assert.False(t, p.IsStart() && p.IsRace(), "phase %s", p)
	}
	assert.Equal(t, "undefined", Phase(numPhases).String())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"none", ModeNone, false},
		{"", ModeNone, false},
		{"Chrono", ModeChrono, false},
		{" COUNTDOWN ", ModeCountdown, false},
		{"stopwatch", ModeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeText(t *testing.T) {
	text, err := ModeCountdown.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "countdown", string(text))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("chrono")))
	assert.Equal(t, ModeChrono, m)

	_, err = Mode(9).MarshalText()
	assert.True(t, errors.Is(err, ErrUnknownMode))
	assert.Error(t, m.UnmarshalText([]byte("sundial")))
	assert.Equal(t, ModeChrono, m)
}
