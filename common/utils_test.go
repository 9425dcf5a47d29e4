package common

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationSecondsRoundTrip(t *testing.T) {
	assert.Equal(t, 1.5, Seconds(1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, Duration(1.5))
	assert.Zero(t, Duration(-2))
	assert.Zero(t, Duration(math.NaN()))
}

func TestFormatRaceTime(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0, "0:00.000"},
		{9.5, "0:09.500"},
		{61.25, "1:01.250"},
		{600, "10:00.000"},
		{-3, "0:00.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRaceTime(tt.secs), "%v", tt.secs)
	}
}

func TestTerminalCues(t *testing.T) {
	var bellOut, logOut bytes.Buffer
	logger, err := NewLogger("info", &logOut)
	require.NoError(t, err)

	prestart, start := TerminalCues(logger, &bellOut)
	prestart.Play()
	prestart.Play()
	start.Play()

	assert.Equal(t, int64(2), prestart.Played())
	assert.Equal(t, int64(1), start.Played())
	assert.Equal(t, "\a\a\a", bellOut.String())
	assert.Contains(t, logOut.String(), "sound=start")

	quiet := &TerminalCue{Name: "quiet"}
	quiet.Play()
	assert.Equal(t, int64(1), quiet.Played())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = NewLogger("loud", nil)
	assert.Error(t, err)
}

func TestSameState(t *testing.T) {
	a := ClockSnapshot{RaceID: "a", Seq: 1, Phase: 4, Mode: 1, Time: 2}
	b := a
	b.RaceID, b.Seq = "b", 9
	assert.True(t, a.SameState(b))

	b.Time = 2.5
	assert.False(t, a.SameState(b))
}
