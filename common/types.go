package common

// ClockSnapshot is the polled view of a race clock, as consumed by displays
// and carried over the snapshot feed. Phase and Mode hold the raceclock
// ordinals; PhaseName/ModeName are kept for readers that do not link
// raceclock.
type ClockSnapshot struct {
	RaceID    string  `cbor:"race" json:"race" yaml:"race"`
	Seq       uint64  `cbor:"seq" json:"seq" yaml:"seq"`
	Phase     uint8   `cbor:"phase" json:"phase" yaml:"phase"`
	PhaseName string  `cbor:"phase_name" json:"phaseName" yaml:"phase_name"`
	Mode      uint8   `cbor:"mode" json:"mode" yaml:"mode"`
	ModeName  string  `cbor:"mode_name" json:"modeName" yaml:"mode_name"`
	Time      float64 `cbor:"time" json:"time" yaml:"time"`
	Aux       float64 `cbor:"aux" json:"aux" yaml:"aux"`
	Paused    bool    `cbor:"paused,omitempty" json:"paused,omitempty" yaml:"paused,omitempty"`
	StartPh   bool    `cbor:"start,omitempty" json:"start,omitempty" yaml:"start,omitempty"`
	RacePh    bool    `cbor:"racing,omitempty" json:"racing,omitempty" yaml:"racing,omitempty"`
}

// SameState reports whether two snapshots describe the same clock state,
// ignoring the race id and sequence number.
func (s ClockSnapshot) SameState(o ClockSnapshot) bool {
	return s.Phase == o.Phase &&
		s.Mode == o.Mode &&
		s.Time == o.Time &&
		s.Aux == o.Aux &&
		s.Paused == o.Paused
}
