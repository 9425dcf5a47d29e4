// common/config.go
package common

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RACECLOCK_SESSION_MODE.
const EnvPrefix = "RACECLOCK"

// ErrInvalidConfig marks every validation failure returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
	Clock    ClockConfig   `mapstructure:"clock" yaml:"clock"`
	Session  SessionConfig `mapstructure:"session" yaml:"session"`
	Feed     FeedConfig    `mapstructure:"feed" yaml:"feed"`
}

// ClockConfig holds the lead-in and grace durations of the race clock.
type ClockConfig struct {
	Ready       time.Duration `mapstructure:"ready" yaml:"ready"`
	Set         time.Duration `mapstructure:"set" yaml:"set"`
	Go          time.Duration `mapstructure:"go" yaml:"go"`
	DelayFinish time.Duration `mapstructure:"delay_finish" yaml:"delay_finish"`
}

// SessionConfig drives the host loop around the clock.
type SessionConfig struct {
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval"`
	// Mode is one of none, chrono, countdown.
	Mode        string        `mapstructure:"mode" yaml:"mode"`
	InitialTime time.Duration `mapstructure:"initial_time" yaml:"initial_time"`
	// RaceLength simulates the finish line: 0 disables it.
	RaceLength      time.Duration `mapstructure:"race_length" yaml:"race_length"`
	FinishDelay     bool          `mapstructure:"finish_delay" yaml:"finish_delay"`
	LoadTime        time.Duration `mapstructure:"load_time" yaml:"load_time"`
	ResultsDuration time.Duration `mapstructure:"results" yaml:"results"`
	HitchThreshold  time.Duration `mapstructure:"hitch_threshold" yaml:"hitch_threshold"`
}

// FeedConfig configures the QUIC snapshot feed and its followers.
type FeedConfig struct {
	ListenAddr        string        `mapstructure:"listen" yaml:"listen"`
	FrameSize         int           `mapstructure:"frame_size" yaml:"frame_size"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	KeepAlive         time.Duration `mapstructure:"keep_alive" yaml:"keep_alive"`
	MaxIdle           time.Duration `mapstructure:"max_idle" yaml:"max_idle"`
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" yaml:"broadcast_interval"`
	DriftTolerance    time.Duration `mapstructure:"drift_tolerance" yaml:"drift_tolerance"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"mode":            "session.mode",
	"initial-time":    "session.initial_time",
	"race-length":     "session.race_length",
	"finish-delay":    "session.finish_delay",
	"frame-interval":  "session.frame_interval",
	"listen":          "feed.listen",
	"drift-tolerance": "feed.drift_tolerance",
}

// DefaultConfig returns the built-in configuration. Lead-in and grace
// durations match the classic ready/set/go timings.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Clock: ClockConfig{
			Ready:       time.Second,
			Set:         time.Second,
			Go:          time.Second,
			DelayFinish: 3 * time.Second,
		},
		Session: SessionConfig{
			FrameInterval:   time.Second / 60,
			Mode:            "chrono",
			LoadTime:        500 * time.Millisecond,
			ResultsDuration: 2 * time.Second,
			HitchThreshold:  250 * time.Millisecond,
		},
		Feed: FeedConfig{
			FrameSize:         256,
			WriteTimeout:      200 * time.Millisecond,
			HandshakeTimeout:  2 * time.Second,
			KeepAlive:         2 * time.Second,
			MaxIdle:           6 * time.Second,
			BroadcastInterval: 300 * time.Millisecond,
			DriftTolerance:    50 * time.Millisecond,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("clock.ready", d.Clock.Ready)
	v.SetDefault("clock.set", d.Clock.Set)
	v.SetDefault("clock.go", d.Clock.Go)
	v.SetDefault("clock.delay_finish", d.Clock.DelayFinish)

	v.SetDefault("session.frame_interval", d.Session.FrameInterval)
	v.SetDefault("session.mode", d.Session.Mode)
	v.SetDefault("session.initial_time", d.Session.InitialTime)
	v.SetDefault("session.race_length", d.Session.RaceLength)
	v.SetDefault("session.finish_delay", d.Session.FinishDelay)
	v.SetDefault("session.load_time", d.Session.LoadTime)
	v.SetDefault("session.results", d.Session.ResultsDuration)
	v.SetDefault("session.hitch_threshold", d.Session.HitchThreshold)

	v.SetDefault("feed.listen", d.Feed.ListenAddr)
	v.SetDefault("feed.frame_size", d.Feed.FrameSize)
	v.SetDefault("feed.write_timeout", d.Feed.WriteTimeout)
	v.SetDefault("feed.handshake_timeout", d.Feed.HandshakeTimeout)
	v.SetDefault("feed.keep_alive", d.Feed.KeepAlive)
	v.SetDefault("feed.max_idle", d.Feed.MaxIdle)
	v.SetDefault("feed.broadcast_interval", d.Feed.BroadcastInterval)
	v.SetDefault("feed.drift_tolerance", d.Feed.DriftTolerance)
}

// LoadConfig layers defaults, the optional config file at path, RACECLOCK_*
// environment variables and any flags from fs that were set explicitly.
func LoadConfig(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, errors.Wrapf(err, "bind flag --%s", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the clock and host loop cannot run with.
func (c Config) Validate() error {
	positive := []struct {
		key string
		val time.Duration
	}{
		{"clock.ready", c.Clock.Ready},
		{"clock.set", c.Clock.Set},
		{"clock.go", c.Clock.Go},
		{"session.frame_interval", c.Session.FrameInterval},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s must be positive, got %s", p.key, p.val)
		}
	}

	nonNegative := []struct {
		key string
		val time.Duration
	}{
		{"clock.delay_finish", c.Clock.DelayFinish},
		{"session.initial_time", c.Session.InitialTime},
		{"session.race_length", c.Session.RaceLength},
		{"session.load_time", c.Session.LoadTime},
		{"session.results", c.Session.ResultsDuration},
		{"feed.drift_tolerance", c.Feed.DriftTolerance},
	}
	for _, p := range nonNegative {
		if p.val < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s must not be negative, got %s", p.key, p.val)
		}
	}

	if c.Feed.FrameSize < MinFrameSize {
		return errors.Wrapf(ErrInvalidConfig, "feed.frame_size must be at least %d, got %d", MinFrameSize, c.Feed.FrameSize)
	}
	if c.Feed.FrameSize > MaxFrameSize {
		return errors.Wrapf(ErrInvalidConfig, "feed.frame_size must be at most %d, got %d", MaxFrameSize, c.Feed.FrameSize)
	}
	return nil
}

// Frame size limits for the snapshot feed. The header uses a uint16 length.
const (
	MinFrameSize = 64
	MaxFrameSize = 1 << 15
)
