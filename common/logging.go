package common

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// NewLogger builds the process logger. An empty level means info; w defaults to stderr.
func NewLogger(level string, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// DiscardLogger returns a logger that drops everything. Used as the default
// for components constructed without one.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}
