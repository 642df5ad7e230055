package poller

import (
	"codeberg.org/mutker/dhtlogger/internal/sensor"
)

// Source yields one reading per call. A non-nil error means the reading is
// absent and has already been logged by the source.
type Source interface {
	Read() (sensor.Reading, error)
	Close() error
}

// Closer is one named cleanup step run at shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// State is the loop lifecycle state.
type State int

const (
	Running State = iota
	ShuttingDown
)

func (s State) String() string {
	if s == ShuttingDown {
		return "shutting_down"
	}

	return "running"
}
