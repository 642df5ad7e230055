// Package mirror fans complete readings out to secondary, best-effort
// destinations. Mirror failures are logged and never reach the operator
// report.
package mirror

import (
	"context"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/logger"
)

// Sample is the payload handed to every mirror.
type Sample struct {
	Timestamp             time.Time `json:"timestamp"`
	Location              string    `json:"location"`
	SensorType            string    `json:"sensor_type"`
	TemperatureCelsius    float64   `json:"temperature_celsius"`
	TemperatureFahrenheit float64   `json:"temperature_fahrenheit"`
	HumidityPercent       float64   `json:"humidity_percent"`
}

// Publisher is one mirror destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s Sample) error
	Close() error
}

// Set publishes to every mirror in order.
type Set struct {
	publishers []Publisher
	logger     logger.Logger
}

func NewSet(log logger.Logger, publishers ...Publisher) *Set {
	return &Set{publishers: publishers, logger: log}
}

// Len returns the number of configured mirrors.
func (s *Set) Len() int {
	return len(s.publishers)
}

// Publish sends s to every mirror and returns how many accepted it.
func (s *Set) Publish(ctx context.Context, sample Sample) int {
	ok := 0
	for _, p := range s.publishers {
		if err := p.Publish(ctx, sample); err != nil {
			s.logger.Warn().Err(err).Str("mirror", p.Name()).Msg("Mirror publish failed")
			continue
		}
		ok++
	}

	return ok
}

// Publishers returns the mirrors in publish order.
func (s *Set) Publishers() []Publisher {
	return s.publishers
}
