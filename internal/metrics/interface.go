package metrics

import (
	"context"
	"time"
)

// Writer is the fail-soft sink the poller writes complete readings to.
type Writer interface {
	Write(ctx context.Context, temperatureCelsius, humidityPercent float64, location string) error
	Connected() bool
	Close() error
}

// Repository stores measurements in the time-series backend.
type Repository interface {
	Store(ctx context.Context, m *Measurement) error
	Close() error
}

// Measurement is one persisted point.
type Measurement struct {
	Timestamp             time.Time
	Location              string
	SensorType            string
	TemperatureCelsius    float64
	TemperatureFahrenheit float64
	HumidityPercent       float64
}
