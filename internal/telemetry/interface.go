package telemetry

import (
	"context"
	"time"
)

// Collector records the outcome of every poll
type Collector interface {
	Record(ctx context.Context, record *PollRecord) error
	Close() error
}

// Repository defines the interface for poll record storage
type Repository interface {
	Store(ctx context.Context, record *PollRecord) error
	Close() error
}

// PollRecord is one loop iteration as seen by the journal
type PollRecord struct {
	Timestamp time.Time
	Location  string
	ReadOK    bool
	// FaultCode is the sensor error code when ReadOK is false
	FaultCode          string
	TemperatureCelsius float64
	HumidityPercent    float64
	WriteOK            bool
}
