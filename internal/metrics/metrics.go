package metrics

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"codeberg.org/mutker/dhtlogger/internal/sensor"
)

// Sink writes measurements to InfluxDB. A nil repo means disconnected; the
// sink never reconnects.
type Sink struct {
	repo   Repository
	cfg    Config
	logger logger.Logger
	now    func() time.Time
}

// NewSink connects to InfluxDB. Connection failures are logged and produce a
// disconnected sink rather than an error.
func NewSink(ctx context.Context, cfg Config, log logger.Logger) *Sink {
	repo, err := NewRepository(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("url", cfg.URL).Msg("Failed to connect to InfluxDB")
		repo = nil
	}

	return NewSinkWithRepository(cfg, repo, log)
}

// NewSinkWithRepository builds a sink over an existing repository. A nil
// repo yields a disconnected sink.
func NewSinkWithRepository(cfg Config, repo Repository, log logger.Logger) *Sink {
	return &Sink{
		repo:   repo,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

func (s *Sink) Connected() bool {
	return s.repo != nil
}

// Write stores one measurement. It returns ErrNotConnected without any I/O
// when disconnected and ErrWriteFault when the store rejects the point.
func (s *Sink) Write(ctx context.Context, temperatureCelsius, humidityPercent float64, location string) (err error) {
	errFactory := errors.New()

	if s.repo == nil {
		s.logger.Debug().Msg("InfluxDB not connected, skipping data write")
		return errFactory.New(ErrNotConnected)
	}

	if location == "" {
		location = defaultLocation
	}

	m := &Measurement{
		Timestamp:             s.now(),
		Location:              location,
		SensorType:            s.cfg.sensorType(),
		TemperatureCelsius:    temperatureCelsius,
		TemperatureFahrenheit: sensor.CelsiusToFahrenheit(temperatureCelsius),
		HumidityPercent:       humidityPercent,
	}

	defer func() {
		if r := recover(); r != nil {
			err = errFactory.Wrap(ErrWriteFault, fmt.Errorf("panic: %v", r))
			s.logger.Error().Err(err).Msg("Failed to write to InfluxDB")
		}
	}()

	if err := s.repo.Store(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("bucket", s.cfg.Bucket).Msg("Failed to write to InfluxDB")
		return errFactory.Wrap(ErrWriteFault, err)
	}

	s.logger.Debug().
		Float64("temperature_celsius", m.TemperatureCelsius).
		Float64("humidity_percent", m.HumidityPercent).
		Str("location", m.Location).
		Msg("Measurement written")

	return nil
}

// Close releases the client. Closing a disconnected sink is a no-op.
func (s *Sink) Close() error {
	if s.repo == nil {
		return nil
	}

	repo := s.repo
	s.repo = nil
	if err := repo.Close(); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}

	return nil
}
