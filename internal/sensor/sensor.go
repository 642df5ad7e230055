package sensor

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
)

type Config struct {
	Pin   string
	Model Model
}

// ParseModel accepts a model name in any case.
func ParseModel(name string) (Model, error) {
	switch Model(strings.ToUpper(strings.TrimSpace(name))) {
	case DHT11:
		return DHT11, nil
	case DHT22:
		return DHT22, nil
	default:
		return "", errors.New().WithData(ErrInvalidModel, name)
	}
}

// Source owns one sensor channel and turns raw driver results into
// validated readings.
type Source struct {
	driver    Driver
	cfg       Config
	logger    logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewSource wraps an already opened driver.
func NewSource(cfg Config, driver Driver, log logger.Logger) *Source {
	if cfg.Model == "" {
		cfg.Model = DHT11
	}

	return &Source{
		driver: driver,
		cfg:    cfg,
		logger: log,
	}
}

// Open acquires the GPIO channel named in cfg.
func Open(cfg Config, log logger.Logger) (*Source, error) {
	driver, err := OpenDHT(cfg.Pin, cfg.Model)
	if err != nil {
		return nil, errors.New().Wrap(ErrHardwareFault, err)
	}

	log.Debug().
		Str("pin", cfg.Pin).
		Str("model", string(cfg.Model)).
		Msg("Sensor channel opened")

	return NewSource(cfg, driver, log), nil
}

// Model returns the configured sensor model.
func (s *Source) Model() Model {
	return s.cfg.Model
}

// Read issues one raw read. Every failure is logged here and returned as a
// coded error with a zero Reading; Read never panics.
func (s *Source) Read() (reading Reading, err error) {
	errFactory := errors.New()

	defer func() {
		if r := recover(); r != nil {
			reading = Reading{}
			err = errFactory.Wrap(ErrHardwareFault, fmt.Errorf("driver panic: %v", r))
			s.logger.Warn().Err(err).Str("pin", s.cfg.Pin).Msg("Sensor driver failed")
		}
	}()

	humidity, temperature, rawErr := s.driver.Read()
	if rawErr != nil {
		if IsHardware(rawErr) {
			s.logger.Warn().Err(rawErr).Str("pin", s.cfg.Pin).Msg("Sensor hardware error")
			return Reading{}, errFactory.Wrap(ErrHardwareFault, rawErr)
		}

		s.logger.Debug().Err(rawErr).Msg("Reading error")
		return Reading{}, errFactory.Wrap(ErrTransientFault, rawErr)
	}

	candidate := Reading{TemperatureCelsius: temperature, HumidityPercent: humidity}
	if err := s.validate(candidate); err != nil {
		s.logger.Debug().
			Float64("temperature", temperature).
			Float64("humidity", humidity).
			Err(err).
			Msg("Discarding implausible reading")
		return Reading{}, errFactory.Wrap(ErrTransientFault, err)
	}

	return candidate, nil
}

func (s *Source) validate(r Reading) error {
	if math.IsNaN(r.TemperatureCelsius) || math.IsNaN(r.HumidityPercent) {
		return fmt.Errorf("partial reading")
	}

	limits := s.cfg.Model.Limits()
	if r.TemperatureCelsius < limits.MinTemperature || r.TemperatureCelsius > limits.MaxTemperature {
		return fmt.Errorf("temperature %.1f outside %.0f..%.0f", r.TemperatureCelsius, limits.MinTemperature, limits.MaxTemperature)
	}
	if r.HumidityPercent < limits.MinHumidity || r.HumidityPercent > limits.MaxHumidity {
		return fmt.Errorf("humidity %.1f outside %.0f..%.0f", r.HumidityPercent, limits.MinHumidity, limits.MaxHumidity)
	}

	return nil
}

// Close releases the channel. Only the first call reaches the driver.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if err := s.driver.Close(); err != nil {
			s.closeErr = errors.New().Wrap(errors.ErrShutdownFailed, err)
		}
	})

	return s.closeErr
}
