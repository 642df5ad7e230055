package sensor

import (
	"errors"
	"time"
)

// Driver is one single-wire sensor channel. Read performs exactly one raw
// exchange with the device.
type Driver interface {
	Read() (humidity, temperature float64, err error)
	Close() error
}

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("sensor channel closed")

// Reading is one complete temperature/humidity sample. Absent samples are
// represented by a non-nil error from Source.Read, never by a Reading.
type Reading struct {
	TemperatureCelsius float64
	HumidityPercent    float64
}

// Fahrenheit derives the Fahrenheit temperature from the stored Celsius value.
func (r Reading) Fahrenheit() float64 {
	return CelsiusToFahrenheit(r.TemperatureCelsius)
}

// CelsiusToFahrenheit is the single conversion used for both display and
// persistence.
func CelsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// Model identifies a supported sensor.
type Model string

const (
	DHT11 Model = "DHT11"
	DHT22 Model = "DHT22"
)

// Limits bounds the plausible values a model reports.
type Limits struct {
	MinTemperature, MaxTemperature float64
	MinHumidity, MaxHumidity       float64
}

// Limits returns the plausible value range for the model.
func (m Model) Limits() Limits {
	if m == DHT22 {
		return Limits{MinTemperature: -40, MaxTemperature: 80, MinHumidity: 0, MaxHumidity: 100}
	}

	return Limits{MinTemperature: -20, MaxTemperature: 60, MinHumidity: 0, MaxHumidity: 100}
}

// MinInterval is the shortest sampling period the model sustains.
func (m Model) MinInterval() time.Duration {
	if m == DHT22 {
		return 2 * time.Second
	}

	return time.Second
}
