package metrics

import (
	"net/url"

	"codeberg.org/mutker/dhtlogger/internal/errors"
)

const (
	measurementName   = "dht11_reading"
	defaultSensorType = "DHT11"
	defaultLocation   = "living-room"
)

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	// SensorType is written as the sensor_type tag.
	SensorType string
	// Verify pings the server at construction; a failed ping leaves the
	// sink disconnected.
	Verify bool
}

func (c Config) Validate() error {
	errFactory := errors.New()

	u, err := url.Parse(c.URL)
	if err != nil {
		return errFactory.Wrap(ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errFactory.WithData(ErrInvalidConfig, "unsupported URL scheme "+u.Scheme)
	}
	if u.Host == "" {
		return errFactory.WithData(ErrInvalidConfig, "missing host in "+c.URL)
	}
	if c.Org == "" || c.Bucket == "" {
		return errFactory.WithData(ErrInvalidConfig, "org and bucket are required")
	}

	return nil
}

func (c Config) sensorType() string {
	if c.SensorType == "" {
		return defaultSensorType
	}

	return c.SensorType
}
