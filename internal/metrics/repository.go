package metrics

import (
	"context"
	"fmt"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// pointWriter is the part of api.WriteAPIBlocking the repository uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type influxRepository struct {
	client influxdb2.Client
	writer pointWriter
	logger logger.Logger
}

// NewRepository creates an InfluxDB client with a synchronous write API
// bound to cfg.Org and cfg.Bucket.
func NewRepository(ctx context.Context, cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrConnectFault, err)
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if cfg.Verify {
		ok, err := client.Ping(ctx)
		if err == nil && !ok {
			err = fmt.Errorf("server at %s did not answer ping", cfg.URL)
		}
		if err != nil {
			client.Close()
			return nil, errFactory.Wrap(ErrConnectFault, err)
		}
	}

	log.Info().
		Str("url", cfg.URL).
		Str("org", cfg.Org).
		Str("bucket", cfg.Bucket).
		Msg("Connected to InfluxDB")

	return &influxRepository{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger: log,
	}, nil
}

func (r *influxRepository) Store(ctx context.Context, m *Measurement) error {
	return r.writer.WritePoint(ctx, toPoint(m))
}

func (r *influxRepository) Close() error {
	if r.client != nil {
		r.client.Close()
		r.client = nil
		r.logger.Debug().Msg("InfluxDB client closed")
	}

	return nil
}

func toPoint(m *Measurement) *write.Point {
	return influxdb2.NewPoint(
		measurementName,
		map[string]string{
			"location":    m.Location,
			"sensor_type": m.SensorType,
		},
		map[string]interface{}{
			"temperature_celsius":    m.TemperatureCelsius,
			"temperature_fahrenheit": m.TemperatureFahrenheit,
			"humidity_percent":       m.HumidityPercent,
		},
		m.Timestamp,
	)
}
