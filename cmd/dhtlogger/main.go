package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/config"
	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"codeberg.org/mutker/dhtlogger/internal/metrics"
	"codeberg.org/mutker/dhtlogger/internal/mirror"
	"codeberg.org/mutker/dhtlogger/internal/pid"
	"codeberg.org/mutker/dhtlogger/internal/poller"
	"codeberg.org/mutker/dhtlogger/internal/sensor"
	"codeberg.org/mutker/dhtlogger/internal/telemetry"
	"github.com/spf13/pflag"
)

const connectTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	logger.Debug().Msg("Config loaded")

	log := logger.Default()

	// Watch for signals before claiming the pin, so an early Ctrl+C still
	// reaches cleanup.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	model, err := sensor.ParseModel(cfg.Sensor.Type)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid sensor type")
		return 1
	}

	pidFile := pid.New("", cfg.Sensor.Pin)
	if err := pidFile.Acquire(); err != nil {
		logger.Error().Err(err).Str("pin", cfg.Sensor.Pin).Msg("Failed to acquire PID file")
		return 1
	}

	source, err := sensor.Open(sensor.Config{Pin: cfg.Sensor.Pin, Model: model}, log)
	if err != nil {
		logger.Error().Err(err).Str("pin", cfg.Sensor.Pin).Msg("Failed to open sensor")
		if err := pidFile.Release(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
		return 1
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	sink := metrics.NewSink(connectCtx, metrics.Config{
		URL:        cfg.InfluxDB.URL,
		Token:      cfg.InfluxDB.Token,
		Org:        cfg.InfluxDB.Org,
		Bucket:     cfg.InfluxDB.Bucket,
		SensorType: string(model),
		Verify:     cfg.InfluxDB.Verify,
	}, log)
	mirrors := openMirrors(connectCtx, cfg, log)
	cancelConnect()

	opts := []poller.Option{
		poller.WithMirrors(mirrors),
		poller.WithCloser("pid", pidFile.Release),
	}
	journal, err := telemetry.NewService(telemetry.Config{
		DBPath:  cfg.Telemetry.DBPath,
		Enabled: cfg.Telemetry.Enabled,
	}, log)
	if err != nil {
		logger.Error().Err(err).Msg("Telemetry unavailable, continuing without journal")
	} else {
		opts = append(opts, poller.WithJournal(journal))
	}

	loop := poller.New(poller.Config{
		Interval:    cfg.PollInterval(),
		MinInterval: model.MinInterval(),
		Location:    cfg.Sensor.Location,
		SensorType:  string(model),
	}, source, sink, log, opts...)
	report := loop.Report()
	report.Banner(cfg.Sensor.Pin)

	return execute(ctx, loop, report, cfg.Once)
}

// execute runs the loop in the requested mode, then cleans up. Interrupts and
// loop faults exit 0; a failed single reading exits 1.
func execute(ctx context.Context, loop *poller.Loop, report *poller.Report, once bool) int {
	exitCode := 0

	switch {
	case ctx.Err() != nil:
		report.Interrupted()
	case once:
		if err := loop.Once(ctx); err != nil {
			if errors.HasCode(err, errors.ErrMainLoop) {
				report.ProgramError(err)
			}
			exitCode = 1
		}
	default:
		if err := loop.Run(ctx); err != nil {
			report.ProgramError(err)
		} else {
			report.Interrupted()
		}
	}

	cleanup(loop, report)

	return exitCode
}

func openMirrors(ctx context.Context, cfg *config.Config, log logger.Logger) *mirror.Set {
	var publishers []mirror.Publisher

	if cfg.MQTT.Broker != "" {
		p, err := mirror.NewMQTT(mirror.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		}, log)
		if err != nil {
			logger.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT mirror disabled")
		} else {
			publishers = append(publishers, p)
		}
	}

	if cfg.Redis.Addr != "" {
		c, err := mirror.NewRedis(ctx, mirror.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis mirror disabled")
		} else {
			publishers = append(publishers, c)
		}
	}

	return mirror.NewSet(log, publishers...)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(loop *poller.Loop, report *poller.Report) {
	if err := loop.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("Cleanup finished with errors")
	}
	report.CleanupCompleted()
	logger.Info().Msg("Exiting...")
}
