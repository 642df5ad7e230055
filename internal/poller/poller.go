// Package poller runs the read, convert, write, report cycle and owns the
// shutdown sequence of every collaborator.
package poller

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"codeberg.org/mutker/dhtlogger/internal/metrics"
	"codeberg.org/mutker/dhtlogger/internal/mirror"
	"codeberg.org/mutker/dhtlogger/internal/sensor"
	"codeberg.org/mutker/dhtlogger/internal/telemetry"
)

type Config struct {
	Interval    time.Duration
	MinInterval time.Duration
	Location    string
	SensorType  string
}

// Result describes one iteration.
type Result struct {
	Timestamp time.Time
	Reading   sensor.Reading
	ReadErr   error
	WriteErr  error
}

// Complete reports whether the iteration produced a reading.
func (r Result) Complete() bool {
	return r.ReadErr == nil
}

type Loop struct {
	cfg      Config
	interval time.Duration
	source   Source
	sink     metrics.Writer
	journal  telemetry.Collector
	mirrors  *mirror.Set
	extra    []Closer
	report   *Report
	logger   logger.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	state        State
	shutdownOnce sync.Once
	shutdownErr  error
}

func New(cfg Config, source Source, sink metrics.Writer, log logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		cfg:    cfg,
		source: source,
		sink:   sink,
		report: NewReport(os.Stdout),
		logger: log,
		now:    time.Now,
		sleep:  sleepContext,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.interval = cfg.Interval
	if l.interval < cfg.MinInterval {
		log.Warn().
			Dur("requested", cfg.Interval).
			Dur("minimum", cfg.MinInterval).
			Msg("Interval below sensor minimum, clamping")
		l.interval = cfg.MinInterval
	}

	return l
}

// Interval returns the effective sleep between iterations.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Report returns the console printer used by the loop.
func (l *Loop) Report() *Report {
	return l.report
}

// Run polls until ctx is cancelled or an iteration faults. Cancellation is
// observed between iterations only. A nil return means an interrupt; a
// main_loop_failed error means a fault. Run does not clean up; call Shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().Dur("interval", l.interval).Str("location", l.cfg.Location).Msg("Polling started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := l.Poll(ctx); err != nil {
			return err
		}

		if err := l.sleep(ctx, l.interval); err != nil {
			return nil
		}
	}
}

// Once runs a single iteration and returns the read error when the reading
// was absent.
func (l *Loop) Once(ctx context.Context) error {
	res, err := l.Poll(ctx)
	if err != nil {
		return err
	}

	return res.ReadErr
}

// Poll runs one iteration. Collaborator failures are reported in the Result;
// only an unexpected panic returns an error.
func (l *Loop) Poll(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			loopErr := errors.New().Wrap(errors.ErrMainLoop, fmt.Errorf("%v", r))
			l.logger.ErrorWithCode(loopErr).Msg("Polling iteration failed")
			err = loopErr
		}
	}()

	// In-flight reads and writes are never cut short by the interrupt.
	opCtx := context.WithoutCancel(ctx)

	res.Timestamp = l.now()
	res.Reading, res.ReadErr = l.source.Read()

	if !res.Complete() {
		l.report.ReadFailed(res.Timestamp)
		l.record(opCtx, res)
		return res, nil
	}

	l.report.Reading(res.Timestamp, res.Reading)
	res.WriteErr = l.sink.Write(opCtx, res.Reading.TemperatureCelsius, res.Reading.HumidityPercent, l.cfg.Location)
	l.report.WriteResult(res.WriteErr == nil)

	l.record(opCtx, res)
	l.publishMirrors(opCtx, res)

	return res, nil
}

func (l *Loop) record(ctx context.Context, res Result) {
	if l.journal == nil {
		return
	}

	rec := &telemetry.PollRecord{
		Timestamp: res.Timestamp,
		Location:  l.cfg.Location,
		ReadOK:    res.Complete(),
		WriteOK:   res.Complete() && res.WriteErr == nil,
	}
	if res.Complete() {
		rec.TemperatureCelsius = res.Reading.TemperatureCelsius
		rec.HumidityPercent = res.Reading.HumidityPercent
		if res.WriteErr != nil {
			rec.FaultCode = string(errors.CodeOf(res.WriteErr))
		}
	} else {
		rec.FaultCode = string(errors.CodeOf(res.ReadErr))
	}

	if err := l.journal.Record(ctx, rec); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to record telemetry")
	}
}

func (l *Loop) publishMirrors(ctx context.Context, res Result) {
	if l.mirrors == nil || l.mirrors.Len() == 0 {
		return
	}

	l.mirrors.Publish(ctx, mirror.Sample{
		Timestamp:             res.Timestamp,
		Location:              l.cfg.Location,
		SensorType:            l.cfg.SensorType,
		TemperatureCelsius:    res.Reading.TemperatureCelsius,
		TemperatureFahrenheit: res.Reading.Fahrenheit(),
		HumidityPercent:       res.Reading.HumidityPercent,
	})
}

// Shutdown moves the loop to ShuttingDown and runs every cleanup step exactly
// once, in order: sensor, sink, mirrors, journal, then extra closers. A
// failing or panicking step does not stop the next one. Later calls return
// the first result.
func (l *Loop) Shutdown() error {
	l.shutdownOnce.Do(func() {
		l.mu.Lock()
		l.state = ShuttingDown
		l.mu.Unlock()

		var errs []error
		for _, c := range l.closers() {
			if err := runCloser(c); err != nil {
				l.logger.Error().Err(err).Str("component", c.Name).Msg("Cleanup failed")
				errs = append(errs, err)
			}
		}
		l.shutdownErr = errors.Join(errs...)
	})

	return l.shutdownErr
}

func (l *Loop) closers() []Closer {
	closers := []Closer{
		{Name: "sensor", Close: l.source.Close},
		{Name: "influxdb", Close: l.sink.Close},
	}

	if l.mirrors != nil {
		for _, p := range l.mirrors.Publishers() {
			closers = append(closers, Closer{Name: p.Name(), Close: p.Close})
		}
	}

	if l.journal != nil {
		closers = append(closers, Closer{Name: "telemetry", Close: l.journal.Close})
	}

	return append(closers, l.extra...)
}

func runCloser(c Closer) (err error) {
	errFactory := errors.New()

	defer func() {
		if r := recover(); r != nil {
			err = errFactory.Wrap(errors.ErrCleanup, fmt.Errorf("%s: panic: %v", c.Name, r))
		}
	}()

	if err := c.Close(); err != nil {
		return errFactory.Wrap(errors.ErrCleanup, fmt.Errorf("%s: %w", c.Name, err))
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
