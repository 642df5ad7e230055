package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	captureWindow = 8 * time.Millisecond
	maxLevels     = 2*frameBits + 8
)

// line is the part of gpio.PinIO the driver drives.
type line interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	Halt() error
}

// DHTDriver reads a DHT11/DHT22 by bit-banging one GPIO pin through
// periph.io.
type DHTDriver struct {
	pin      line
	name     string
	model    Model
	lastRead time.Time
	now      func() time.Time
	closed   bool
}

// OpenDHT initialises the periph host and claims pin for a sensor of the
// given model.
func OpenDHT(pin string, model Model) (*DHTDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, Hardware(fmt.Errorf("host init: %w", err))
	}

	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, Hardware(fmt.Errorf("unknown pin %s", pin))
	}

	d := newDHTDriver(p, pin, model)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, Hardware(fmt.Errorf("configure %s: %w", pin, err))
	}

	return d, nil
}

func newDHTDriver(p line, name string, model Model) *DHTDriver {
	return &DHTDriver{pin: p, name: name, model: model, now: time.Now}
}

// Read performs one start signal and frame capture. Pin failures are marked
// as hardware faults; timing, framing and checksum failures are returned
// plain.
func (d *DHTDriver) Read() (float64, float64, error) {
	if d.closed {
		return 0, 0, ErrClosed
	}

	now := d.now()
	if !d.lastRead.IsZero() && now.Sub(d.lastRead) < d.model.MinInterval() {
		return 0, 0, fmt.Errorf("read too soon: %s since last read", now.Sub(d.lastRead))
	}
	d.lastRead = now

	if err := d.start(); err != nil {
		return 0, 0, Hardware(err)
	}

	frame, err := decodeFrame(d.capture())
	if err != nil {
		return 0, 0, err
	}

	return parseFrame(d.model, frame)
}

// start pulls the line low long enough for the model to wake, then releases
// it to the pull-up.
func (d *DHTDriver) start() error {
	hold := time.Millisecond
	if d.model != DHT22 {
		hold = 18 * time.Millisecond
	}

	if err := d.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("drive %s low: %w", d.name, err)
	}
	time.Sleep(hold)

	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("release %s: %w", d.name, err)
	}

	return nil
}

// capture samples the line until the window closes, recording each level
// that ended inside it.
func (d *DHTDriver) capture() []pulse {
	pulses := make([]pulse, 0, maxLevels)

	begin := time.Now()
	level := d.pin.Read()
	since := begin
	for len(pulses) < maxLevels {
		t := time.Now()
		if t.Sub(begin) > captureWindow {
			break
		}

		if next := d.pin.Read(); next != level {
			pulses = append(pulses, pulse{high: bool(level), d: t.Sub(since)})
			level, since = next, t
		}
	}

	return pulses
}

// Close halts the pin so no edge detection stays armed after exit.
func (d *DHTDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	if err := d.pin.Halt(); err != nil {
		return fmt.Errorf("halt %s: %w", d.name, err)
	}

	return nil
}
