package sensor

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	humidity    float64
	temperature float64
	err         error
	panicWith   any
	reads       int
	closes      int
	closeErr    error
}

func (f *fakeDriver) Read() (float64, float64, error) {
	f.reads++
	if f.panicWith != nil {
		panic(f.panicWith)
	}

	return f.humidity, f.temperature, f.err
}

func (f *fakeDriver) Close() error {
	f.closes++
	return f.closeErr
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "debug"))

	return &buf
}

func TestReadComplete(t *testing.T) {
	drv := &fakeDriver{humidity: 60.0, temperature: 23.5}
	src := NewSource(Config{Pin: "GPIO4", Model: DHT11}, drv, logger.Default())

	r, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, Reading{TemperatureCelsius: 23.5, HumidityPercent: 60.0}, r)
	assert.Equal(t, 1, drv.reads)
}

func TestReadTransientFault(t *testing.T) {
	logs := captureLogs(t)
	drv := &fakeDriver{err: stderrors.New("checksum mismatch")}
	src := NewSource(Config{Pin: "GPIO4"}, drv, logger.Default())

	r, err := src.Read()
	require.Error(t, err)
	assert.Equal(t, Reading{}, r)
	assert.Equal(t, ErrTransientFault, errors.CodeOf(err))
	assert.Equal(t, 1, drv.reads, "no retry within a call")
	assert.Contains(t, logs.String(), `"level":"debug"`)
	assert.Contains(t, logs.String(), "checksum mismatch")
}

func TestReadHardwareFault(t *testing.T) {
	logs := captureLogs(t)
	drv := &fakeDriver{err: Hardware(stderrors.New("pin GPIO4 busy"))}
	src := NewSource(Config{Pin: "GPIO4"}, drv, logger.Default())

	_, err := src.Read()
	require.Error(t, err)
	assert.Equal(t, ErrHardwareFault, errors.CodeOf(err))
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "Sensor hardware error")
}

func TestReadAfterDriverClosedIsHardwareFault(t *testing.T) {
	drv := &fakeDriver{err: ErrClosed}
	src := NewSource(Config{}, drv, logger.Default())

	_, err := src.Read()
	assert.Equal(t, ErrHardwareFault, errors.CodeOf(err))
}

func TestReadRecoversDriverPanic(t *testing.T) {
	drv := &fakeDriver{panicWith: "nil device"}
	src := NewSource(Config{}, drv, logger.Default())

	var err error
	assert.NotPanics(t, func() {
		_, err = src.Read()
	})
	require.Error(t, err)
	assert.Equal(t, ErrHardwareFault, errors.CodeOf(err))
}

func TestReadRejectsPartialAndImplausibleValues(t *testing.T) {
	tests := []struct {
		name        string
		model       Model
		humidity    float64
		temperature float64
	}{
		{"nan humidity", DHT11, math.NaN(), 21},
		{"nan temperature", DHT11, 40, math.NaN()},
		{"humidity above 100", DHT11, 120, 21},
		{"dht11 too hot", DHT11, 40, 75},
		{"dht22 too cold", DHT22, 40, -41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := &fakeDriver{humidity: tt.humidity, temperature: tt.temperature}
			src := NewSource(Config{Model: tt.model}, drv, logger.Default())

			r, err := src.Read()
			require.Error(t, err)
			assert.Equal(t, Reading{}, r)
			assert.Equal(t, ErrTransientFault, errors.CodeOf(err))
		})
	}
}

func TestDHT22AcceptsWiderRange(t *testing.T) {
	drv := &fakeDriver{humidity: 30, temperature: 75}
	src := NewSource(Config{Model: DHT22}, drv, logger.Default())

	r, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, 75.0, r.TemperatureCelsius)
}

func TestCloseOnce(t *testing.T) {
	drv := &fakeDriver{closeErr: stderrors.New("halt failed")}
	src := NewSource(Config{}, drv, logger.Default())

	err := src.Close()
	require.Error(t, err)
	assert.Equal(t, errors.ErrShutdownFailed, errors.CodeOf(err))

	assert.Equal(t, err, src.Close())
	assert.Equal(t, 1, drv.closes)
}

func TestCelsiusToFahrenheit(t *testing.T) {
	for _, c := range []float64{-40, 0, 23.5, 37, 100} {
		assert.InDelta(t, c*9/5+32, CelsiusToFahrenheit(c), 1e-9)
		assert.Equal(t, CelsiusToFahrenheit(c), Reading{TemperatureCelsius: c}.Fahrenheit())
	}
	assert.InDelta(t, 74.3, CelsiusToFahrenheit(23.5), 1e-9)
	assert.Equal(t, -40.0, CelsiusToFahrenheit(-40))
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("dht22")
	require.NoError(t, err)
	assert.Equal(t, DHT22, m)

	_, err = ParseModel("bme280")
	assert.Equal(t, ErrInvalidModel, errors.CodeOf(err))
}

func TestModelMinInterval(t *testing.T) {
	assert.Equal(t, "1s", DHT11.MinInterval().String())
	assert.Equal(t, "2s", DHT22.MinInterval().String())
}
